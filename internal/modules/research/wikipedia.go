package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mx-space/scribe/internal/config"
)

const (
	apiURLTemplate     = "https://%s.wikipedia.org/w/api.php"
	articleURLTemplate = "https://%s.wikipedia.org/wiki/%s"
)

var slugReplacer = strings.NewReplacer(
	" ", "_",
	",", "",
	":", "",
	";", "",
	"!", "",
	"?", "",
	`"`, "",
	"'", "",
)

// Page is one search hit with its plain-text summary.
type Page struct {
	Title   string
	Summary string
}

// WikipediaClient searches Wikipedia and returns bounded plain-text summaries.
type WikipediaClient struct {
	HTTP *http.Client
	// Endpoint overrides the per-language action API URL.
	Endpoint  string
	Language  string
	TopK      int
	MaxChars  int
	UserAgent string
}

func NewWikipediaClient(cfg config.ResearchRuntimeConfig) *WikipediaClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WikipediaClient{
		HTTP:      &http.Client{Timeout: timeout},
		Endpoint:  cfg.Endpoint,
		Language:  cfg.Language,
		TopK:      cfg.TopK,
		MaxChars:  cfg.MaxChars,
		UserAgent: cfg.UserAgent,
	}
}

// Fetch returns the formatted summaries of the top search hits for query,
// truncated to MaxChars, together with the derived article URL.
func (c *WikipediaClient) Fetch(ctx context.Context, query string) (string, string, error) {
	pages, err := c.Search(ctx, query)
	if err != nil {
		return "", "", err
	}

	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Summary) == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Page: %s\nSummary: %s", p.Title, p.Summary))
	}
	text := truncateRunes(strings.Join(blocks, "\n\n"), c.maxChars())
	return text, c.ArticleURL(query), nil
}

// Search runs list=search and then loads intro extracts for the hits, keeping
// the search ranking.
func (c *WikipediaClient) Search(ctx context.Context, query string) ([]Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty wikipedia query")
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprintf("%d", c.topK())},
		"format":   {"json"},
		"utf8":     {"1"},
	}
	var search struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &search); err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}
	if len(search.Query.Search) == 0 {
		return []Page{}, nil
	}

	titles := make([]string, 0, len(search.Query.Search))
	for _, hit := range search.Query.Search {
		titles = append(titles, hit.Title)
	}

	params = url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {strings.Join(titles, "|")},
		"format":      {"json"},
	}
	var extracts struct {
		Query struct {
			Pages map[string]struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &extracts); err != nil {
		return nil, fmt.Errorf("wikipedia extracts: %w", err)
	}

	byTitle := make(map[string]string, len(extracts.Query.Pages))
	for _, p := range extracts.Query.Pages {
		byTitle[p.Title] = strings.TrimSpace(p.Extract)
	}

	pages := make([]Page, 0, len(titles))
	for _, title := range titles {
		summary, ok := byTitle[title]
		if !ok {
			continue
		}
		pages = append(pages, Page{Title: title, Summary: summary})
	}
	return pages, nil
}

// ArticleURL derives the article URL recorded as the source of a query.
func (c *WikipediaClient) ArticleURL(query string) string {
	return fmt.Sprintf(articleURLTemplate, c.language(), slugReplacer.Replace(strings.TrimSpace(query)))
}

func (c *WikipediaClient) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL()+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing wikipedia response: %w", err)
	}
	return nil
}

func (c *WikipediaClient) apiURL() string {
	if v := strings.TrimSpace(c.Endpoint); v != "" {
		return v
	}
	return fmt.Sprintf(apiURLTemplate, c.language())
}

func (c *WikipediaClient) language() string {
	if v := strings.TrimSpace(c.Language); v != "" {
		return v
	}
	return "en"
}

func (c *WikipediaClient) topK() int {
	if c.TopK > 0 {
		return c.TopK
	}
	return 2
}

func (c *WikipediaClient) maxChars() int {
	if c.MaxChars > 0 {
		return c.MaxChars
	}
	return 4000
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

package research

import (
	"sync"
	"unicode/utf8"
)

// Fact is the text retrieved for one query and the article it came from.
type Fact struct {
	Query   string `json:"query"`
	Content string `json:"content"`
	URL     string `json:"url"`
	Length  int    `json:"length"`
}

// Tracker collects the sources and facts of a single generation run.
type Tracker struct {
	mu      sync.Mutex
	sources []string
	seen    map[string]struct{}
	facts   map[string]Fact
	order   []string
}

func NewTracker() *Tracker {
	return &Tracker{
		seen:  make(map[string]struct{}),
		facts: make(map[string]Fact),
	}
}

// Record stores the fact for query and appends its source line once.
// A repeated query replaces the stored content but keeps its position.
func (t *Tracker) Record(query, content, articleURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	source := SourceLine(query, articleURL)
	if _, ok := t.seen[source]; !ok {
		t.seen[source] = struct{}{}
		t.sources = append(t.sources, source)
	}

	if _, ok := t.facts[query]; !ok {
		t.order = append(t.order, query)
	}
	t.facts[query] = Fact{
		Query:   query,
		Content: content,
		URL:     articleURL,
		Length:  utf8.RuneCountInString(content),
	}
}

// Sources returns a copy of the visited sources in first-seen order.
func (t *Tracker) Sources() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.sources))
	copy(out, t.sources)
	return out
}

// Facts returns the fact records in first-queried order.
func (t *Tracker) Facts() []Fact {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Fact, 0, len(t.order))
	for _, q := range t.order {
		out = append(out, t.facts[q])
	}
	return out
}

func (t *Tracker) TotalLength() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, f := range t.facts {
		total += f.Length
	}
	return total
}

// Summary mirrors what the report and CLI print about a run.
type Summary struct {
	SourcesCount       int      `json:"sources_count"`
	ResearchTopics     []string `json:"research_topics"`
	TotalContentLength int      `json:"total_content_length"`
	Sources            []string `json:"sources_list"`
}

func (t *Tracker) Summary() Summary {
	sources := t.Sources()
	facts := t.Facts()
	topics := make([]string, 0, len(facts))
	for _, f := range facts {
		topics = append(topics, f.Query)
	}
	return Summary{
		SourcesCount:       len(sources),
		ResearchTopics:     topics,
		TotalContentLength: t.TotalLength(),
		Sources:            sources,
	}
}

// SourceLine formats a visited article as it appears in assignment sources.
func SourceLine(query, articleURL string) string {
	return "Wikipedia: " + query + " - " + articleURL
}

package research

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mx-space/scribe/internal/config"
	"go.uber.org/zap"
)

// minUsefulChars is the length a lookup result must exceed to count as research.
const minUsefulChars = 100

// Fetcher returns raw encyclopedia text and the article URL for a query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (text string, articleURL string, err error)
}

// Stage runs the research half of the pipeline: one lookup per term.
type Stage struct {
	fetcher Fetcher
	terms   []string
	delay   time.Duration
	logger  *zap.Logger
}

func NewStage(fetcher Fetcher, cfg config.ResearchRuntimeConfig, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	terms := cfg.Terms
	if len(terms) == 0 {
		terms = config.DefaultResearchTerms
	}
	return &Stage{
		fetcher: fetcher,
		terms:   terms,
		delay:   cfg.Delay,
		logger:  logger,
	}
}

// Terms expands the term templates for topic, dropping duplicates.
func Terms(templates []string, topic string) []string {
	topic = strings.TrimSpace(topic)
	seen := make(map[string]struct{}, len(templates))
	out := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		term := strings.TrimSpace(strings.ReplaceAll(tmpl, "{topic}", topic))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

// Lookup researches a single query. Failures never surface as errors; they
// come back as text the writing stage can read.
func (s *Stage) Lookup(ctx context.Context, query string, tracker *Tracker) string {
	text, articleURL, err := s.fetcher.Fetch(ctx, query)
	if err != nil {
		s.logger.Warn("wikipedia research failed", zap.String("query", query), zap.Error(err))
		return fmt.Sprintf("Wikipedia research failed for '%s': %s", query, err)
	}

	length := utf8.RuneCountInString(text)
	if length <= minUsefulChars {
		s.logger.Warn("wikipedia returned minimal content", zap.String("query", query), zap.Int("chars", length))
		return fmt.Sprintf("Limited Wikipedia information found for '%s'. Please try a more specific search term.", query)
	}

	tracker.Record(query, text, articleURL)
	s.logger.Info("wikipedia research succeeded", zap.String("query", query), zap.Int("chars", length))
	return fmt.Sprintf("WIKIPEDIA RESEARCH ON '%s':\n\n%s\n\n[VERIFIED SOURCE: %s]", strings.ToUpper(query), text, articleURL)
}

// Run looks up every term for topic in order, pausing between calls, and
// returns the concatenated notes. Only context cancellation stops it early.
func (s *Stage) Run(ctx context.Context, topic string, tracker *Tracker) (string, error) {
	terms := Terms(s.terms, topic)
	s.logger.Info("research started", zap.String("topic", topic), zap.Strings("terms", terms))

	notes := make([]string, 0, len(terms))
	for i, term := range terms {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		result := s.Lookup(ctx, term, tracker)
		notes = append(notes, fmt.Sprintf("### Research on '%s':\n%s\n", term, result))

		if i < len(terms)-1 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	out := strings.Join(notes, "\n")
	s.logger.Info("research complete",
		zap.String("topic", topic),
		zap.Int("terms", len(terms)),
		zap.Int("chars", utf8.RuneCountInString(out)),
		zap.Int("sources", len(tracker.Sources())),
	)
	return out, nil
}

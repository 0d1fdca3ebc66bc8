package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mx-space/scribe/internal/modules/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeResearcher struct {
	records [][3]string
	err     error
}

func (f *fakeResearcher) Run(_ context.Context, topic string, tracker *research.Tracker) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, r := range f.records {
		tracker.Record(r[0], r[1], r[2])
	}
	return "### Research on '" + topic + "':\nnotes\n", nil
}

type fakeGenerator struct {
	output string
	err    error

	system string
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, systemPrompt, prompt string) (string, error) {
	f.system, f.prompt = systemPrompt, prompt
	return f.output, f.err
}

var fixedNow = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func newTestPipeline(r Researcher, g *fakeGenerator) *Pipeline {
	return NewPipeline(r, g, PipelineOptions{
		Author:   "AI Research Assistant",
		Sections: 2,
		Now:      func() time.Time { return fixedNow },
	})
}

const goodOutput = "Here you go:\n```json\n" + `{
  "topic": "Photosynthesis",
  "author": "",
  "date": "",
  "introduction": "Plants {mostly} turn light into sugar.",
  "main_sections": [
    {"title": "Light Reactions", "content": "Water splitting."},
    {"title": "Calvin Cycle", "content": "Carbon fixation."}
  ],
  "conclusion": "Life depends on it.",
  "sources": ["made up source"],
  "tools_used": []
}` + "\n```\nHope it helps."

func TestPipeline_Execute(t *testing.T) {
	researcher := &fakeResearcher{records: [][3]string{
		{"Photosynthesis", "chlorophyll", "https://en.wikipedia.org/wiki/Photosynthesis"},
		{"Photosynthesis history", "van Helmont", "https://en.wikipedia.org/wiki/Photosynthesis_history"},
	}}
	gen := &fakeGenerator{output: goodOutput}
	p := newTestPipeline(researcher, gen)

	a, err := p.Execute(context.Background(), NewRun("Photosynthesis", fixedNow))
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis", a.Topic)
	assert.Equal(t, "AI Research Assistant", a.Author)
	assert.Equal(t, "March 3, 2025", a.Date)
	assert.Equal(t, "Plants {mostly} turn light into sugar.", a.Introduction)
	require.Len(t, a.MainSections, 2)
	assert.Equal(t, "Calvin Cycle", a.MainSections[1].Title)
	assert.Equal(t, []string{
		"Wikipedia: Photosynthesis - https://en.wikipedia.org/wiki/Photosynthesis",
		"Wikipedia: Photosynthesis history - https://en.wikipedia.org/wiki/Photosynthesis_history",
	}, a.Sources)
	assert.Equal(t, []string{"wikipedia"}, a.ToolsUsed)

	assert.Contains(t, gen.system, "March 3, 2025")
	assert.Contains(t, gen.prompt, "notes")
	assert.Contains(t, gen.prompt, "write a comprehensive academic assignment on: Photosynthesis")
}

func TestPipeline_UnparseableOutputYieldsErrorAssignment(t *testing.T) {
	researcher := &fakeResearcher{records: [][3]string{
		{"Rust", "memory safety", "https://en.wikipedia.org/wiki/Rust"},
	}}
	p := newTestPipeline(researcher, &fakeGenerator{output: "I cannot write that {assignment"})

	a, err := p.Execute(context.Background(), NewRun("Rust", fixedNow))
	require.NoError(t, err)

	assert.Equal(t, "Rust", a.Topic)
	assert.Equal(t, "Error occurred during assignment generation.", a.Introduction)
	require.Len(t, a.MainSections, 1)
	assert.Equal(t, "Error Section", a.MainSections[0].Title)
	assert.Contains(t, a.MainSections[0].Content, "An error occurred while generating the assignment: ")
	assert.Equal(t, "Please try again.", a.Conclusion)
	assert.Equal(t, []string{"Wikipedia: Rust - https://en.wikipedia.org/wiki/Rust"}, a.Sources)
	assert.Equal(t, []string{"wikipedia"}, a.ToolsUsed)
}

func TestPipeline_EmptyOutputYieldsErrorAssignment(t *testing.T) {
	p := newTestPipeline(&fakeResearcher{}, &fakeGenerator{output: "   "})

	a, err := p.Execute(context.Background(), NewRun("Rust", fixedNow))
	require.NoError(t, err)
	assert.Contains(t, a.MainSections[0].Content, "empty output received")
	assert.Empty(t, a.Sources)
}

func TestPipeline_GenerationErrorIsReturned(t *testing.T) {
	p := newTestPipeline(&fakeResearcher{}, &fakeGenerator{err: errors.New("rate limited")})

	_, err := p.Execute(context.Background(), NewRun("Rust", fixedNow))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing: rate limited")
}

func TestPipeline_ResearchCancellation(t *testing.T) {
	gen := &fakeGenerator{output: goodOutput}
	p := newTestPipeline(&fakeResearcher{err: context.Canceled}, gen)

	_, err := p.Execute(context.Background(), NewRun("Rust", fixedNow))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.prompt)
}

func TestNewRun(t *testing.T) {
	a := NewRun("Go", fixedNow)
	b := NewRun("Go", fixedNow)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a.Tracker, b.Tracker)
	assert.Equal(t, fixedNow, a.StartedAt)
}

func TestPipeline_SectionCountMismatchWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	output := `{"topic":"Rust","introduction":"Intro.","main_sections":[` +
		`{"title":"A","content":"a"},{"title":"B","content":"b"},{"title":"C","content":"c"}],"conclusion":"End."}`
	p := NewPipeline(&fakeResearcher{}, &fakeGenerator{output: output}, PipelineOptions{
		Sections: 4,
		Now:      func() time.Time { return fixedNow },
		Logger:   zap.New(core),
	})

	a, err := p.Execute(context.Background(), NewRun("Rust", fixedNow))
	require.NoError(t, err)
	assert.Len(t, a.MainSections, 3)

	entries := logs.FilterMessage("section count differs from configured").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 4, fields["want"])
	assert.EqualValues(t, 3, fields["got"])
}

func TestPipeline_MatchingSectionCountIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPipeline(&fakeResearcher{}, &fakeGenerator{output: goodOutput}, PipelineOptions{
		Sections: 2,
		Now:      func() time.Time { return fixedNow },
		Logger:   zap.New(core),
	})

	_, err := p.Execute(context.Background(), NewRun("Photosynthesis", fixedNow))
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("section count differs from configured").Len())
}

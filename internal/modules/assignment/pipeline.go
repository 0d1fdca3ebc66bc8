// Package assignment drives a topic through research and writing into a
// structured assignment and keeps the most recent one available for export.
package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mx-space/scribe/internal/models"
	"github.com/mx-space/scribe/internal/modules/processing/ai"
	"github.com/mx-space/scribe/internal/modules/research"
	"go.uber.org/zap"
)

var (
	ErrEmptyTopic   = errors.New("topic is required")
	ErrNoAssignment = errors.New("no assignment available")
)

const defaultTool = "wikipedia"

// Run is the state owned by a single generation.
type Run struct {
	ID        string
	Topic     string
	StartedAt time.Time
	Tracker   *research.Tracker
}

func NewRun(topic string, now time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Topic:     topic,
		StartedAt: now,
		Tracker:   research.NewTracker(),
	}
}

// Researcher collects research notes for a topic into a tracker.
type Researcher interface {
	Run(ctx context.Context, topic string, tracker *research.Tracker) (string, error)
}

// Pipeline runs RESEARCH then WRITE for one topic.
type Pipeline struct {
	researcher Researcher
	generator  ai.Generator
	author     string
	sections   int
	now        func() time.Time
	logger     *zap.Logger
}

type PipelineOptions struct {
	Author   string
	Sections int
	Now      func() time.Time
	Logger   *zap.Logger
}

func NewPipeline(researcher Researcher, generator ai.Generator, opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		researcher: researcher,
		generator:  generator,
		author:     opts.Author,
		sections:   opts.Sections,
		now:        opts.Now,
		logger:     opts.Logger,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.sections < 1 {
		p.sections = 4
	}
	return p
}

// Execute produces an assignment for run. A model reply that cannot be decoded
// yields the error assignment rather than an error; only cancellation and
// generation failures are returned.
func (p *Pipeline) Execute(ctx context.Context, run *Run) (*models.Assignment, error) {
	log := p.logger.With(zap.String("run", run.ID), zap.String("topic", run.Topic))
	log.Debug("research strategy", zap.String("prompt", ai.BuildResearchPrompt(run.Topic)))

	notes, err := p.researcher.Run(ctx, run.Topic, run.Tracker)
	if err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}

	date := run.StartedAt.Format(ai.DateLayout)
	systemPrompt, userPrompt := ai.BuildWritingPrompt(run.Topic, p.author, date, p.sections, notes)
	log.Info("writing started", zap.Int("notes_chars", len(notes)))

	raw, err := p.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("writing: %w", err)
	}

	a, err := decode(raw)
	if err != nil {
		log.Warn("assignment output could not be parsed", zap.Error(err))
		return errorAssignment(run, p.author, date, err), nil
	}
	p.normalize(a, run, date)
	if len(a.MainSections) != p.sections {
		log.Warn("section count differs from configured",
			zap.Int("want", p.sections),
			zap.Int("got", len(a.MainSections)),
		)
	}
	log.Info("assignment generated",
		zap.Int("sections", len(a.MainSections)),
		zap.Int("sources", len(a.Sources)),
		zap.Int("words", a.WordCount()),
	)
	return a, nil
}

func decode(raw string) (*models.Assignment, error) {
	body, err := ai.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var a models.Assignment
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return nil, fmt.Errorf("decode assignment: %w", err)
	}
	return &a, nil
}

func (p *Pipeline) normalize(a *models.Assignment, run *Run, date string) {
	if strings.TrimSpace(a.Topic) == "" {
		a.Topic = run.Topic
	}
	if strings.TrimSpace(a.Author) == "" {
		a.Author = p.author
	}
	if strings.TrimSpace(a.Date) == "" {
		a.Date = date
	}
	if a.MainSections == nil {
		a.MainSections = []models.Section{}
	}
	// The model never sees real URLs, so its list is replaced wholesale.
	a.Sources = run.Tracker.Sources()
	if len(a.ToolsUsed) == 0 {
		a.ToolsUsed = []string{defaultTool}
	}
}

func errorAssignment(run *Run, author, date string, cause error) *models.Assignment {
	return &models.Assignment{
		Topic:        run.Topic,
		Author:       author,
		Date:         date,
		Introduction: "Error occurred during assignment generation.",
		MainSections: []models.Section{{
			Title:   "Error Section",
			Content: "An error occurred while generating the assignment: " + cause.Error(),
		}},
		Conclusion: "Please try again.",
		Sources:    run.Tracker.Sources(),
		ToolsUsed:  []string{defaultTool},
	}
}

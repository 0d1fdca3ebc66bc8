package assignment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mx-space/scribe/internal/models"
	"github.com/mx-space/scribe/internal/modules/export"
	"github.com/mx-space/scribe/internal/modules/processing/ai"
	"go.uber.org/zap"
)

const defaultEditedTitle = "Assignment"

// Result is a finished generation together with where its report landed.
type Result struct {
	Assignment *models.Assignment
	RunID      string
	ReportPath string
	Elapsed    time.Duration
}

// File is a rendered export ready to send.
type File struct {
	Name        string
	ContentType string
	Body        []byte
	Path        string
}

type Service struct {
	pipeline *Pipeline
	repo     Repository
	exports  *export.Service
	author   string
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(pipeline *Pipeline, repo Repository, exports *export.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pipeline: pipeline,
		repo:     repo,
		exports:  exports,
		author:   pipeline.author,
		now:      pipeline.now,
		logger:   logger,
	}
}

// Generate runs the pipeline for topic, stores the result as the current
// assignment and writes the assignment.txt report.
func (s *Service) Generate(ctx context.Context, topic string) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	run := NewRun(topic, s.now())
	a, err := s.pipeline.Execute(ctx, run)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, run, a); err != nil {
		return nil, fmt.Errorf("save assignment: %w", err)
	}

	res := &Result{Assignment: a, RunID: run.ID, Elapsed: s.now().Sub(run.StartedAt)}
	var buf bytes.Buffer
	err = export.WriteReport(&buf, export.Report{Assignment: a, Facts: run.Tracker.Facts(), GeneratedAt: s.now()})
	if err == nil {
		res.ReportPath, err = s.exports.WriteBytes(ctx, export.ReportFile, buf.Bytes(), export.FormatText.ContentType())
	}
	if err != nil {
		s.logger.Error("write report failed", zap.String("run", run.ID), zap.Error(err))
	}
	return res, nil
}

func (s *Service) Current(ctx context.Context) (*models.Assignment, error) {
	return s.repo.Current(ctx)
}

// Download renders the current assignment as assignment.<ext>.
func (s *Service) Download(ctx context.Context, f export.Format) (*File, error) {
	a, err := s.repo.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, "assignment", f, a)
}

// Edit is a user-revised assignment body.
type Edit struct {
	Title        string
	Introduction string
	Conclusion   string
	Date         string
	Sections     []models.Section
}

// DownloadEdited renders edit as assignment_edited.<ext>. Sources, tools and
// author carry over from the current assignment when there is one.
func (s *Service) DownloadEdited(ctx context.Context, f export.Format, edit Edit) (*File, error) {
	a := &models.Assignment{
		Topic:        strings.TrimSpace(edit.Title),
		Author:       s.author,
		Date:         strings.TrimSpace(edit.Date),
		Introduction: edit.Introduction,
		MainSections: edit.Sections,
		Conclusion:   edit.Conclusion,
		ToolsUsed:    []string{defaultTool},
	}
	if a.Topic == "" {
		a.Topic = defaultEditedTitle
	}

	current, err := s.repo.Current(ctx)
	switch {
	case err == nil:
		a.Sources = current.Sources
		if len(current.ToolsUsed) > 0 {
			a.ToolsUsed = current.ToolsUsed
		}
		if current.Author != "" {
			a.Author = current.Author
		}
		if a.Date == "" {
			a.Date = current.Date
		}
	case !errors.Is(err, ErrNoAssignment):
		return nil, err
	}
	if a.Date == "" {
		a.Date = s.now().Format(ai.DateLayout)
	}
	return s.render(ctx, "assignment_edited", f, a)
}

func (s *Service) render(ctx context.Context, base string, f export.Format, a *models.Assignment) (*File, error) {
	var buf bytes.Buffer
	if err := export.Render(&buf, f, a); err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	name := base + "." + f.Extension()
	path, err := s.exports.WriteBytes(ctx, name, buf.Bytes(), f.ContentType())
	if err != nil {
		return nil, err
	}
	return &File{Name: name, ContentType: f.ContentType(), Body: buf.Bytes(), Path: path}, nil
}

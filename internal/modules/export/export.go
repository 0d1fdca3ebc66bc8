// Package export renders assignments to txt, html, pdf and docx files.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mx-space/scribe/internal/models"
	"go.uber.org/zap"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// RenderFunc writes an assignment in one format.
type RenderFunc func(w io.Writer, a *models.Assignment) error

var renderers = map[Format]RenderFunc{
	FormatText: WriteText,
	FormatPDF:  WritePDF,
	FormatDOCX: WriteDOCX,
	FormatHTML: WriteHTML,
}

var contentTypes = map[Format]string{
	FormatText: "text/plain; charset=utf-8",
	FormatPDF:  "application/pdf",
	FormatDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatHTML: "text/html; charset=utf-8",
}

// ParseFormat accepts a format name case-insensitively, with or without a dot.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "."))
	if _, ok := renderers[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
	return f, nil
}

func (f Format) Extension() string { return string(f) }

func (f Format) ContentType() string {
	if ct, ok := contentTypes[f]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Render writes a in format f.
func Render(w io.Writer, f Format, a *models.Assignment) error {
	render, ok := renderers[f]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return render(w, a)
}

// Mirror receives a copy of every file the service writes.
type Mirror interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// Service writes export files into a directory. Writes to the same path are
// serialized; distinct paths proceed in parallel.
type Service struct {
	dir    string
	mirror Mirror
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(dir string, mirror Mirror, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dir:    dir,
		mirror: mirror,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Service) Dir() string { return s.dir }

// Path returns the destination of name inside the output directory.
func (s *Service) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// WriteFile renders a as f into name and returns the absolute path written.
func (s *Service) WriteFile(ctx context.Context, name string, f Format, a *models.Assignment) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, f, a); err != nil {
		return "", fmt.Errorf("render %s: %w", f, err)
	}
	return s.write(ctx, name, buf.Bytes(), f.ContentType())
}

// WriteBytes stores pre-rendered content under name.
func (s *Service) WriteBytes(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	return s.write(ctx, name, body, contentType)
}

func (s *Service) write(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	path := s.Path(name)

	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	if s.mirror != nil {
		if err := s.mirror.Upload(ctx, filepath.Base(path), body, contentType); err != nil {
			s.logger.Warn("export mirror upload failed", zap.String("file", filepath.Base(path)), zap.Error(err))
		}
	}
	return path, nil
}

func (s *Service) lockFor(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}
	return lock
}

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mx-space/scribe/internal/models"
	"github.com/mx-space/scribe/internal/modules/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAssignment() *models.Assignment {
	return &models.Assignment{
		Topic:        "Photosynthesis",
		Author:       "AI Research Assistant",
		Date:         "March 3, 2025",
		Introduction: "Plants turn light into sugar.",
		MainSections: []models.Section{
			{Title: "Light Reactions", Content: "Thylakoids & water splitting."},
			{Title: "Calvin Cycle", Content: "Carbon fixation <RuBisCO>.\n\nSecond paragraph."},
		},
		Conclusion: "Life depends on it.",
		Sources:    []string{"Wikipedia: Photosynthesis - https://en.wikipedia.org/wiki/Photosynthesis"},
		ToolsUsed:  []string{"wikipedia"},
	}
}

func TestWriteText_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleAssignment()))
	out := buf.String()

	order := []string{
		"# Photosynthesis\n",
		"Written by: AI Research Assistant\n",
		"Date: March 3, 2025\n",
		"## Introduction\n\nPlants turn light into sugar.",
		"## 1. Light Reactions\n",
		"## 2. Calvin Cycle\n",
		"## Conclusion\n\nLife depends on it.",
		"## Sources\n\n1. Wikipedia: Photosynthesis - https://en.wikipedia.org/wiki/Photosynthesis\n",
		"## Tools Used\n\nwikipedia\n",
	}
	last := -1
	for _, want := range order {
		idx := strings.Index(out, want)
		require.GreaterOrEqual(t, idx, 0, "missing %q", want)
		assert.Greater(t, idx, last, "out of order: %q", want)
		last = idx
	}
}

func TestWriteText_OmitsEmptyLists(t *testing.T) {
	a := sampleAssignment()
	a.Sources = nil
	a.ToolsUsed = nil

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, a))
	assert.NotContains(t, buf.String(), "## Sources")
	assert.NotContains(t, buf.String(), "## Tools Used")
}

func TestWriteReport(t *testing.T) {
	generated := time.Date(2025, 3, 3, 14, 5, 6, 0, time.UTC)
	facts := []research.Fact{
		{Query: "Photosynthesis", URL: "https://en.wikipedia.org/wiki/Photosynthesis", Length: 1200},
		{Query: "Photosynthesis history", URL: "https://en.wikipedia.org/wiki/Photosynthesis_history", Length: 300},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Report{Assignment: sampleAssignment(), Facts: facts, GeneratedAt: generated}))
	out := buf.String()

	assert.Contains(t, out, "## Sources\n\n1. Wikipedia: Photosynthesis")
	assert.Contains(t, out, "Tools Used: wikipedia\n")
	assert.Contains(t, out, "Wikipedia Articles Researched: 2\n")
	assert.Contains(t, out, "Total Research Content: 1500 characters\n")
	assert.Contains(t, out, "Generated: 2025-03-03 14:05:06\n")
	assert.Contains(t, out, "**Photosynthesis history**: 300 characters from https://en.wikipedia.org/wiki/Photosynthesis_history\n")
	assert.Contains(t, out, "All facts should be verified against the listed Wikipedia sources.")
	assert.NotContains(t, out, "## Tools Used")
}

func TestWriteReport_NoSources(t *testing.T) {
	a := sampleAssignment()
	a.Sources = nil

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Report{Assignment: a}))
	out := buf.String()

	assert.Contains(t, out, "No Wikipedia sources were successfully captured")
	assert.Contains(t, out, "NO WIKIPEDIA SOURCES WERE CAPTURED")
	assert.Contains(t, out, "Wikipedia Articles Researched: 0\n")
	assert.NotContains(t, out, "## Research Sources Detail")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleAssignment()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Photosynthesis</title>")
	assert.Contains(t, out, "<h1>Photosynthesis</h1>")
	assert.Contains(t, out, "<h2>1. Light Reactions</h2>")
	assert.Contains(t, out, "&amp;")
	assert.NotContains(t, out, "<RuBisCO>")
}

func TestWritePDF(t *testing.T) {
	a := sampleAssignment()
	a.MainSections[0].Content = strings.Repeat("A long paragraph about chlorophyll – with a dash. ", 400)

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, a))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	// One "/Type /Pages" tree node plus at least two page objects.
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("/Type /Page")), 2)
}

func TestWriteDOCX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDOCX(&buf, sampleAssignment()))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(body)
	}
	require.Contains(t, files, "[Content_Types].xml")
	require.Contains(t, files, "word/styles.xml")
	doc := files["word/document.xml"]

	for _, style := range []string{`w:val="Title"`, `w:val="Subtitle"`, `w:val="Heading1"`, `w:val="Heading2"`, `w:val="center"`} {
		assert.Contains(t, doc, style)
	}
	assert.Contains(t, doc, ">Photosynthesis<")
	assert.Contains(t, doc, "Written by: AI Research Assistant")
	assert.Contains(t, doc, "Thylakoids &amp; water splitting.")
	assert.Contains(t, doc, "Carbon fixation &lt;RuBisCO")
	assert.Contains(t, doc, ">Second paragraph.<")
	assert.Contains(t, doc, "1. Wikipedia: Photosynthesis - https://en.wikipedia.org/wiki/Photosynthesis")

	order := []string{">Photosynthesis<", ">Introduction<", "1. Light Reactions", "2. Calvin Cycle", ">Conclusion<", ">Sources<", ">Tools Used<"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(doc, marker)
		require.Greater(t, idx, last, marker)
		last = idx
	}
}

func TestWriteDOCX_DropsControlRunes(t *testing.T) {
	a := sampleAssignment()
	a.Introduction = "bell\x07 and form\x0c feed"
	var buf bytes.Buffer
	require.NoError(t, WriteDOCX(&buf, a))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		assert.Contains(t, string(body), "bell and form feed")
		return
	}
	t.Fatal("word/document.xml missing")
}

func TestParseFormat(t *testing.T) {
	for _, raw := range []string{"txt", "PDF", ".docx", " html "} {
		_, err := ParseFormat(raw)
		assert.NoError(t, err, raw)
	}
	_, err := ParseFormat("odt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "docx", FormatDOCX.Extension())
	assert.ErrorIs(t, Render(io.Discard, Format("odt"), sampleAssignment()), ErrUnsupportedFormat)
}

type recordingMirror struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *recordingMirror) Upload(_ context.Context, key string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return m.err
}

func TestService_WriteFile(t *testing.T) {
	dir := t.TempDir()
	mirror := &recordingMirror{}
	svc := NewService(dir, mirror, nil)

	path, err := svc.WriteFile(context.Background(), "assignment.txt", FormatText, sampleAssignment())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "assignment.txt"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "# Photosynthesis\n"))
	assert.Equal(t, []string{"assignment.txt"}, mirror.keys)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestService_MirrorFailureIsNotFatal(t *testing.T) {
	svc := NewService(t.TempDir(), &recordingMirror{err: errors.New("bucket gone")}, nil)
	_, err := svc.WriteFile(context.Background(), "assignment.html", FormatHTML, sampleAssignment())
	assert.NoError(t, err)
}

func TestService_ConcurrentWritesSamePath(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.WriteFile(context.Background(), "assignment.docx", FormatDOCX, sampleAssignment())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	body, err := os.ReadFile(filepath.Join(dir, "assignment.docx"))
	require.NoError(t, err)
	_, err = zip.NewReader(bytes.NewReader(body), int64(len(body)))
	assert.NoError(t, err)
}

func TestService_PathStripsDirectories(t *testing.T) {
	svc := NewService("/out", nil, nil)
	assert.Equal(t, filepath.Join("/out", "passwd"), svc.Path("../../etc/passwd"))
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mx-space/scribe/internal/models"
	"github.com/mx-space/scribe/internal/modules/assignment"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResearchDepth(t *testing.T) {
	tests := []struct {
		words int
		want  string
	}{
		{0, "Low"},
		{1000, "Low"},
		{1001, "Medium"},
		{1500, "Medium"},
		{1501, "High"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, researchDepth(tt.words), tt.words)
	}
}

func TestWriteSummary(t *testing.T) {
	res := &assignment.Result{
		Assignment: &models.Assignment{
			Topic:        "Photosynthesis",
			Introduction: strings.Repeat("word ", 700),
			MainSections: []models.Section{{Title: "A", Content: strings.Repeat("word ", 400)}, {Title: "B"}},
			Conclusion:   "done",
			Sources:      []string{"Wikipedia: Photosynthesis - https://en.wikipedia.org/wiki/Photosynthesis"},
		},
		ReportPath: "/tmp/assignment.txt",
	}

	var buf bytes.Buffer
	writeSummary(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "Topic: Photosynthesis\n")
	assert.Contains(t, out, "Total Word Count: ~1101 words\n")
	assert.Contains(t, out, "Sections: 2\n")
	assert.Contains(t, out, "Sources: 1\n")
	assert.Contains(t, out, "Research Depth: Medium\n")
	assert.Contains(t, out, "Saved to /tmp/assignment.txt\n")
}

func TestPromptTopic(t *testing.T) {
	var out bytes.Buffer
	topic, err := promptTopic(strings.NewReader("  Black holes \n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "Black holes", topic)
	assert.Equal(t, "Enter the topic for the assignment: ", out.String())

	_, err = promptTopic(strings.NewReader("\n"), &out)
	assert.ErrorIs(t, err, assignment.ErrEmptyTopic)

	topic, err = promptTopic(strings.NewReader("no newline"), &out)
	require.NoError(t, err)
	assert.Equal(t, "no newline", topic)
}

func TestLoadConfig_DefaultFlagWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Addr())

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	require.NoError(t, cmd.Flags().Set("config", "missing.yml"))
	_, err = loadConfig(cmd)
	assert.Error(t, err)
}

package ai

import (
	"fmt"
	"strings"
)

const (
	// DateLayout is the date format the assignment carries.
	DateLayout = "January 2, 2006"

	researchSystemPrompt = `Role: Thorough academic researcher.

## Task
Conduct comprehensive Wikipedia research on the topic "%s".

## Research strategy
1. Start with the main topic on Wikipedia
2. Research 4-5 related subtopics or aspects
3. Look for specific examples, case studies, and real-world applications
4. Find historical context and recent developments
5. Research different perspectives and controversies

## Areas to cover
- Main concept and definitions
- Historical development and key milestones
- Current applications and examples
- Different perspectives or schools of thought
- Recent developments and future trends
- Specific case studies or notable examples

Take detailed notes.`

	writingSystemPrompt = `Role: Expert academic writer creating a comprehensive university-level assignment.

CRITICAL: You MUST respond with ONLY a valid JSON object. No other text, no explanations, no markdown formatting.

## Requirements
- Base every claim on the Wikipedia research notes provided
- University-level depth and analysis
- Each section should be 300-400 words
- Specific examples, dates, names, and case studies from the research
- Formal academic tone
- Multiple perspectives and critical analysis

## Output JSON Format
Your response must be EXACTLY this structure with no additional text:
{
  "topic": "The exact topic provided",
  "author": "%s",
  "date": "%s",
  "introduction": "A comprehensive introduction that defines key terms, provides context, and outlines the assignment. Should be 150-200 words.",
  "main_sections": [
%s
  ],
  "conclusion": "A comprehensive conclusion that synthesizes insights, discusses implications, and suggests future directions. Should be 150-200 words.",
  "sources": [],
  "tools_used": ["wikipedia"]
}

RESPOND WITH ONLY THE JSON OBJECT. NO OTHER TEXT BEFORE OR AFTER.`

	sectionTemplate = `    {
      "title": "%s Section Title",
      "content": "Detailed content for this section (300-400 words) with specific examples and analysis based on the research."
    }`
)

var ordinals = []string{"First", "Second", "Third", "Fourth", "Fifth", "Sixth", "Seventh", "Eighth", "Ninth", "Tenth"}

// BuildResearchPrompt returns the strategy guiding the research stage.
func BuildResearchPrompt(topic string) string {
	return fmt.Sprintf(researchSystemPrompt, topic)
}

// BuildWritingPrompt returns the system and user prompts of the writing stage.
func BuildWritingPrompt(topic, author, date string, sections int, notes string) (string, string) {
	if sections < 1 {
		sections = 4
	}
	items := make([]string, 0, sections)
	for i := 0; i < sections; i++ {
		label := fmt.Sprintf("Section %d", i+1)
		if i < len(ordinals) {
			label = ordinals[i]
		}
		items = append(items, fmt.Sprintf(sectionTemplate, label))
	}
	systemPrompt := fmt.Sprintf(writingSystemPrompt, author, date, strings.Join(items, ",\n"))

	var user strings.Builder
	user.WriteString("## Research notes\n\n")
	if strings.TrimSpace(notes) == "" {
		user.WriteString("(no research notes were collected)\n")
	} else {
		user.WriteString(notes)
		user.WriteString("\n")
	}
	user.WriteString("\nBased on your research, write a comprehensive academic assignment on: ")
	user.WriteString(topic)
	return systemPrompt, user.String()
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Section is one titled body part of an assignment, in presentation order.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Assignment is the structured document produced by the writing stage.
type Assignment struct {
	Topic        string    `json:"topic"`
	Author       string    `json:"author"`
	Date         string    `json:"date"`
	Introduction string    `json:"introduction"`
	MainSections []Section `json:"main_sections"`
	Conclusion   string    `json:"conclusion"`
	Sources      []string  `json:"sources"`
	ToolsUsed    []string  `json:"tools_used"`
}

// WordCount counts the words of the introduction, sections and conclusion.
func (a *Assignment) WordCount() int {
	total := len(strings.Fields(a.Introduction))
	for _, s := range a.MainSections {
		total += len(strings.Fields(s.Content))
	}
	return total + len(strings.Fields(a.Conclusion))
}

// AssignmentRecord persists every generated assignment; the latest row is the
// current one.
type AssignmentRecord struct {
	RunID     string        `json:"run_id"  gorm:"type:char(36);primaryKey"`
	Topic     string        `json:"topic"   gorm:"size:512;not null"`
	Sources   []string      `json:"sources" gorm:"type:longtext;serializer:json"`
	Payload   string        `json:"payload" gorm:"type:longtext;not null"`
	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created" gorm:"index"`
}

func (AssignmentRecord) TableName() string { return "assignments" }

// BeforeCreate gives records saved outside a pipeline run their own id.
func (r *AssignmentRecord) BeforeCreate(*gorm.DB) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	return nil
}

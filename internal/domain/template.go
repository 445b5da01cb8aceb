package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// QuestionInputType enumerates supported question widgets.
type QuestionInputType string

const (
	InputTypeText      QuestionInputType = "TEXT"
	InputTypeParagraph QuestionInputType = "PARAGRAPH"
	InputTypeBoolean   QuestionInputType = "BOOLEAN"
	InputTypeDate      QuestionInputType = "DATE"
)

// Question defines one entry of a template's dynamic form schema.
type Question struct {
	ID         string
	TemplateID string
	Label      string
	InputType  QuestionInputType
	Required   bool
	Position   int
	CreatedAt  time.Time
}

// RequestTemplate is the schema a request's answers must satisfy, plus the
// tracker configuration used for external issue sync.
type RequestTemplate struct {
	ID             string
	Dataspace      string
	Name           string
	Description    string
	IssueTrackerID string
	Questions      []Question
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateAnswers checks submitted answers against the template schema:
// every required question must be answered and every answer must reference
// a label defined by the template.
func (t *RequestTemplate) ValidateAnswers(answers Answers) error {
	known := make(map[string]Question, len(t.Questions))
	for _, q := range t.Questions {
		known[q.Label] = q
	}
	for label := range answers {
		if _, ok := known[label]; !ok {
			return fmt.Errorf("answer references unknown question %q", label)
		}
	}
	for _, q := range t.Questions {
		if !q.Required {
			continue
		}
		if strings.TrimSpace(answers[q.Label]) == "" {
			return fmt.Errorf("question %q requires an answer", q.Label)
		}
	}
	return nil
}

// SortedQuestions returns questions ordered by position.
func (t *RequestTemplate) SortedQuestions() []Question {
	sorted := make([]Question, len(t.Questions))
	copy(sorted, t.Questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}

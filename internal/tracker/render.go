package tracker

import (
	"strings"

	"github.com/complykit/request-service/internal/domain"
)

// headingMarker starts heading lines in rendered issue bodies. Platforms
// with structured document formats key off it when converting.
const headingMarker = "### "

// RenderInput bundles the request fields and resolved display values that
// make up a remote issue document.
type RenderInput struct {
	Request   *domain.Request
	Template  *domain.RequestTemplate
	Requester string
	Assignee  string
	Permalink string
}

// RenderTitle produces the remote issue title: a constant prefix followed by
// the request title. Repeated calls on the same request yield the same value.
func RenderTitle(prefix, title string) string {
	return prefix + " " + title
}

// RenderBody produces the remote issue body: an ordered sequence of
// heading+value blocks covering the request metadata followed by every
// answered template question. Boolean answers render as Yes/No.
func RenderBody(in RenderInput) string {
	var b strings.Builder

	writeBlock(&b, "Template", in.Template.Name)
	writeBlock(&b, "Submitted by", in.Requester)
	assignee := in.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}
	writeBlock(&b, "Assigned to", assignee)
	priority := "None"
	if in.Request.Priority != nil {
		priority = string(*in.Request.Priority)
	}
	writeBlock(&b, "Priority", priority)
	if strings.TrimSpace(in.Request.Notes) != "" {
		writeBlock(&b, "Notes", in.Request.Notes)
	}
	if in.Permalink != "" {
		writeBlock(&b, "Reference", in.Permalink)
	}

	for _, q := range in.Template.SortedQuestions() {
		value, ok := in.Request.Answers[q.Label]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		writeBlock(&b, q.Label, formatAnswer(q, value))
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeBlock(b *strings.Builder, label, value string) {
	b.WriteString(headingMarker)
	b.WriteString(label)
	b.WriteString("\n")
	b.WriteString(value)
	b.WriteString("\n\n")
}

func formatAnswer(q domain.Question, value string) string {
	if q.InputType != domain.InputTypeBoolean {
		return value
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1":
		return "Yes"
	default:
		return "No"
	}
}

// ABOUTME: Formats backend query responses for terminal display
// ABOUTME: Handles sub-answer sections, citations, and clarification prompts

package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/grimoire/internal/ragapi"
)

// Response formats a full query response for the terminal. Multi-question
// responses get one numbered section per sub-answer; single-question
// responses render the answer directly.
func (r *Renderer) Response(resp *ragapi.QueryResponse) string {
	if resp == nil {
		return ""
	}

	var b strings.Builder

	if resp.Status == ragapi.StatusFailure && len(resp.SubAnswers) == 0 {
		msg := resp.ErrorMessage
		if msg == "" {
			msg = "request failed"
		}
		return color.New(color.FgRed).Sprint(msg)
	}

	multi := len(resp.SubAnswers) > 1
	for i, sub := range resp.SubAnswers {
		if multi {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(r.heading.Sprintf("[%d] %s", i+1, sub.Query))
			b.WriteString("\n")
		}
		r.subAnswer(&b, &sub)
	}

	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) subAnswer(b *strings.Builder, sub *ragapi.SubAnswer) {
	switch sub.Status {
	case ragapi.SubStatusFailed:
		msg := sub.Answer
		if msg == "" {
			msg = "failed"
		}
		b.WriteString(color.New(color.FgRed).Sprint(msg))
		b.WriteString("\n")

	case ragapi.SubStatusClarificationRequired:
		question := sub.ClarificationQuestion
		if question == "" {
			question = "The backend needs clarification to answer this question."
		}
		b.WriteString(color.New(color.FgYellow).Sprint(question))
		b.WriteString("\n")

	default:
		if sub.Answer != "" {
			b.WriteString(r.Markdown(sub.Answer))
			b.WriteString("\n")
		}
		if len(sub.Citations) > 0 {
			b.WriteString(r.Citations(sub.Citations))
		}
		if sub.Confidence > 0 {
			b.WriteString(r.dim.Sprintf("confidence: %.2f", sub.Confidence))
			b.WriteString("\n")
		}
	}
}

// Citations formats source citations as dim footnote lines.
func (r *Renderer) Citations(citations []ragapi.Citation) string {
	var b strings.Builder
	for i, c := range citations {
		ref := c.Source
		if c.Page > 0 {
			ref = fmt.Sprintf("%s, p.%d", ref, c.Page)
		}
		line := fmt.Sprintf("  [%d] %s", i+1, ref)
		if c.Snippet != "" {
			line += ": " + truncate(c.Snippet, 120)
		}
		b.WriteString(r.dim.Sprint(line))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}

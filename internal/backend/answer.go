// ABOUTME: Answerer abstraction and the built-in demo answer generator
// ABOUTME: Produces deterministic answers with synthetic citations

package backend

import (
	"context"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"

	"github.com/2389/grimoire/internal/ragapi"
)

// Answerer produces an answer for a single decomposed question. The
// built-in implementation fabricates deterministic answers; a real
// deployment would put a retrieval pipeline behind this interface.
type Answerer interface {
	Answer(ctx context.Context, question, pdfPath string) (*ragapi.SubAnswer, error)
}

// DemoAnswerer generates canned answers derived from the question text.
// Output is deterministic so tests and demos are reproducible.
type DemoAnswerer struct{}

func (DemoAnswerer) Answer(_ context.Context, question, pdfPath string) (*ragapi.SubAnswer, error) {
	source := "sample.pdf"
	if pdfPath != "" {
		source = filepath.Base(pdfPath)
	}

	h := fnv.New32a()
	h.Write([]byte(question))
	seed := h.Sum32()

	page := int(seed%40) + 1
	confidence := 0.6 + float64(seed%35)/100.0

	topic := strings.TrimRight(strings.TrimSpace(question), "?.")
	answer := fmt.Sprintf(
		"Based on the indexed document, here is what was found for **%s**:\n\n"+
			"The relevant passages indicate the document addresses this on page %d. "+
			"See the citation below for the supporting excerpt.",
		topic, page,
	)

	return &ragapi.SubAnswer{
		Query:      question,
		Status:     ragapi.SubStatusAnswered,
		Answer:     answer,
		Reasoning:  fmt.Sprintf("Matched %d passage(s) against %q with cosine retrieval.", int(seed%3)+1, topic),
		Confidence: confidence,
		Citations: []ragapi.Citation{
			{
				DocID:   fmt.Sprintf("doc-%04x", seed%0xffff),
				Source:  source,
				Page:    page,
				ChunkID: fmt.Sprintf("%d", seed%200),
				Snippet: fmt.Sprintf("...excerpt relevant to %q...", topic),
			},
		},
	}, nil
}

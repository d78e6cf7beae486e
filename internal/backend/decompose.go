// ABOUTME: Rule-based prompt decomposition into individual sub-queries
// ABOUTME: Splits on question marks, numbered lists, and light conjunctions

package backend

import (
	"regexp"
	"strings"
)

// MaxSubQueries caps how many questions one prompt may carry.
const MaxSubQueries = 3

var (
	numberedLineRe = regexp.MustCompile(`^\s*\d+[\.\)\-]\s*(.+)$`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	questionRe     = regexp.MustCompile(`\?+`)
	conjunctionRe  = regexp.MustCompile(`(?i)\b(?:and also|also|additionally)\b`)
)

// SplitQueries breaks a prompt into individual questions without an LLM.
// Numbered list lines are captured first, then the prompt is split on
// question marks and light conjunctions. Duplicates are dropped while
// preserving order.
func SplitQueries(prompt string) []string {
	if strings.TrimSpace(prompt) == "" {
		return nil
	}

	var numbered []string
	for _, line := range strings.Split(prompt, "\n") {
		if m := numberedLineRe.FindStringSubmatch(line); m != nil {
			if q := strings.TrimSpace(m[1]); q != "" {
				numbered = append(numbered, q)
			}
		}
	}

	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(prompt, " "))

	var subQueries []string
	for _, part := range questionRe.Split(normalized, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for _, chunk := range conjunctionRe.Split(part, -1) {
			chunk = strings.Trim(chunk, " ,;")
			if chunk != "" {
				subQueries = append(subQueries, chunk)
			}
		}
	}

	seen := make(map[string]bool)
	var result []string
	for _, q := range append(numbered, subQueries...) {
		if !seen[q] {
			seen[q] = true
			result = append(result, q)
		}
	}
	return result
}

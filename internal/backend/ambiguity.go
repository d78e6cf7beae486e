// ABOUTME: Heuristic ambiguity detection for decomposed sub-queries
// ABOUTME: Flags questions with vague references or no identifiable subject

package backend

import (
	"strings"
)

// vague leading references that usually need an antecedent the backend
// doesn't have
var vagueOpeners = []string{
	"what about", "how about", "and the", "what of",
}

var vaguePronouns = map[string]bool{
	"it": true, "this": true, "that": true, "they": true, "them": true,
	"these": true, "those": true,
}

// CheckAmbiguity decides whether a sub-query needs clarification before
// it can be answered. Returns the clarification question to ask, or an
// empty string when the query is clear enough to answer.
func CheckAmbiguity(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "Could you please clarify your question?"
	}

	words := strings.Fields(q)
	if len(words) < 3 {
		return "Could you expand on what you'd like to know about \"" + strings.TrimSpace(query) + "\"?"
	}

	for _, opener := range vagueOpeners {
		if strings.HasPrefix(q, opener) {
			return "Could you be more specific about \"" + strings.TrimSpace(query) + "\"? What aspect are you asking about?"
		}
	}

	// A query whose only noun-ish words are pronouns has no subject to
	// retrieve against.
	pronounCount := 0
	for _, w := range words {
		if vaguePronouns[strings.Trim(w, ",.;:")] {
			pronounCount++
		}
	}
	if pronounCount > 0 && len(words) <= 5 {
		return "What does \"" + strings.TrimSpace(query) + "\" refer to?"
	}

	return ""
}

// ABOUTME: Wire types for the RAG backend query API.
// ABOUTME: QueryResponse, SubAnswer, Citation and their status enums.

package ragapi

// Status is the top-level outcome of a query turn.
type Status string

const (
	StatusAnswered              Status = "answered"
	StatusPartial               Status = "partial"
	StatusClarificationRequired Status = "clarification_required"
	StatusFailure               Status = "failure"
)

// Known reports whether the status is one the client understands.
// Unknown values are carried through untouched so a newer backend
// doesn't break older clients.
func (s Status) Known() bool {
	switch s {
	case StatusAnswered, StatusPartial, StatusClarificationRequired, StatusFailure:
		return true
	default:
		return false
	}
}

// SubStatus is the outcome of a single decomposed sub-query.
type SubStatus string

const (
	SubStatusAnswered              SubStatus = "answered"
	SubStatusFailed                SubStatus = "failed"
	SubStatusClarificationRequired SubStatus = "clarification_required"
	SubStatusProcessing            SubStatus = "processing"
)

// Citation points at a retrieved chunk backing an answer. All fields are
// optional; citations carry no identity semantics on the client.
type Citation struct {
	DocID   string `json:"doc_id,omitempty"`
	Source  string `json:"source,omitempty"`
	Page    int    `json:"page,omitempty"`
	ChunkID string `json:"chunk_id,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// SubAnswer is one answer unit for a single decomposed question extracted
// from a multi-question prompt.
type SubAnswer struct {
	Query                 string     `json:"query"`
	Status                SubStatus  `json:"status"`
	Answer                string     `json:"answer,omitempty"`
	Reasoning             string     `json:"reasoning,omitempty"`
	Citations             []Citation `json:"citations"`
	Confidence            float64    `json:"confidence,omitempty"`
	ClarificationQuestion string     `json:"clarification_question,omitempty"`
}

// QueryResponse is the structured response for a query or clarification
// turn. The backend never returns a raw string.
type QueryResponse struct {
	ConversationID string      `json:"conversation_id"`
	Status         Status      `json:"status"`
	SubAnswers     []SubAnswer `json:"sub_answers"`
	ErrorMessage   string      `json:"error_message,omitempty"`
}

// DisplayContent returns the text a chat surface should render for this
// response: the first sub-answer's answer if the list is non-empty, else
// the empty string. Malformed responses (empty sub_answers on a
// non-failure status) are tolerated by the empty-string fallback.
func (r *QueryResponse) DisplayContent() string {
	if len(r.SubAnswers) == 0 {
		return ""
	}
	return r.SubAnswers[0].Answer
}

// FirstClarification returns the index and question of the first
// sub-answer awaiting clarification, or (-1, "") if none is pending.
func (r *QueryResponse) FirstClarification() (int, string) {
	for i, sa := range r.SubAnswers {
		if sa.Status == SubStatusClarificationRequired {
			return i, sa.ClarificationQuestion
		}
	}
	return -1, ""
}

// QueryRequest is the JSON body for POST /api/query.
type QueryRequest struct {
	Prompt         string `json:"prompt"`
	ConversationID string `json:"conversation_id,omitempty"`
	PDFPath        string `json:"pdf_path,omitempty"`
}

// ClarificationRequest is the JSON body for POST /api/clarify.
type ClarificationRequest struct {
	ConversationID   string `json:"conversation_id"`
	ClarificationFor int    `json:"clarification_for"`
	Answer           string `json:"answer"`
}

// ConversationEntry is the server-side conversation state returned by
// GET /api/conversation/{id}.
type ConversationEntry struct {
	ConversationID               string      `json:"conversation_id"`
	OriginalPrompt               string      `json:"original_prompt"`
	PendingClarificationIndex    *int        `json:"pending_clarification_index,omitempty"`
	PendingClarificationQuestion string      `json:"pending_clarification_question,omitempty"`
	SubQueries                   []string    `json:"sub_queries"`
	CompletedSubAnswers          []SubAnswer `json:"completed_sub_answers"`
}

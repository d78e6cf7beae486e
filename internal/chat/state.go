// ABOUTME: Conversation state and pure message-log transforms.
// ABOUTME: Append-only ChatMessage log with resolve/fail terminal transitions.

package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/2389/grimoire/internal/ragapi"
)

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn entry. Messages are immutable once
// appended except for the single resolve/fail transition of an assistant
// placeholder.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	IsLoading bool
	Response  *ragapi.QueryResponse
}

// State is the whole conversation state for one session. All transforms
// are pure: they return a new State computed from the previous one, so
// interleaved request completions compose safely under whole-state
// replacement.
type State struct {
	Messages []Message

	// ConversationID is set only from a server-supplied value, never
	// minted client-side, and persists until Clear.
	ConversationID string

	// PendingClarificationIndex is the index of the first sub-answer
	// awaiting clarification in the latest resolved response, or -1 when
	// no clarification is pending.
	PendingClarificationIndex int
}

// NewState returns the empty initial state.
func NewState() State {
	return State{PendingClarificationIndex: -1}
}

// HasPendingClarification reports whether the latest resolved response
// left a clarification handshake open.
func (s State) HasPendingClarification() bool {
	return s.PendingClarificationIndex >= 0
}

// AppendUser appends a user message with a fresh id and returns the new
// state and the id.
func (s State) AppendUser(content string) (State, string) {
	id := uuid.New().String()
	next := s.clone()
	next.Messages = append(next.Messages, Message{
		ID:        id,
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	})
	return next, id
}

// AppendLoading appends an assistant placeholder awaiting a response and
// returns the new state and the placeholder id. Each dispatched request
// targets exactly the placeholder it created, by id.
func (s State) AppendLoading() (State, string) {
	id := uuid.New().String()
	next := s.clone()
	next.Messages = append(next.Messages, Message{
		ID:        id,
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		IsLoading: true,
	})
	return next, id
}

// Resolve attaches a backend response to the message with the given id,
// ends its loading state, and recomputes the session pointers. Display
// content is the first sub-answer's answer if the list is non-empty, else
// the empty string. A missing id (e.g. after Clear) is a silent no-op.
func (s State) Resolve(id string, resp *ragapi.QueryResponse) State {
	idx := s.indexOf(id)
	if idx < 0 {
		return s
	}

	next := s.clone()
	msg := next.Messages[idx]
	msg.IsLoading = false
	msg.Response = resp
	msg.Content = resp.DisplayContent()
	next.Messages[idx] = msg

	// Session derivation runs on every resolve.
	next.ConversationID = resp.ConversationID
	next.PendingClarificationIndex = -1
	if resp.Status == ragapi.StatusClarificationRequired {
		// A clarification_required response without a matching sub-answer
		// is inconsistent but tolerated: no pending index is set.
		if i, _ := resp.FirstClarification(); i >= 0 {
			next.PendingClarificationIndex = i
		}
	}
	return next
}

// Fail marks the message with the given id as failed, synthesizing a
// failure response with a single failed sub-answer carrying the error
// text. A missing id is a silent no-op.
func (s State) Fail(id, errorText string) State {
	idx := s.indexOf(id)
	if idx < 0 {
		return s
	}

	next := s.clone()
	msg := next.Messages[idx]
	msg.IsLoading = false
	msg.Response = &ragapi.QueryResponse{
		ConversationID: s.ConversationID,
		Status:         ragapi.StatusFailure,
		SubAnswers: []ragapi.SubAnswer{
			{
				Status:    ragapi.SubStatusFailed,
				Answer:    errorText,
				Citations: []ragapi.Citation{},
			},
		},
	}
	msg.Content = errorText
	next.Messages[idx] = msg
	return next
}

// LastUserContent returns the content of the most recent user-authored
// message, scanning newest to oldest. ok is false when no user message
// exists.
func (s State) LastUserContent() (content string, ok bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}

// indexOf locates a message by id, or -1.
func (s State) indexOf(id string) int {
	for i, m := range s.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// clone copies the state with a fresh message slice so transforms never
// alias the previous state's backing array.
func (s State) clone() State {
	next := s
	next.Messages = make([]Message, len(s.Messages))
	copy(next.Messages, s.Messages)
	return next
}

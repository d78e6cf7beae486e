// ABOUTME: Tests for the pure conversation state transforms.
// ABOUTME: Covers append-only ordering, resolve/fail transitions, and session derivation.

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/grimoire/internal/ragapi"
)

func TestState_AppendUser(t *testing.T) {
	s := NewState()

	s, id1 := s.AppendUser("first")
	s, id2 := s.AppendUser("second")

	require.Len(t, s.Messages, 2)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, RoleUser, s.Messages[0].Role)
	assert.Equal(t, "first", s.Messages[0].Content)
	assert.Equal(t, "second", s.Messages[1].Content)
	assert.False(t, s.Messages[0].IsLoading)
	assert.False(t, s.Messages[0].Timestamp.IsZero())
}

func TestState_AppendLoading(t *testing.T) {
	s := NewState()

	s, id := s.AppendLoading()

	require.Len(t, s.Messages, 1)
	assert.Equal(t, id, s.Messages[0].ID)
	assert.Equal(t, RoleAssistant, s.Messages[0].Role)
	assert.Empty(t, s.Messages[0].Content)
	assert.True(t, s.Messages[0].IsLoading)
}

func TestState_TransformsDoNotMutateReceiver(t *testing.T) {
	s := NewState()
	s, _ = s.AppendUser("hello")

	before := len(s.Messages)
	_, _ = s.AppendLoading()

	assert.Len(t, s.Messages, before, "AppendLoading mutated the previous state")
}

func TestState_Resolve_SetsContentFromFirstSubAnswer(t *testing.T) {
	s := NewState()
	s, id := s.AppendLoading()

	resp := &ragapi.QueryResponse{
		ConversationID: "conv-1",
		Status:         ragapi.StatusAnswered,
		SubAnswers: []ragapi.SubAnswer{
			{Query: "What is HyDE?", Status: ragapi.SubStatusAnswered, Answer: "HyDE generates a hypothetical document..."},
			{Query: "second", Status: ragapi.SubStatusAnswered, Answer: "ignored for display"},
		},
	}
	s = s.Resolve(id, resp)

	msg := s.Messages[0]
	assert.False(t, msg.IsLoading)
	assert.Equal(t, "HyDE generates a hypothetical document...", msg.Content)
	assert.Same(t, resp, msg.Response)
	assert.Equal(t, "conv-1", s.ConversationID)
	assert.False(t, s.HasPendingClarification())
}

func TestState_Resolve_EmptySubAnswersFallsBackToEmptyContent(t *testing.T) {
	s := NewState()
	s, id := s.AppendLoading()

	s = s.Resolve(id, &ragapi.QueryResponse{
		ConversationID: "conv-1",
		Status:         ragapi.StatusAnswered,
	})

	assert.Empty(t, s.Messages[0].Content)
	assert.False(t, s.Messages[0].IsLoading)
}

func TestState_Resolve_UnknownIDIsNoOp(t *testing.T) {
	s := NewState()
	s, _ = s.AppendUser("hello")

	next := s.Resolve("no-such-id", &ragapi.QueryResponse{ConversationID: "conv-1"})

	assert.Equal(t, s, next)
	assert.Empty(t, next.ConversationID, "orphaned resolve must not touch session pointers")
}

func TestState_Resolve_Idempotent(t *testing.T) {
	s := NewState()
	s, id := s.AppendLoading()

	resp := &ragapi.QueryResponse{
		ConversationID: "conv-1",
		Status:         ragapi.StatusAnswered,
		SubAnswers:     []ragapi.SubAnswer{{Status: ragapi.SubStatusAnswered, Answer: "forty-two"}},
	}

	once := s.Resolve(id, resp)
	twice := once.Resolve(id, resp)

	assert.Equal(t, once.Messages[0].Content, twice.Messages[0].Content)
	assert.Equal(t, once.ConversationID, twice.ConversationID)
	assert.Equal(t, once.PendingClarificationIndex, twice.PendingClarificationIndex)
}

func TestState_Resolve_ClarificationSetsPendingIndex(t *testing.T) {
	s := NewState()
	s, id := s.AppendLoading()

	s = s.Resolve(id, &ragapi.QueryResponse{
		ConversationID: "conv-1",
		Status:         ragapi.StatusClarificationRequired,
		SubAnswers: []ragapi.SubAnswer{
			{Query: "q1", Status: ragapi.SubStatusAnswered, Answer: "done"},
			{Query: "q2", Status: ragapi.SubStatusClarificationRequired, ClarificationQuestion: "Which year?"},
			{Query: "q3", Status: ragapi.SubStatusClarificationRequired, ClarificationQuestion: "Which region?"},
		},
	})

	assert.True(t, s.HasPendingClarification())
	assert.Equal(t, 1, s.PendingClarificationIndex, "first matching sub-answer wins")
}

func TestState_Resolve_ClarificationWithoutMatchingSubAnswer(t *testing.T) {
	// Inconsistent backend response: top-level clarification_required but
	// no sub-answer in that state. Tolerated, nothing pending.
	s := NewState()
	s, id := s.AppendLoading()

	s = s.Resolve(id, &ragapi.QueryResponse{
		ConversationID: "conv-1",
		Status:         ragapi.StatusClarificationRequired,
		SubAnswers:     []ragapi.SubAnswer{{Query: "q", Status: ragapi.SubStatusAnswered, Answer: "a"}},
	})

	assert.False(t, s.HasPendingClarification())
}

func TestState_Resolve_ClearsPendingIndexOnNextAnswer(t *testing.T) {
	s := NewState()
	s, id := s.AppendLoading()
	s = s.Resolve(id, &ragapi.QueryResponse{
		ConversationID: "conv-1",
		Status:         ragapi.StatusClarificationRequired,
		SubAnswers:     []ragapi.SubAnswer{{Status: ragapi.SubStatusClarificationRequired}},
	})
	require.True(t, s.HasPendingClarification())

	s, id2 := s.AppendLoading()
	s = s.Resolve(id2, &ragapi.QueryResponse{
		ConversationID: "conv-1",
		Status:         ragapi.StatusAnswered,
		SubAnswers:     []ragapi.SubAnswer{{Status: ragapi.SubStatusAnswered, Answer: "resolved"}},
	})

	assert.False(t, s.HasPendingClarification())
}

func TestState_Fail_SynthesizesFailureResponse(t *testing.T) {
	s := NewState()
	s.ConversationID = "conv-1"
	s, id := s.AppendLoading()

	s = s.Fail(id, "timeout")

	msg := s.Messages[0]
	assert.False(t, msg.IsLoading)
	require.NotNil(t, msg.Response)
	assert.Equal(t, ragapi.StatusFailure, msg.Response.Status)
	assert.Equal(t, "conv-1", msg.Response.ConversationID)
	require.Len(t, msg.Response.SubAnswers, 1)
	sa := msg.Response.SubAnswers[0]
	assert.Equal(t, ragapi.SubStatusFailed, sa.Status)
	assert.Equal(t, "timeout", sa.Answer)
	assert.Empty(t, sa.Query)
	assert.NotNil(t, sa.Citations)
	assert.Empty(t, sa.Citations)
}

func TestState_Fail_BeforeAnyConversationUsesEmptyID(t *testing.T) {
	s := NewState()
	s, id := s.AppendLoading()

	s = s.Fail(id, "boom")

	assert.Empty(t, s.Messages[0].Response.ConversationID)
}

func TestState_Fail_UnknownIDIsNoOp(t *testing.T) {
	s := NewState()
	s, _ = s.AppendUser("hello")

	next := s.Fail("gone", "late failure")

	assert.Equal(t, s, next)
}

func TestState_LastUserContent(t *testing.T) {
	s := NewState()

	_, ok := s.LastUserContent()
	assert.False(t, ok)

	s, _ = s.AppendUser("first")
	s, _ = s.AppendLoading()
	s, _ = s.AppendUser("second")
	s, _ = s.AppendLoading()

	content, ok := s.LastUserContent()
	require.True(t, ok)
	assert.Equal(t, "second", content)
}

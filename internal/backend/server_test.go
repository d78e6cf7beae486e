// ABOUTME: HTTP tests for the development backend server
// ABOUTME: Exercises the query, clarify, conversation, and health endpoints

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/grimoire/internal/auth"
	"github.com/2389/grimoire/internal/ragapi"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(DemoAnswerer{}, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postQuery(t *testing.T, ts *httptest.Server, req ragapi.QueryRequest) (*ragapi.QueryResponse, int) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out ragapi.QueryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out, resp.StatusCode
}

func postClarify(t *testing.T, ts *httptest.Server, req ragapi.ClarificationRequest) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/clarify", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestServer_Query_SingleQuestion(t *testing.T) {
	ts := newTestServer(t)

	out, code := postQuery(t, ts, ragapi.QueryRequest{Prompt: "What was the total revenue in 2023?"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, ragapi.StatusAnswered, out.Status)
	assert.NotEmpty(t, out.ConversationID)
	require.Len(t, out.SubAnswers, 1)
	assert.Equal(t, ragapi.SubStatusAnswered, out.SubAnswers[0].Status)
	assert.NotEmpty(t, out.SubAnswers[0].Answer)
	assert.NotEmpty(t, out.SubAnswers[0].Citations)
}

func TestServer_Query_MultiQuestion(t *testing.T) {
	ts := newTestServer(t)

	out, _ := postQuery(t, ts, ragapi.QueryRequest{
		Prompt: "What was the total revenue? Who is the chief executive?",
	})
	assert.Equal(t, ragapi.StatusAnswered, out.Status)
	require.Len(t, out.SubAnswers, 2)
}

func TestServer_Query_ReusesConversationID(t *testing.T) {
	ts := newTestServer(t)

	out, _ := postQuery(t, ts, ragapi.QueryRequest{
		Prompt:         "What was the total revenue in 2023?",
		ConversationID: "conv-fixed",
	})
	assert.Equal(t, "conv-fixed", out.ConversationID)
}

func TestServer_Query_EmptyPrompt(t *testing.T) {
	ts := newTestServer(t)

	out, code := postQuery(t, ts, ragapi.QueryRequest{Prompt: "   "})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, ragapi.StatusFailure, out.Status)
	assert.Equal(t, "no question found in prompt", out.ErrorMessage)
	assert.Empty(t, out.SubAnswers)
}

func TestServer_Query_TooManyQuestions(t *testing.T) {
	ts := newTestServer(t)

	out, _ := postQuery(t, ts, ragapi.QueryRequest{
		Prompt: "Who founded the company? When was it founded in history? Where is the headquarters located? What does the company sell today?",
	})
	assert.Equal(t, ragapi.StatusFailure, out.Status)
	assert.Contains(t, out.ErrorMessage, "fewer questions")
}

func TestServer_ClarificationRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	out, _ := postQuery(t, ts, ragapi.QueryRequest{
		Prompt:         "What about revenue?",
		ConversationID: "conv-1",
	})
	require.Equal(t, ragapi.StatusClarificationRequired, out.Status)
	require.Len(t, out.SubAnswers, 1)
	assert.Equal(t, ragapi.SubStatusClarificationRequired, out.SubAnswers[0].Status)
	assert.NotEmpty(t, out.SubAnswers[0].ClarificationQuestion)

	resp, body := postClarify(t, ts, ragapi.ClarificationRequest{
		ConversationID:   "conv-1",
		ClarificationFor: 0,
		Answer:           "yearly revenue",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var clarified ragapi.QueryResponse
	require.NoError(t, json.Unmarshal(body, &clarified))
	assert.Equal(t, ragapi.StatusAnswered, clarified.Status)
	require.Len(t, clarified.SubAnswers, 1)
	assert.Contains(t, clarified.SubAnswers[0].Query, "yearly revenue")

	// Second clarify has nothing pending
	resp2, body2 := postClarify(t, ts, ragapi.ClarificationRequest{
		ConversationID:   "conv-1",
		ClarificationFor: 0,
		Answer:           "again",
	})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Contains(t, string(body2), "No pending clarification")
}

func TestServer_Clarify_UnknownConversation(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postClarify(t, ts, ragapi.ClarificationRequest{
		ConversationID:   "missing",
		ClarificationFor: 0,
		Answer:           "anything",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Conversation not found")
}

func TestServer_GetConversation(t *testing.T) {
	ts := newTestServer(t)

	postQuery(t, ts, ragapi.QueryRequest{
		Prompt:         "What was the total revenue in 2023?",
		ConversationID: "conv-lookup",
	})

	resp, err := http.Get(ts.URL + "/api/conversation/conv-lookup")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry ragapi.ConversationEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	assert.Equal(t, "conv-lookup", entry.ConversationID)
	assert.Len(t, entry.SubQueries, 1)
	assert.Len(t, entry.CompletedSubAnswers, 1)
}

func TestServer_GetConversation_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/conversation/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report healthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "healthy", report.Overall)
	assert.Equal(t, "grimoire-backend", report.Service)
	assert.NotEmpty(t, report.Checks)
}

func TestServer_AuthRequired(t *testing.T) {
	verifier := auth.NewJWTVerifier([]byte("test-secret"))
	srv := NewServer(DemoAnswerer{}, verifier, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	// No token on an API endpoint
	resp, err := http.Post(ts.URL+"/api/query", "application/json",
		bytes.NewReader([]byte(`{"prompt":"What was the total revenue in 2023?"}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health stays open
	hresp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	hresp.Body.Close()
	assert.Equal(t, http.StatusOK, hresp.StatusCode)

	// Valid token passes
	token, err := verifier.Generate("client-1", time.Hour)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/query",
		bytes.NewReader([]byte(`{"prompt":"What was the total revenue in 2023?"}`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	aresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	aresp.Body.Close()
	assert.Equal(t, http.StatusOK, aresp.StatusCode)
}

func TestServer_WithRAGClient(t *testing.T) {
	ts := newTestServer(t)

	client := ragapi.NewHTTPClient(ts.URL)
	ctx := context.Background()

	resp, err := client.SendQuery(ctx, "What about revenue?", "conv-rt", "")
	require.NoError(t, err)
	require.Equal(t, ragapi.StatusClarificationRequired, resp.Status)

	idx, question := resp.FirstClarification()
	require.Equal(t, 0, idx)
	require.NotEmpty(t, question)

	clarified, err := client.SendClarification(ctx, "conv-rt", idx, "yearly revenue")
	require.NoError(t, err)
	assert.Equal(t, ragapi.StatusAnswered, clarified.Status)

	require.NoError(t, client.Health(ctx))
}

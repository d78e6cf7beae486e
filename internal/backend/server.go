// ABOUTME: HTTP handlers for the development RAG backend
// ABOUTME: Serves /api/query, /api/clarify, /api/conversation, and /health

package backend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/grimoire/internal/auth"
	"github.com/2389/grimoire/internal/ragapi"
)

// Server implements the backend query API against an Answerer. It is
// meant for development and testing; answers come from the configured
// Answerer rather than a real retrieval pipeline.
type Server struct {
	store    *ConversationStore
	answerer Answerer
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// NewServer creates a backend server. A nil verifier disables
// authentication; a nil logger falls back to slog.Default.
func NewServer(answerer Answerer, verifier auth.TokenVerifier, logger *slog.Logger) *Server {
	if answerer == nil {
		answerer = DemoAnswerer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    NewConversationStore(),
		answerer: answerer,
		verifier: verifier,
		logger:   logger.With("component", "backend"),
	}
}

// Handler returns the routed HTTP handler. The health endpoint is
// always open; API endpoints go through auth when a verifier is set.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/query", s.handleQuery)
	api.HandleFunc("/api/clarify", s.handleClarify)
	api.HandleFunc("/api/conversation/", s.handleConversation)

	var apiHandler http.Handler = api
	if s.verifier != nil {
		apiHandler = auth.Middleware(s.verifier)(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/api/", apiHandler)
	return mux
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req ragapi.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	subQueries := SplitQueries(req.Prompt)
	s.logger.Info("query received",
		"conversation_id", conversationID,
		"sub_queries", len(subQueries))

	if len(subQueries) == 0 {
		s.sendJSON(w, http.StatusOK, &ragapi.QueryResponse{
			ConversationID: conversationID,
			Status:         ragapi.StatusFailure,
			SubAnswers:     []ragapi.SubAnswer{},
			ErrorMessage:   "no question found in prompt",
		})
		return
	}
	if len(subQueries) > MaxSubQueries {
		s.sendJSON(w, http.StatusOK, &ragapi.QueryResponse{
			ConversationID: conversationID,
			Status:         ragapi.StatusFailure,
			SubAnswers:     []ragapi.SubAnswer{},
			ErrorMessage:   fmt.Sprintf("please ask fewer questions at a time (max %d)", MaxSubQueries),
		})
		return
	}

	resp := &ragapi.QueryResponse{
		ConversationID: conversationID,
		SubAnswers:     []ragapi.SubAnswer{},
	}
	answered, failed := 0, 0
	clarificationIdx := -1

	for _, q := range subQueries {
		if cq := CheckAmbiguity(q); cq != "" {
			clarificationIdx = len(resp.SubAnswers)
			resp.SubAnswers = append(resp.SubAnswers, ragapi.SubAnswer{
				Query:                 q,
				Status:                ragapi.SubStatusClarificationRequired,
				Citations:             []ragapi.Citation{},
				ClarificationQuestion: cq,
			})
			// Remaining questions wait until the clarification resolves.
			break
		}

		sub, err := s.answerer.Answer(r.Context(), q, req.PDFPath)
		if err != nil {
			failed++
			resp.SubAnswers = append(resp.SubAnswers, ragapi.SubAnswer{
				Query:     q,
				Status:    ragapi.SubStatusFailed,
				Answer:    err.Error(),
				Citations: []ragapi.Citation{},
			})
			continue
		}
		answered++
		resp.SubAnswers = append(resp.SubAnswers, *sub)
	}

	switch {
	case clarificationIdx >= 0:
		resp.Status = ragapi.StatusClarificationRequired
	case failed == 0:
		resp.Status = ragapi.StatusAnswered
	case answered > 0:
		resp.Status = ragapi.StatusPartial
	default:
		resp.Status = ragapi.StatusFailure
	}

	entry := &ragapi.ConversationEntry{
		ConversationID:      conversationID,
		OriginalPrompt:      req.Prompt,
		SubQueries:          subQueries,
		CompletedSubAnswers: completedOf(resp.SubAnswers),
	}
	if clarificationIdx >= 0 {
		idx := clarificationIdx
		entry.PendingClarificationIndex = &idx
		entry.PendingClarificationQuestion = resp.SubAnswers[idx].ClarificationQuestion
	}
	s.store.Save(entry)

	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClarify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req ragapi.ClarificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry := s.store.Get(req.ConversationID)
	if entry == nil {
		s.sendDetail(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if entry.PendingClarificationIndex == nil {
		s.sendDetail(w, http.StatusBadRequest, "No pending clarification for this conversation")
		return
	}

	originalQ := entry.OriginalPrompt
	if len(entry.SubQueries) > 0 && *entry.PendingClarificationIndex < len(entry.SubQueries) {
		originalQ = entry.SubQueries[*entry.PendingClarificationIndex]
	}
	combined := fmt.Sprintf("%s (%s)", originalQ, req.Answer)

	s.logger.Info("clarification received",
		"conversation_id", req.ConversationID,
		"clarification_for", req.ClarificationFor)

	resp := &ragapi.QueryResponse{
		ConversationID: req.ConversationID,
		SubAnswers:     []ragapi.SubAnswer{},
	}

	// Clarified queries skip the ambiguity check.
	sub, err := s.answerer.Answer(r.Context(), combined, "")
	if err != nil {
		resp.Status = ragapi.StatusFailure
		resp.SubAnswers = append(resp.SubAnswers, ragapi.SubAnswer{
			Query:     combined,
			Status:    ragapi.SubStatusFailed,
			Answer:    err.Error(),
			Citations: []ragapi.Citation{},
		})
	} else {
		resp.Status = ragapi.StatusAnswered
		resp.SubAnswers = append(resp.SubAnswers, *sub)
	}

	entry.PendingClarificationIndex = nil
	entry.PendingClarificationQuestion = ""
	entry.CompletedSubAnswers = append(entry.CompletedSubAnswers, completedOf(resp.SubAnswers)...)
	s.store.Save(entry)

	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	conversationID := strings.TrimPrefix(r.URL.Path, "/api/conversation/")
	if conversationID == "" || strings.Contains(conversationID, "/") {
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return
	}

	entry := s.store.Get(conversationID)
	if entry == nil {
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return
	}
	s.sendJSON(w, http.StatusOK, entry)
}

// healthCheck is one named probe in the health report.
type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// healthReport is the JSON body for GET /health.
type healthReport struct {
	Overall   string        `json:"overall"`
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
	Checks    []healthCheck `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	report := healthReport{
		Overall:   "healthy",
		Service:   "grimoire-backend",
		Version:   "1.0.0",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks: []healthCheck{
			{Name: "store", Status: "ok", Message: fmt.Sprintf("%d conversation(s) in memory", s.store.Len())},
			{Name: "answerer", Status: "ok", Message: "answer generator ready"},
		},
	}
	s.sendJSON(w, http.StatusOK, report)
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendDetail writes an error the way FastAPI-style backends do, so the
// client's error extraction sees the same shape in dev and production.
func (s *Server) sendDetail(w http.ResponseWriter, status int, detail string) {
	s.sendJSON(w, status, map[string]string{"detail": detail})
}

func completedOf(subs []ragapi.SubAnswer) []ragapi.SubAnswer {
	completed := []ragapi.SubAnswer{}
	for _, sa := range subs {
		if sa.Status == ragapi.SubStatusAnswered {
			completed = append(completed, sa)
		}
	}
	return completed
}

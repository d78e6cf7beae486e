// Package ragapi defines the wire contract of the RAG backend and an HTTP
// client for it.
//
// # Overview
//
// The backend decomposes a multi-question prompt into sub-queries and
// answers each independently. Every response is a structured QueryResponse
// carrying one SubAnswer per sub-query, never a raw string. When the
// backend needs more information for a sub-query it returns status
// clarification_required and exactly one round trip through /api/clarify
// resumes the conversation.
//
// # Endpoints
//
//   - POST /api/query          run the pipeline for a prompt
//   - POST /api/clarify        answer a pending clarification
//   - GET  /api/conversation/{id}  fetch server-side conversation state
//   - GET  /health             liveness check
//
// # Statuses
//
// Top-level: answered, partial, clarification_required, failure.
// Per sub-answer: answered, failed, clarification_required, processing.
//
// The client performs no schema validation beyond optional-field access;
// unknown statuses pass through so newer backends don't break older
// clients.
package ragapi

// Package backend implements a self-contained development server for
// the document Q&A API the chat client talks to. It mirrors the wire
// contract of the production backend so the client can be developed and
// tested without a retrieval pipeline.
//
// # Endpoints
//
//	POST /api/query             run a prompt, returns QueryResponse
//	POST /api/clarify           answer a pending clarification question
//	GET  /api/conversation/{id} inspect stored conversation state
//	GET  /health                structured health report, always open
//
// # Query Handling
//
// Prompts are decomposed into sub-queries with rule-based splitting
// (question marks, numbered lists, light conjunctions), capped at
// MaxSubQueries. Each sub-query passes a heuristic ambiguity check;
// the first ambiguous one halts processing and turns the response into
// clarification_required, with the pending index persisted so a later
// /api/clarify call can resume.
//
// Answers come from the Answerer interface. DemoAnswerer fabricates
// deterministic answers with synthetic citations; a real deployment
// would put an actual retrieval pipeline behind the same interface.
//
// # Errors
//
// Transport-level errors use a {"detail": ...} JSON body, matching the
// production backend, so client-side error extraction behaves the same
// against both.
package backend

// Package chat implements the conversation orchestration state machine.
//
// # Overview
//
// A conversation is a State: an append-only log of messages plus two
// derived session pointers (the server-assigned conversation id and the
// index of the sub-answer awaiting clarification, if any). State
// transforms are pure functions returning a new State, so concurrent
// request completions compose by whole-state replacement.
//
// Controller is the session object that owns the asynchronous request
// lifecycle. Each submitted turn appends a user message and an assistant
// placeholder, dispatches the request, and resolves or fails exactly the
// placeholder it created, by id. Per-turn states are
// Idle -> InFlight -> {Resolved | Failed}; both terminal states end the
// placeholder's loading state, so no message stays loading forever.
//
// # Clarification handshake
//
// When a resolved response has status clarification_required, the first
// matching sub-answer's index becomes the pending clarification pointer.
// SubmitClarification sends the user's answer for exactly that sub-query
// and is a no-op when nothing is pending.
//
// # Clearing
//
// ClearChat resets the state wholesale. It does not cancel in-flight
// requests: a late resolution targets a message id that no longer exists
// and is tolerated as a silent no-op.
package chat

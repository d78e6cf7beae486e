// Package transcript persists completed chat turns to a local SQLite
// database so past sessions can be browsed after the client exits.
//
// # Data Model
//
// A Session is one backend conversation, keyed by the conversation ID
// the backend assigned. A Turn is one resolved prompt/response pair
// within a session, storing the derived display content alongside the
// raw response JSON for later inspection.
//
// # Recording
//
// SQLiteStore implements the chat package's Recorder interface, so a
// store can be handed directly to the chat controller. Recording is
// observational: failures are logged and never surfaced to the caller,
// and turns without a conversation ID are skipped. The in-memory chat
// state remains the source of truth for the running session.
package transcript

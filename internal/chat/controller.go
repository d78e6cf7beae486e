// ABOUTME: Controller owning the per-conversation request lifecycle.
// ABOUTME: SubmitQuery/SubmitClarification/RetryLast/ClearChat over a ragapi.Client.

package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/2389/grimoire/internal/ragapi"
)

// unknownError is the error text used when a transport failure carries no
// message of its own.
const unknownError = "Unknown error"

// clarificationPrefix is prepended to the user-visible echo of a
// clarification answer.
const clarificationPrefix = "Clarification: "

// Recorder observes terminal turns. Implementations must not block for
// long; recording failures never affect conversation state.
type Recorder interface {
	RecordTurn(ctx context.Context, conversationID, prompt string, resp *ragapi.QueryResponse)
}

// Controller drives one conversation against the backend. It is an
// explicit session object: construct one per conversation, reset it with
// ClearChat. All state mutation happens by whole-state replacement under
// the mutex, so interleaved request completions compose safely.
//
// Multiple turns may be in flight at once; each request is bound to the
// assistant placeholder it created rather than to a global "current
// request" slot, so resolutions never corrupt each other. The single
// Loading flag is advisory backpressure for the presentation layer only.
type Controller struct {
	client   ragapi.Client
	recorder Recorder
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	loading   bool
	lastError string

	// wg tracks in-flight dispatches so tests and shutdown can wait for
	// late completions.
	wg sync.WaitGroup
}

// NewController creates a controller for a fresh conversation. recorder
// may be nil to disable transcript recording.
func NewController(client ragapi.Client, recorder Recorder, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client:   client,
		recorder: recorder,
		logger:   logger.With("component", "chat"),
		state:    NewState(),
	}
}

// State returns a snapshot of the conversation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether the most recently started request has not yet
// completed. Advisory only; it is not an admission-control mechanism.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError returns the transport error text of the most recent failed
// action, or "" if the last action started cleanly.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// HasPendingClarification reports whether the latest resolved response
// left a clarification handshake open.
func (c *Controller) HasPendingClarification() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.HasPendingClarification()
}

// SubmitQuery appends the user prompt and a loading placeholder, then
// dispatches the query asynchronously. The core deliberately permits a
// new query while a clarification is pending; gating that interaction is
// the presentation layer's call.
func (c *Controller) SubmitQuery(ctx context.Context, prompt, pdfPath string) {
	c.mu.Lock()
	c.lastError = ""
	var userID, placeholderID string
	c.state, userID = c.state.AppendUser(prompt)
	c.state, placeholderID = c.state.AppendLoading()
	c.loading = true
	conversationID := c.state.ConversationID
	c.mu.Unlock()

	c.logger.Debug("query submitted",
		"message_id", userID,
		"placeholder_id", placeholderID,
		"conversation_id", conversationID)

	c.dispatch(ctx, placeholderID, prompt, func(ctx context.Context) (*ragapi.QueryResponse, error) {
		return c.client.SendQuery(ctx, prompt, conversationID, pdfPath)
	})
}

// SubmitClarification answers the pending clarification. It is a no-op
// when no conversation id or pending clarification index exists: no state
// mutation, no request.
func (c *Controller) SubmitClarification(ctx context.Context, answer string) {
	c.mu.Lock()
	if c.state.ConversationID == "" || !c.state.HasPendingClarification() {
		c.mu.Unlock()
		return
	}
	c.lastError = ""
	conversationID := c.state.ConversationID
	subIndex := c.state.PendingClarificationIndex
	prompt := clarificationPrefix + answer
	var placeholderID string
	c.state, _ = c.state.AppendUser(prompt)
	c.state, placeholderID = c.state.AppendLoading()
	c.loading = true
	c.mu.Unlock()

	c.logger.Debug("clarification submitted",
		"conversation_id", conversationID,
		"sub_answer_index", subIndex)

	c.dispatch(ctx, placeholderID, prompt, func(ctx context.Context) (*ragapi.QueryResponse, error) {
		return c.client.SendClarification(ctx, conversationID, subIndex, answer)
	})
}

// RetryLast replays the literal text of the most recent user message as a
// brand-new query turn. No-op when no user message exists.
func (c *Controller) RetryLast(ctx context.Context) {
	c.mu.Lock()
	content, ok := c.state.LastUserContent()
	c.mu.Unlock()
	if !ok {
		return
	}
	c.SubmitQuery(ctx, content, "")
}

// ClearChat resets the conversation to its empty initial state and clears
// the last error. In-flight requests are not cancelled; their late
// resolutions target ids that no longer exist and become silent no-ops.
func (c *Controller) ClearChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = NewState()
	c.lastError = ""
}

// Wait blocks until all dispatched requests have completed. Intended for
// shutdown and tests; conversation state needs no waiting in normal use.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// dispatch runs the request asynchronously and applies the terminal
// transition for the placeholder. Every transport error is caught here;
// none escapes to the caller.
func (c *Controller) dispatch(ctx context.Context, placeholderID, prompt string, call func(context.Context) (*ragapi.QueryResponse, error)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		resp, err := call(ctx)

		c.mu.Lock()
		if err != nil {
			text := err.Error()
			if text == "" {
				text = unknownError
			}
			c.state = c.state.Fail(placeholderID, text)
			c.lastError = text
			c.loading = false
			c.mu.Unlock()
			c.logger.Warn("request failed",
				"placeholder_id", placeholderID,
				"error", text)
			return
		}

		c.state = c.state.Resolve(placeholderID, resp)
		conversationID := c.state.ConversationID
		c.loading = false
		c.mu.Unlock()

		c.logger.Debug("response resolved",
			"placeholder_id", placeholderID,
			"conversation_id", resp.ConversationID,
			"status", string(resp.Status),
			"sub_answers", len(resp.SubAnswers))

		if c.recorder != nil {
			c.recorder.RecordTurn(ctx, conversationID, prompt, resp)
		}
	}()
}

package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the Eino graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - Read and written only inside state handlers or compose.ProcessState,
//     which Eino serialises, so no extra locking is needed.
type AppState struct {
	SessionID string
	// PendingUser is the annotated user turn; it is persisted only after the
	// persona model answered.
	PendingUser *schema.Message
	// TotalCostUSD accumulates model cost for this query.
	TotalCostUSD float64
}

// QueryInput is the graph input for one user message.
type QueryInput struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Time      string `json:"time,omitempty"`
	// Findings is a snapshot of the session's report accumulator.
	Findings map[string]string `json:"findings,omitempty"`
}

// RoutedQuery is the router's output: the input plus the chosen branch.
type RoutedQuery struct {
	QueryInput
	Route string
}

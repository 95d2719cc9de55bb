package agent

import (
	"context"
	"errors"

	"github.com/chadiek/followup-call/internal/summary"
)

// State is the lifecycle position of the orchestrator's call.
type State int

const (
	StateIdle State = iota
	StateGreeting
	StateAwaitingInput
	StateProcessing
	StateTerminating
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGreeting:
		return "greeting"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateProcessing:
		return "processing"
	case StateTerminating:
		return "terminating"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ErrNoActiveCall is returned when SubmitUtterance or End is used without a call.
var ErrNoActiveCall = errors.New("no active call")

// ErrCallActive is returned when Start is used while a call is in progress.
var ErrCallActive = errors.New("a call is already active")

// ErrNoCustomers is returned when Start finds an empty customer database.
var ErrNoCustomers = errors.New("no customers available")

// ErrNotAwaitingInput is returned when an utterance arrives mid-processing or
// after termination was detected.
var ErrNotAwaitingInput = errors.New("call is not awaiting input")

// Responder generates the agent's reply for one prompt. Failures are absorbed
// by the orchestrator as an apology turn; the call is never aborted by them.
type Responder interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the bundle returned to the presentation layer when a call ends.
type Result struct {
	Customer        string          `json:"customer"`
	Summary         summary.Summary `json:"summary"`
	DatabaseUpdated bool            `json:"database_updated"`
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chadiek/followup-call/internal/store"
	"github.com/chadiek/followup-call/internal/summary"
	"github.com/chadiek/followup-call/internal/transcript"
)

// Orchestrator drives one customer follow-up call at a time through the
// greeting -> listen -> reason -> speak loop, and folds the summary back into
// the customer record when the call ends.
type Orchestrator struct {
	store       *store.Store
	agentName   string
	companyName string

	// Now supplies the last-contact timestamp; replaceable in tests.
	Now func() time.Time

	mu        sync.Mutex
	responder Responder
	state     State
	customer  store.Customer
	history   *transcript.History
}

func New(st *store.Store, agentName, companyName string) *Orchestrator {
	return &Orchestrator{
		store:       st,
		agentName:   agentName,
		companyName: companyName,
		Now:         time.Now,
		state:       StateIdle,
	}
}

// SetResponder wires the reasoning engine. It is separate from New so the
// engine's tool bridge can reference this orchestrator's live history.
func (o *Orchestrator) SetResponder(r Responder) {
	o.mu.Lock()
	o.responder = r
	o.mu.Unlock()
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Customer returns the subject of the active call, if any.
func (o *Orchestrator) Customer() (store.Customer, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateIdle || o.state == StateEnded {
		return store.Customer{}, false
	}
	return o.customer, true
}

// History returns the active call's transcript, or nil when no call is live.
// The reasoning engine's get_conversation_history tool reads through this.
func (o *Orchestrator) History() *transcript.History {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history
}

// Start selects a random customer and opens a call, returning the greeting
// text for the presentation layer to speak. Starting while a call is active
// is rejected with ErrCallActive rather than silently replacing the customer.
func (o *Orchestrator) Start() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle && o.state != StateEnded {
		return "", ErrCallActive
	}

	customer, err := o.store.PickRandom()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoCustomers
		}
		return "", fmt.Errorf("select customer: %w", err)
	}

	o.customer = customer
	o.history = transcript.NewHistory()
	o.state = StateGreeting

	greeting := greetingText(o.agentName, o.companyName, customer.Name)
	o.history.Append(transcript.SpeakerAgent, greeting)
	log.Printf("call started with %s (%s) order %s", customer.Name, customer.CustomerID, customer.OrderID)

	// Greeting playback is not tracked here; the call is immediately ready
	// for input once the greeting text is handed back.
	o.state = StateAwaitingInput
	return greeting, nil
}

// SubmitUtterance records the caller's utterance and produces the agent's
// next turn. A termination intent short-circuits the reasoning engine and
// moves the call to terminating; reasoning failures become an apology turn
// and the call keeps going.
func (o *Orchestrator) SubmitUtterance(ctx context.Context, text string) (string, error) {
	o.mu.Lock()
	switch o.state {
	case StateIdle, StateEnded:
		o.mu.Unlock()
		return "", ErrNoActiveCall
	case StateAwaitingInput:
	default:
		o.mu.Unlock()
		return "", ErrNotAwaitingInput
	}

	o.state = StateProcessing
	o.history.Append(transcript.SpeakerUser, text)

	if DetectTerminationIntent(text) {
		o.history.Append(transcript.SpeakerAgent, farewellText)
		o.state = StateTerminating
		o.mu.Unlock()
		log.Printf("termination intent detected")
		return farewellText, nil
	}

	prompt := fmt.Sprintf("Current customer: %s (ID: %s)\nOrder ID: %s\nUser said: %s",
		o.customer.Name, o.customer.CustomerID, o.customer.OrderID, text)
	responder := o.responder
	history := o.history
	o.mu.Unlock()

	// The reasoning call can be slow; no orchestrator or store lock is held
	// while waiting on it.
	var reply string
	var err error
	if responder == nil {
		err = errors.New("no responder configured")
	} else {
		reply, err = responder.Generate(ctx, prompt)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.history != history {
		// Call was ended from another path while reasoning was in flight.
		return "", ErrNoActiveCall
	}
	if err != nil || reply == "" {
		if err != nil {
			log.Printf("reasoning failure: %v", err)
		}
		o.history.Append(transcript.SpeakerAgent, apologyText)
		o.state = StateAwaitingInput
		return apologyText, nil
	}
	o.history.Append(transcript.SpeakerAgent, reply)
	o.state = StateAwaitingInput
	return reply, nil
}

// End closes the call: summarizes the transcript, writes the outcome to the
// customer record and discards the call. A failed record update is reported
// through Result.DatabaseUpdated, never swallowed.
func (o *Orchestrator) End() (Result, error) {
	o.mu.Lock()
	if o.state == StateIdle || o.state == StateEnded {
		o.mu.Unlock()
		return Result{}, ErrNoActiveCall
	}
	customer := o.customer
	history := o.history
	o.state = StateEnded
	o.history = nil
	o.mu.Unlock()

	now := o.Now()
	sum := summary.Summarize(history)
	outcome := store.CallOutcome{
		ConversationHistory: sum.History,
		Sentiment:           sum.Sentiment,
		LastContact:         now.Format("2006-01-02 15:04:05"),
		Complaint:           sum.Complaint,
	}

	updated := true
	if err := o.store.ApplyOutcome(customer.CustomerID, outcome); err != nil {
		log.Printf("failed to update customer %s: %v", customer.CustomerID, err)
		updated = false
	}

	o.mu.Lock()
	// A new call may have started while the fold-back was writing; only reset
	// if the slot still belongs to the ended call.
	if o.state == StateEnded {
		o.state = StateIdle
		o.customer = store.Customer{}
	}
	o.mu.Unlock()

	return Result{Customer: customer.Name, Summary: sum, DatabaseUpdated: updated}, nil
}

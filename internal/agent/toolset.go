package agent

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chadiek/followup-call/internal/store"
	"github.com/chadiek/followup-call/internal/transcript"
)

// Toolset is the validated bridge the reasoning engine calls into. It exposes
// exactly four operations over the record store and the live transcript; the
// engine never touches storage directly. Failures come back as result text so
// the engine can recover mid-turn.
type Toolset struct {
	Store *store.Store
	// History returns the active call's transcript; nil when no call is live.
	History func() *transcript.History
}

func (t *Toolset) GetCustomerInfo(customerID string) string {
	customer, err := t.Store.Get(customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "Customer not found"
		}
		return fmt.Sprintf("Failed to read customer: %v", err)
	}
	data, err := json.MarshalIndent(customer, "", "  ")
	if err != nil {
		return fmt.Sprintf("Failed to encode customer: %v", err)
	}
	return string(data)
}

func (t *Toolset) UpdateCustomerInfo(customerID string, updates map[string]any) string {
	if len(updates) == 0 {
		return "Invalid update data format"
	}
	if err := t.Store.UpdateFields(customerID, updates); err != nil {
		var rejected *store.RejectedFieldError
		if errors.As(err, &rejected) {
			return fmt.Sprintf("Update rejected: field %q is not allowed; nothing was changed", rejected.Field)
		}
		if errors.Is(err, store.ErrNotFound) {
			return "Customer not found"
		}
		return fmt.Sprintf("Failed to update customer: %v", err)
	}
	return "Customer updated successfully"
}

func (t *Toolset) AddComplaint(customerID, complaint string) string {
	complaintID, err := t.Store.RecordComplaint(customerID, complaint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "Customer not found"
		}
		return fmt.Sprintf("Failed to record complaint: %v", err)
	}
	return fmt.Sprintf("Complaint recorded with ID: %s", complaintID)
}

func (t *Toolset) ConversationHistory() string {
	var history *transcript.History
	if t.History != nil {
		history = t.History()
	}
	if history == nil {
		return "[]"
	}
	turns := history.Turns()
	type turnJSON struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	}
	out := make([]turnJSON, 0, len(turns))
	for _, turn := range turns {
		out = append(out, turnJSON{Speaker: string(turn.Speaker), Text: turn.Text})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

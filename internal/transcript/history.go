package transcript

import (
	"strings"
	"sync"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerAgent Speaker = "agent"
	SpeakerUser  Speaker = "user"
)

// Turn is one utterance in a call, immutable once appended.
type Turn struct {
	Speaker Speaker
	Text    string
}

// History is the append-only ordered log of turns for one call.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

func NewHistory() *History {
	return &History{}
}

// Append records a turn. Ordering is insertion order.
func (h *History) Append(speaker Speaker, text string) {
	h.mu.Lock()
	h.turns = append(h.turns, Turn{Speaker: speaker, Text: text})
	h.mu.Unlock()
}

// Turns returns a read-only snapshot of all turns in order.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len reports the number of recorded turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// FlatText renders the history as "speaker: text" lines joined in order.
func (h *History) FlatText() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	for i, t := range h.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(string(t.Speaker))
		b.WriteString(": ")
		b.WriteString(t.Text)
	}
	return b.String()
}

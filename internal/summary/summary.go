// Package summary derives a deterministic call summary from a finished
// transcript. It is rule-based on purpose: it must stay available when the
// reasoning collaborator is down and must be reproducible for identical input.
package summary

import (
	"strings"

	"github.com/chadiek/followup-call/internal/transcript"
)

// Sentiment classification values.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// complaintNotice is the fixed text stored when complaint tokens are present.
const complaintNotice = "Customer expressed an issue/complaint."

// excerptLength is the number of trailing characters kept as the short summary.
const excerptLength = 200

var negativeWords = []string{"unhappy", "bad", "problem", "issue"}
var positiveWords = []string{"happy", "good", "satisfied"}
var complaintWords = []string{"complaint", "issue"}

// Summary is the derived end-of-call result folded into the customer record.
type Summary struct {
	History      string
	Sentiment    string
	Complaint    string
	ShortSummary string
}

// Summarize flattens the history and derives sentiment, complaint flag and a
// trailing excerpt. Negative keywords take precedence over positive ones.
func Summarize(h *transcript.History) Summary {
	full := h.FlatText()
	lower := strings.ToLower(full)

	sentiment := SentimentNeutral
	if containsAny(lower, negativeWords) {
		sentiment = SentimentNegative
	} else if containsAny(lower, positiveWords) {
		sentiment = SentimentPositive
	}

	complaint := ""
	if containsAny(lower, complaintWords) {
		complaint = complaintNotice
	}

	short := full
	if r := []rune(full); len(r) > excerptLength {
		short = string(r[len(r)-excerptLength:])
	}

	return Summary{
		History:      full,
		Sentiment:    sentiment,
		Complaint:    complaint,
		ShortSummary: short,
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

package agent

import "strings"

// terminationKeywords end the call on any case-insensitive substring match.
// This is a fixed, data-driven rule so termination stays reproducible.
var terminationKeywords = []string{
	"goodbye",
	"bye",
	"end call",
	"hang up",
	"that's all",
	"no more",
}

// DetectTerminationIntent reports whether the utterance signals that the
// caller wants to end the call.
func DetectTerminationIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range terminationKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

package genai

import (
	"strings"
	"unicode/utf8"
)

// Client-observable output budgets per hint stage. Trimming is part of the
// API contract, not merely a suggestion to the model.
const (
	// FirstHintMaxChars caps the first hint, counted in runes.
	FirstHintMaxChars = 100
	// firstHintTruncateAt leaves room for the ellipsis marker.
	firstHintTruncateAt = 97

	// SecondHintMaxWords caps the second hint in whitespace-separated tokens.
	SecondHintMaxWords = 200

	ellipsis = "..."
)

// TrimFirstHint enforces the first-hint character budget: output longer than
// FirstHintMaxChars is cut to 97 characters plus an ellipsis marker.
func TrimFirstHint(s string) string {
	if utf8.RuneCountInString(s) <= FirstHintMaxChars {
		return s
	}
	return string([]rune(s)[:firstHintTruncateAt]) + ellipsis
}

// TrimSecondHint enforces the second-hint word budget: output with more than
// SecondHintMaxWords whitespace-separated tokens is cut to the first 200
// tokens plus an ellipsis marker.
func TrimSecondHint(s string) string {
	words := strings.Fields(s)
	if len(words) <= SecondHintMaxWords {
		return s
	}
	return strings.Join(words[:SecondHintMaxWords], " ") + ellipsis
}

// TrimForStage applies the stage's budget. The resources stage has no hard
// length budget and passes through unchanged.
func TrimForStage(stage Stage, s string) string {
	switch stage {
	case StageFirst:
		return TrimFirstHint(s)
	case StageSecond:
		return TrimSecondHint(s)
	default:
		return s
	}
}

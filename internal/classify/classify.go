package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/nao1215/forumscan/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// QuestionMaxLength is the exclusive upper bound on the length of a question.
	QuestionMaxLength = 300

	// ExplanationMinLength is the exclusive lower bound on the length of an explanation.
	ExplanationMinLength = 600
)

// gratitudeMarkers are matched case-insensitively as substrings.
var gratitudeMarkers = []string{"thanks", "resolved"}

// Vocabulary is the fixed keyword list used for auto tags, in output order.
var Vocabulary = []string{"GA", "quiz", "deadline", "OpenAI", "API", "token", "error"}

// Classify assigns a category to plain text. Rules are checked in priority
// order and the first match wins:
//  1. question: contains "?" and is shorter than QuestionMaxLength
//  2. gratitude: contains "thanks" or "resolved" in any case
//  3. explanation: longer than ExplanationMinLength
//  4. other
func Classify(text string) model.Category {
	length := utf8.RuneCountInString(text)

	if strings.Contains(text, "?") && length < QuestionMaxLength {
		return model.CategoryQuestion
	}

	lowered := lower(text)
	for _, marker := range gratitudeMarkers {
		if strings.Contains(lowered, lower(marker)) {
			return model.CategoryGratitude
		}
	}

	if length > ExplanationMinLength {
		return model.CategoryExplanation
	}

	return model.CategoryOther
}

// ExtractTags returns the vocabulary keywords found in text, matched as
// case-insensitive substrings. Keywords appear once, in vocabulary order.
// The result is empty, never nil, when nothing matches.
func ExtractTags(text string) []string {
	tags := make([]string, 0, len(Vocabulary))
	lowered := lower(text)
	for _, keyword := range Vocabulary {
		if strings.Contains(lowered, lower(keyword)) {
			tags = append(tags, keyword)
		}
	}
	return tags
}

// PopularityScore combines likes and direct replies.
func PopularityScore(likeCount, replyCount int) int {
	return likeCount + replyCount
}

// lower applies Unicode lowercasing without full case folding, so a long
// s (U+017F) stays distinct from "s". A fresh Caser is used per call
// because cases.Caser is not safe for concurrent use.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

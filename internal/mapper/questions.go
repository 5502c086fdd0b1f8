package mapper

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const noQuestionsAnswered = "No questions answered."

// FormatQuestions renders answered job questions as "key: answer" lines in the order they were
// submitted.
func FormatQuestions(questions submission.Questions) string {
	if len(questions) == 0 {
		return noQuestionsAnswered
	}
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		key := strings.ReplaceAll(strings.TrimPrefix(q.Key, "question-"), "-", " ")
		lines = append(lines, key+": "+FormatAnswer(q.Value))
	}
	return strings.Join(lines, "\n")
}

// FormatAnswer renders one raw JSON answer. Arrays are joined with ", ", objects are kept as
// compact JSON.
func FormatAnswer(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				parts = append(parts, FormatAnswer(item))
			}
			return strings.Join(parts, ", ")
		}
	case 'n':
		return ""
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}
	return string(raw)
}

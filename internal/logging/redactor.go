package logging

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var segmentSplitter = regexp.MustCompile(`[^a-z0-9]+`)

// redactor hides values of sensitive keys in log key-value pairs.
type redactor struct {
	sensitiveWords map[string]bool
}

func newRedactor() *redactor {
	words := []string{"secret", "password", "token", "key", "auth", "credential", "authorization"}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return &redactor{sensitiveWords: m}
}

// redact returns a copy of pairs where values of sensitive keys are replaced.
func (r *redactor) redact(pairs []any) []any {
	if len(pairs) == 0 {
		return pairs
	}
	result := make([]any, len(pairs))
	copy(result, pairs)
	for i := 0; i+1 < len(result); i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}
		if r.isSensitive(key) {
			result[i+1] = redacted
		}
	}
	return result
}

// isSensitive reports whether any non-alphanumeric separated segment of key
// is a sensitive word.
func (r *redactor) isSensitive(key string) bool {
	for _, part := range segmentSplitter.Split(strings.ToLower(key), -1) {
		if r.sensitiveWords[part] {
			return true
		}
	}
	return false
}

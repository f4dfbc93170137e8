package logging

import (
	"regexp"
)

// Sanitizer redacts sensitive information from log messages. The engine
// logs socket URLs, auth frames and raw event payloads while debugging,
// any of which may carry the OS security key.
type Sanitizer struct {
	patterns []*regexp.Regexp
	redacted string
}

// NewSanitizer creates a sanitizer with default patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns(),
		redacted: "[REDACTED]",
	}
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// Authenticate frames: {"action":"authenticate","token":"..."}
		`(?i)"token"\s*:\s*"[^"]{8,}"`,
		// Security keys in query strings or headers
		`(?i)(security[_-]?key|api[_-]?key)["'\s:=]+[a-zA-Z0-9_-]{16,}`,
		// Bearer tokens on the REST collaborator
		`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`,
		// OpenAI / Anthropic keys occasionally pasted into run input
		`sk-[A-Za-z0-9]{20,}`,
		`sk-ant-[a-zA-Z0-9-]{40,}`,
		// Generic secrets
		`(?i)secret["'\s:=]+[a-zA-Z0-9_-]{20,}`,
		`(?i)password["'\s:=]+[^\s"']{8,}`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, s.redacted)
	}
	return result
}

// AddPattern adds a custom pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}

package logging

import (
	"regexp"
	"strings"
)

// rule rewrites credential material matching regex with mask.
type rule struct {
	regex *regexp.Regexp
	mask  string
}

// defaultRules covers the credential formats this module handles. The
// anthropic prefix must stay ahead of the generic sk- rule.
var defaultRules = []rule{
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9\-_]{20,}`), "[REDACTED_ANTHROPIC_KEY]"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`), "[REDACTED_API_KEY]"},
	{regexp.MustCompile(`AstraCS:[a-zA-Z0-9:]{20,}`), "[REDACTED_ASTRA_TOKEN]"},
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-_\.]+`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`Authorization:\s*[^\s]+`), "Authorization: [REDACTED]"},
	{regexp.MustCompile(`[a-f0-9]{32}`), "[REDACTED_API_KEY]"},
}

// sensitiveKeyParts marks map keys whose values are masked outright.
var sensitiveKeyParts = []string{"key", "token", "secret", "password", "auth", "credential"}

// Redactor masks provider credentials before they reach log output.
type Redactor struct {
	rules []rule
}

// NewRedactor returns a redactor with the default credential rules.
func NewRedactor() *Redactor {
	return &Redactor{rules: append([]rule(nil), defaultRules...)}
}

// AddPattern appends a custom rule. Invalid patterns are skipped.
func (r *Redactor) AddPattern(pattern, mask string) {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return
	}
	r.rules = append(r.rules, rule{regex: regex, mask: mask})
}

// Redact applies every rule to input.
func (r *Redactor) Redact(input string) string {
	for _, rl := range r.rules {
		input = rl.regex.ReplaceAllString(input, rl.mask)
	}
	return input
}

// RedactMap returns a copy of m with credentials masked. Values under
// keys that look like credentials are replaced outright, everything
// else is redacted recursively.
func (r *Redactor) RedactMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sensitiveKey(k) {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.scrub(v)
	}
	return out
}

func sensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

func (r *Redactor) scrub(value any) any {
	switch v := value.(type) {
	case string:
		return r.Redact(v)
	case map[string]any:
		return r.RedactMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.scrub(item)
		}
		return out
	}
	return value
}

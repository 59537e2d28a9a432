package securelog

import (
	"regexp"
	"strings"
)

// RedactedValue replaces the value of any context key whose name matches
// the sensitive-keyword list, regardless of the value's content.
const RedactedValue = "HIDDEN"

// Rule pairs a compiled pattern with its masking replacement.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// rules is the static, process-wide sanitization table, evaluated in order.
// Vendor key prefixes come first so they win over the generic
// credential-assignment patterns; the assignment patterns then mask
// whatever value remains. Replacements never re-match any rule, which
// keeps sanitization idempotent.
var rules = []Rule{
	// Vendor key prefixes
	{regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{10,}`), "[GCP_KEY_REDACTED]"},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), "[AWS_KEY_REDACTED]"},
	{regexp.MustCompile(`\bsk-ant-[A-Za-z0-9\-]{20,}`), "[ANTHROPIC_KEY_REDACTED]"},
	{regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`), "[OPENAI_KEY_REDACTED]"},
	{regexp.MustCompile(`\bghp_[A-Za-z0-9]{36,}\b`), "[GITHUB_TOKEN_REDACTED]"},
	{regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9\-]{10,}`), "[SLACK_TOKEN_REDACTED]"},
	{regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`), "[JWT_REDACTED]"},

	// Credential assignments (key=value, key: value)
	{regexp.MustCompile(`(?i)(api[_\-]?key\s*[=:]\s*)[^\s&'"]+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`(?i)(access[_\-]?token\s*[=:]\s*)[^\s&'"]+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`(?i)(token\s*[=:]\s*)[^\s&'"]+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`(?i)(password\s*[=:]\s*)[^\s&'"]+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`(?i)(secret\s*[=:]\s*)[^\s&'"]+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9_\-\.]+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`(?i)(authorization\s*[=:]\s*)(bearer\s+)?[^\s'"]+`), "${1}${2}[REDACTED]"},
}

// sensitiveKeywords flags context keys whose value must be replaced with
// RedactedValue. Matching is a case-insensitive substring check on the key
// name. "auth" alone is deliberately absent: a nested "auth" mapping is
// recursed into rather than dropped wholesale.
var sensitiveKeywords = []string{
	"api_key",
	"api-key",
	"apikey",
	"token",
	"password",
	"passwd",
	"secret",
	"authorization",
	"bearer",
	"credential",
	"private_key",
	"access_key",
	"aiza",
	"sk-ant",
}

// SanitizeMessage runs the ordered rule table over msg and returns the
// masked result. Applying it twice yields the same string.
func SanitizeMessage(msg string) string {
	for _, rule := range rules {
		msg = rule.Pattern.ReplaceAllString(msg, rule.Replacement)
	}
	return msg
}

// SanitizeContext returns a sanitized copy of ctx. Keys matching the
// sensitive-keyword list are replaced with RedactedValue regardless of
// their value (key match wins over content scanning). String values are
// run through the message rules, nested mappings are recursed, and all
// other values pass through unchanged. The input map is never mutated.
func SanitizeContext(ctx map[string]interface{}) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	out := make(map[string]interface{}, len(ctx))
	for key, value := range ctx {
		if isSensitiveKey(key) {
			out[key] = RedactedValue
			continue
		}
		out[key] = sanitizeValue(value)
	}
	return out
}

// sanitizeValue sanitizes a single context value.
func sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return SanitizeMessage(v)
	case map[string]interface{}:
		return SanitizeContext(v)
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for key, s := range v {
			if isSensitiveKey(key) {
				out[key] = RedactedValue
				continue
			}
			out[key] = SanitizeMessage(s)
		}
		return out
	default:
		return value
	}
}

// isSensitiveKey reports whether a context key names a credential.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

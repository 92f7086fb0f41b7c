package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxQueryLogLength is the maximum length of a statement or search string to log
	MaxQueryLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
	// maskVisible is how many trailing characters MaskSecret keeps
	maskVisible = 4
)

var (
	// Matches: password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Feed credentials as they appear in DSNs, URLs and driver errors:
	// api_key=..., apikey=..., daft_api_key=..., myhome_api_key=...
	apiKeyPattern = regexp.MustCompile(`(?i)((?:daft_|myhome_)?api[_-]?key|apikey)=[^;&\s]+`)

	// user:pass@host format
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/?\s]+`)
)

// SanitizeConnectionString removes credentials from a store DSN.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError renders a store or config error without credentials.
// Use this before logging or returning any adapter error.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeConnectionString(err.Error())
}

// SanitizeQuery truncates a statement or search string for logging and
// removes credential patterns.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	sanitized := TruncateString(query, MaxQueryLogLength)
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

// MaskSecret hides all but the last few characters of a credential.
// Short secrets are hidden entirely.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= maskVisible*2 {
		return RedactedText
	}
	return strings.Repeat("*", len(secret)-maskVisible) + secret[len(secret)-maskVisible:]
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

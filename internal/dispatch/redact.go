package dispatch

import "regexp"

// secretPatterns match values that must never leave the process through
// logs or the activity feed
var secretPatterns = map[string]*regexp.Regexp{
	"ssn":         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"credit_card": regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),
	"api_key":     regexp.MustCompile(`\b(sk-[a-zA-Z0-9]{32,}|ghp_[a-zA-Z0-9]{36}|xox[baprs]-[a-zA-Z0-9-]+)\b`),
	"private_key": regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`),
}

// Redact masks secrets in text with "[redacted <kind>]"
func Redact(text string) string {
	for kind, pattern := range secretPatterns {
		text = pattern.ReplaceAllString(text, "[redacted "+kind+"]")
	}
	return text
}

func redactAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = Redact(s)
	}
	return out
}

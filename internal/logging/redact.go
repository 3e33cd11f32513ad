package logging

import (
	"regexp"

	"go.uber.org/zap"
)

const Redacted = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/=-]{8,}`),
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{8,}`),
	regexp.MustCompile(`(?i)(token|api_key|apikey)(\s*[:=]\s*)[^\s,;&"']{8,}`),
}

// Redact masks API keys and bearer tokens inside s.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for i, p := range secretPatterns {
		if i == len(secretPatterns)-1 {
			s = p.ReplaceAllString(s, "${1}${2}"+Redacted)
			continue
		}
		s = p.ReplaceAllString(s, Redacted)
	}
	return s
}

// Secret logs whether a credential is set without logging the credential.
// The last four characters are kept for keys long enough to hide the rest.
func Secret(key, value string) zap.Field {
	return zap.String(key, mask(value))
}

func mask(value string) string {
	switch {
	case value == "":
		return "(unset)"
	case len(value) < 12:
		return Redacted
	}
	return Redacted + "..." + value[len(value)-4:]
}

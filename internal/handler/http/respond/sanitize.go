package respond

import "regexp"

var (
	// Applied in order, most specific first.
	secretPatterns = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`sk-proj-[A-Za-z0-9_-]+`), "sk-proj-****"},
		{regexp.MustCompile(`sk-[A-Za-z0-9]{10,}`), "sk-****"},
		{regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/-]+=*`), "${1}****"},
		{regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`), "://$1:****@"},
		{regexp.MustCompile(`(?i)(password=)[^\s&]+`), "${1}****"},
	}
)

// SanitizeError returns err's message with API keys, bearer tokens and DSN
// passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, p := range secretPatterns {
		msg = p.re.ReplaceAllString(msg, p.repl)
	}
	return msg
}

package security

import (
	"regexp"
	"strings"
	"sync"

	"github.com/flemzord/sealdrop/internal/prefs"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches map keys that likely contain secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|pass|api_key|credential)`)

// Redactor replaces secret values in strings and maps with a redaction placeholder.
// It supports both regex pattern matching (for known token formats) and
// literal value matching (for credentials loaded at runtime).
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// SyncPreferences replaces the literal values with the bot token currently
// stored in p plus any extra secrets. Call it after the token changes.
func (r *Redactor) SyncPreferences(p prefs.Reader, extra ...string) {
	literals := make([]string, 0, len(extra)+1)
	if token := p.String(prefs.KeyBotToken); token != "" {
		literals = append(literals, token)
	}
	for _, s := range extra {
		if s != "" {
			literals = append(literals, s)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = literals
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}

	return s
}

// RedactMap walks a map and replaces values whose keys match common secret
// key names (secret, token, pass, api_key, credential).
// It is used when printing configuration and preferences.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		if secretKeyPattern.MatchString(k) {
			if s, ok := v.(string); ok && s != "" {
				m[k] = RedactPlaceholder
				continue
			}
		}
		switch val := v.(type) {
		case map[string]any:
			r.RedactMap(val)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					r.RedactMap(sub)
				}
			}
		case string:
			if redacted := r.Redact(val); redacted != val {
				m[k] = redacted
			}
		}
	}
}

// RedactBotPath replaces the token segment of a Bot API URL
// ("/bot<token>/method") with RedactPlaceholder. The segment ends at the
// next slash, so tokens with spaces or control characters are covered too.
func RedactBotPath(u string) string {
	path := 0
	if i := strings.Index(u, "://"); i >= 0 {
		j := strings.IndexByte(u[i+3:], '/')
		if j < 0 {
			return u
		}
		path = i + 3 + j
	}
	i := strings.Index(u[path:], "/bot")
	if i < 0 {
		return u
	}
	start := path + i + len("/bot")
	end := strings.IndexByte(u[start:], '/')
	if end < 0 {
		end = len(u) - start
	}
	if end == 0 {
		return u
	}
	return u[:start] + RedactPlaceholder + u[start+end:]
}

// DefaultPatterns returns compiled regex patterns for Telegram bot tokens
// and HTTP credentials.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Telegram bot token: <bot id>:<35 char secret>
		regexp.MustCompile(`\d{5,}:[A-Za-z0-9_-]{30,}`),
		// Bot API URL path segment, whatever the token looks like.
		regexp.MustCompile(`/bot[^/\s]+/`),
		// Authorization header values.
		regexp.MustCompile(`(?i)\b(Bearer|Basic)\s+[A-Za-z0-9._~+/=-]{8,}`),
	}
}

// Package prefs defines the key-value preference contract that holds the
// delivery configuration (bot token, chat id, feature flags), plus helpers
// that keep the stored values consistent.
package prefs

import (
	"errors"
	"strings"
	"unicode"
)

// Preference keys. They are opaque identifiers for the backing store.
const (
	KeyBotToken      = "telegram_bot_token"
	KeyChatID        = "telegram_chat_id"
	KeyUploadEnabled = "telegram_upload"
	KeyFastMode      = "fast_mode"
)

// ErrNotConfigured is returned when enabling upload while the bot token or
// chat id is blank.
var ErrNotConfigured = errors.New("prefs: bot token and chat id must be set before enabling upload")

// ErrMalformedToken is returned when a bot token contains whitespace or
// control characters, which cannot appear in a Bot API URL path.
var ErrMalformedToken = errors.New("prefs: bot token must not contain whitespace or control characters")

// Reader is the read side of a preference store. Missing keys read as the
// zero value.
type Reader interface {
	String(key string) string
	Bool(key string) bool
}

// Store is a readable and writable preference store.
// Implementations must be safe for concurrent use.
type Store interface {
	Reader
	SetString(key, value string) error
	SetBool(key string, value bool) error
}

// DeliveryConfiguration is a call-scoped snapshot of the delivery settings.
type DeliveryConfiguration struct {
	BotToken        string
	ChatID          string
	UploadEnabled   bool
	FastModeEnabled bool
}

// Load reads the delivery configuration from r.
func Load(r Reader) DeliveryConfiguration {
	return DeliveryConfiguration{
		BotToken:        r.String(KeyBotToken),
		ChatID:          r.String(KeyChatID),
		UploadEnabled:   r.Bool(KeyUploadEnabled),
		FastModeEnabled: r.Bool(KeyFastMode),
	}
}

// Configured reports whether both the bot token and the chat id are non-blank.
func (c DeliveryConfiguration) Configured() bool {
	return !isBlank(c.BotToken) && !isBlank(c.ChatID)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validToken(token string) bool {
	return !strings.ContainsFunc(token, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
}

// MaskToken hides the middle of a bot token for display.
func MaskToken(token string) string {
	const mask = "••••••••"
	if len(token) <= 8 {
		return mask
	}
	return token[:4] + mask + token[len(token)-4:]
}

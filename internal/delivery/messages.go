package delivery

import (
	"fmt"
	"maps"
)

// MessageKey identifies a user-facing text.
type MessageKey string

// Message keys and the arguments their templates receive.
const (
	MsgNotConfigured    MessageKey = "not_configured"    // no arguments
	MsgFileMissing      MessageKey = "file_missing"      // path
	MsgFileTooLarge     MessageKey = "file_too_large"    // size, limit
	MsgInvalidToken     MessageKey = "invalid_token"     // no arguments
	MsgChatUnreachable  MessageKey = "chat_unreachable"  // response body
	MsgRemoteRejected   MessageKey = "remote_rejected"   // status code, response body
	MsgTransportFailure MessageKey = "transport_failure" // cause
	MsgTestMessage      MessageKey = "test_message"      // no arguments
)

// Messages provides user-facing texts.
type Messages interface {
	Text(key MessageKey, args ...any) string
}

// Catalog is a Messages backed by printf-style templates.
type Catalog map[MessageKey]string

var defaultCatalog = Catalog{
	MsgNotConfigured:    "Telegram bot token or chat ID is not configured",
	MsgFileMissing:      "File not found: %s",
	MsgFileTooLarge:     "File is too large for Telegram bots (%s, limit %s)",
	MsgInvalidToken:     "Invalid bot token",
	MsgChatUnreachable:  "Cannot send to this chat: %s",
	MsgRemoteRejected:   "Telegram API error %d: %s",
	MsgTransportFailure: "Network error: %v",
	MsgTestMessage:      "✅ sealdrop is connected to this chat",
}

// DefaultCatalog returns a copy of the built-in English catalog.
func DefaultCatalog() Catalog {
	return maps.Clone(defaultCatalog)
}

// NewCatalog returns the default catalog with overrides applied.
func NewCatalog(overrides map[string]string) Catalog {
	c := DefaultCatalog()
	for k, v := range overrides {
		c[MessageKey(k)] = v
	}
	return c
}

// IsMessageKey reports whether key names a known message.
func IsMessageKey(key string) bool {
	_, ok := defaultCatalog[MessageKey(key)]
	return ok
}

// Text implements Messages. Unknown keys fall back to the default catalog.
func (c Catalog) Text(key MessageKey, args ...any) string {
	tmpl, ok := c[key]
	if !ok {
		tmpl, ok = defaultCatalog[key]
		if !ok {
			return string(key)
		}
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

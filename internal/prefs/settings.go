package prefs

import "strings"

// Settings wraps a Store and enforces that upload can only be enabled while
// the bot token and chat id are both set. Clearing either one turns upload
// off.
type Settings struct {
	store Store
}

// NewSettings returns a Settings backed by store.
func NewSettings(store Store) *Settings {
	return &Settings{store: store}
}

// Configuration returns the current delivery configuration.
func (s *Settings) Configuration() DeliveryConfiguration {
	return Load(s.store)
}

// SetBotToken stores the bot token with surrounding whitespace removed. A
// blank token disables upload; a token with inner whitespace or control
// characters is refused with ErrMalformedToken.
func (s *Settings) SetBotToken(token string) error {
	token = strings.TrimSpace(token)
	if !validToken(token) {
		return ErrMalformedToken
	}
	if err := s.store.SetString(KeyBotToken, token); err != nil {
		return err
	}
	if isBlank(token) {
		return s.disableUpload()
	}
	return nil
}

// SetChatID stores the chat id. A blank chat id disables upload.
func (s *Settings) SetChatID(chatID string) error {
	if err := s.store.SetString(KeyChatID, chatID); err != nil {
		return err
	}
	if isBlank(chatID) {
		return s.disableUpload()
	}
	return nil
}

// SetUploadEnabled toggles automatic upload. Enabling it while the
// configuration is incomplete returns ErrNotConfigured.
func (s *Settings) SetUploadEnabled(enabled bool) error {
	if enabled && !s.Configuration().Configured() {
		return ErrNotConfigured
	}
	return s.store.SetBool(KeyUploadEnabled, enabled)
}

// SetFastMode toggles fast mode. The delivery core does not read it.
func (s *Settings) SetFastMode(enabled bool) error {
	return s.store.SetBool(KeyFastMode, enabled)
}

func (s *Settings) disableUpload() error {
	if !s.store.Bool(KeyUploadEnabled) {
		return nil
	}
	return s.store.SetBool(KeyUploadEnabled, false)
}

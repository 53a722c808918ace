package prefs

import (
	"errors"
	"testing"
)

func TestLoad(t *testing.T) {
	store := NewMemoryStore()
	_ = store.SetString(KeyBotToken, "123:abc")
	_ = store.SetString(KeyChatID, "-10042")
	_ = store.SetBool(KeyUploadEnabled, true)

	cfg := Load(store)
	if cfg.BotToken != "123:abc" {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, "123:abc")
	}
	if cfg.ChatID != "-10042" {
		t.Errorf("ChatID = %q, want %q", cfg.ChatID, "-10042")
	}
	if !cfg.UploadEnabled {
		t.Error("UploadEnabled = false, want true")
	}
	if cfg.FastModeEnabled {
		t.Error("FastModeEnabled = true, want false")
	}
}

func TestDeliveryConfiguration_Configured(t *testing.T) {
	tests := []struct {
		name string
		cfg  DeliveryConfiguration
		want bool
	}{
		{"both set", DeliveryConfiguration{BotToken: "t", ChatID: "c"}, true},
		{"blank token", DeliveryConfiguration{BotToken: "  ", ChatID: "c"}, false},
		{"blank chat", DeliveryConfiguration{BotToken: "t", ChatID: ""}, false},
		{"nothing", DeliveryConfiguration{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSettings_ClearingTokenDisablesUpload(t *testing.T) {
	store := NewMemoryStore()
	s := NewSettings(store)

	if err := s.SetBotToken("123:abc"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetChatID("42"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetUploadEnabled(true); err != nil {
		t.Fatalf("SetUploadEnabled(true) error: %v", err)
	}

	if err := s.SetBotToken(""); err != nil {
		t.Fatal(err)
	}
	if store.Bool(KeyUploadEnabled) {
		t.Error("upload still enabled after clearing token")
	}
}

func TestSettings_SetBotTokenRejectsMalformed(t *testing.T) {
	store := NewMemoryStore()
	s := NewSettings(store)

	if err := s.SetBotToken("  123:abc\n"); err != nil {
		t.Fatalf("SetBotToken with surrounding whitespace: %v", err)
	}
	if got := store.String(KeyBotToken); got != "123:abc" {
		t.Errorf("stored token = %q, want %q", got, "123:abc")
	}

	for _, bad := range []string{"123:a bc", "123:a\nbc", "123:a\x00bc"} {
		if err := s.SetBotToken(bad); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("SetBotToken(%q) = %v, want ErrMalformedToken", bad, err)
		}
	}
	if got := store.String(KeyBotToken); got != "123:abc" {
		t.Errorf("stored token changed to %q after rejected update", got)
	}
}

func TestSettings_ClearingChatDisablesUpload(t *testing.T) {
	store := NewMemoryStore()
	s := NewSettings(store)
	_ = s.SetBotToken("123:abc")
	_ = s.SetChatID("42")
	_ = s.SetUploadEnabled(true)

	if err := s.SetChatID(" "); err != nil {
		t.Fatal(err)
	}
	if s.Configuration().UploadEnabled {
		t.Error("upload still enabled after clearing chat id")
	}
}

func TestSettings_EnableWithoutConfiguration(t *testing.T) {
	s := NewSettings(NewMemoryStore())
	err := s.SetUploadEnabled(true)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
	if err := s.SetUploadEnabled(false); err != nil {
		t.Errorf("disabling should always succeed, got %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "••••••••"},
		{"12345678", "••••••••"},
		{"123456:ABCDEFGHIJ", "1234••••••••GHIJ"},
	}
	for _, tt := range tests {
		if got := MaskToken(tt.in); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMemoryStore_BoolParsing(t *testing.T) {
	store := NewMemoryStore()
	_ = store.SetString("flag", "not-a-bool")
	if store.Bool("flag") {
		t.Error("unparseable value should read as false")
	}
	if store.Bool("missing") {
		t.Error("missing key should read as false")
	}
}

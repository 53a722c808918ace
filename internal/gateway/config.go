package gateway

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/flemzord/sealdrop/internal/security"
)

// Config holds HTTP gateway configuration.
type Config struct {
	Bind      string                      `yaml:"bind"`
	Auth      AuthConfig                  `yaml:"auth"`
	RateLimit *security.RateLimitConfig   `yaml:"rate_limit,omitempty"`
	Webhooks  map[string]WebhookSourceCfg `yaml:"webhooks,omitempty"`
	// AllowedOrigins are host patterns accepted for cross-origin WebSocket
	// connections to /ws/progress.
	AllowedOrigins  []string      `yaml:"allowed_origins,omitempty"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WithDefaults returns c with zero values replaced by defaults.
func WithDefaults(c Config) Config {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8390"
	}
	if c.RateLimit == nil {
		rl := security.DefaultRateLimitConfig()
		c.RateLimit = &rl
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	// Synchronous deliveries can take as long as the upload read and
	// write timeouts combined.
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 330 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// Validate checks the bind address. Binding beyond loopback requires
// authentication.
func (c Config) Validate() error {
	host, _, err := net.SplitHostPort(c.Bind)
	if err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", c.Bind, err)
	}
	if _, err := net.ResolveTCPAddr("tcp", c.Bind); err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", c.Bind, err)
	}
	if !c.Auth.IsConfigured() && !isLoopback(host) {
		return errors.New("gateway: auth must be configured when binding to " + c.Bind)
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// AuthConfig configures authentication for /api and /ws endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}

// Secrets returns the configured credentials for log redaction.
func (a AuthConfig) Secrets() []string {
	return []string{a.BearerToken, a.BasicPass}
}

// WebhookSourceCfg holds per-source webhook configuration.
type WebhookSourceCfg struct {
	Secret string `yaml:"secret"`
}

package telegram

import (
	"context"
	"net"
	"net/http"
	"time"
)

// TransportConfig holds the timeouts of the shared HTTP transport. Write and
// read timeouts bound each individual socket operation, not the whole
// request, so large uploads are not cut short while bytes keep flowing.
type TransportConfig struct {
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
}

// DefaultTransportConfig returns connect=30s, write=300s, read=300s.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		ConnectTimeout: 30 * time.Second,
		WriteTimeout:   300 * time.Second,
		ReadTimeout:    300 * time.Second,
	}
}

// NewHTTPClient returns a pooled *http.Client configured with cfg. It is
// meant to be created once and shared by every Client.
func NewHTTPClient(cfg TransportConfig) *http.Client {
	def := DefaultTransportConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				conn, err := dialer.DialContext(ctx, network, addr)
				if err != nil {
					return nil, err
				}
				return &deadlineConn{Conn: conn, read: cfg.ReadTimeout, write: cfg.WriteTimeout}, nil
			},
			ForceAttemptHTTP2:     true,
			TLSHandshakeTimeout:   cfg.ConnectTimeout,
			MaxIdleConns:          16,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}

// deadlineConn refreshes the socket deadline before every read and write.
type deadlineConn struct {
	net.Conn
	read  time.Duration
	write time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.read)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.write)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

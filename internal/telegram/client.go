package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the public Bot API endpoint.
	DefaultBaseURL = "https://api.telegram.org"

	maxResponseBytes = 10 << 20 // 10 MiB
	tokenPlaceholder = "<token>"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a thin wrapper around the Bot API for a single bot token.
// Clients are cheap; the shared state lives in the Doer.
type Client struct {
	token   string
	baseURL string
	http    Doer
}

// NewClient creates a Bot API client. An empty baseURL selects
// DefaultBaseURL and a nil doer selects http.DefaultClient.
func NewClient(token, baseURL string, doer Doer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
	}
}

// MethodURL returns the URL of a Bot API method for this client's token.
func (c *Client) MethodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// GetMe returns the bot's user information. It is used to check that the
// token is valid.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.MethodURL("getMe"), nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: create getMe request: %w", c.scrub(err))
	}
	return do[User](c, "getMe", req)
}

// SendMessage sends a plain text message to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*Message, error) {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MethodURL("sendMessage"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("telegram: create sendMessage request: %w", c.scrub(err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do[Message](c, "sendMessage", req)
}

// SendFile uploads file to chatID with the given media method
// (sendVideo, sendAudio or sendDocument).
func (c *Client) SendFile(ctx context.Context, method, chatID string, file InputFile) (*Message, error) {
	body, contentType, length := newMultipartBody(chatID, file)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MethodURL(method), body)
	if err != nil {
		return nil, fmt.Errorf("telegram: create %s request: %w", method, c.scrub(err))
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", contentType)
	return do[Message](c, method, req)
}

// do executes req and decodes the response. Success is decided by the HTTP
// status alone; a 2xx body that does not decode yields a zero result.
func do[T any](c *Client, method string, req *http.Request) (*T, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s request failed: %w", method, c.scrub(err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", method, c.scrub(err))
	}

	var apiResp APIResponse[T]
	decodeErr := json.Unmarshal(respBody, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
		if decodeErr == nil {
			apiErr.Description = apiResp.Description
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return new(T), nil
	}
	return &apiResp.Result, nil
}

// scrub removes the bot token from URLs embedded in transport errors.
func (c *Client) scrub(err error) error {
	var urlErr *url.Error
	if c.token == "" || !errors.As(err, &urlErr) {
		return err
	}
	cp := *urlErr
	cp.URL = strings.ReplaceAll(cp.URL, c.token, tokenPlaceholder)
	return &cp
}

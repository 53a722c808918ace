package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kardianos/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/internal/security"
)

const testToken = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

// execute runs the CLI with args against a temporary configuration.
func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sealdrop.yaml")
	body := "version: \"1\"\ndata_dir: " + dir + "\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// fakeBotAPI accepts every call and counts uploads.
func fakeBotAPI(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var uploads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendAudio") {
			uploads.Add(1)
			_, _ = io.Copy(io.Discard, r.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"id":1,"is_bot":true,"first_name":"bot"}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &uploads
}

func TestVersion(t *testing.T) {
	out, err := execute(t, writeConfig(t, ""), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sealdrop dev")
}

func TestConfigCheck(t *testing.T) {
	out, err := execute(t, writeConfig(t, ""), "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration OK")

	_, err = execute(t, writeConfig(t, "log:\n  level: loud\n"), "config", "check")
	assert.Error(t, err)
}

func TestConfigShow_Redacted(t *testing.T) {
	path := writeConfig(t, "gateway:\n  auth:\n    bearer_token: super-secret-value\n")
	out, err := execute(t, path, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "super-secret-value")
	assert.Contains(t, out, security.RedactPlaceholder)
}

func TestPrefsSetAndShow(t *testing.T) {
	path := writeConfig(t, "")

	_, err := execute(t, path, "prefs", "set", "upload", "true")
	require.ErrorIs(t, err, prefs.ErrNotConfigured)

	_, err = execute(t, path, "prefs", "set", "bot-token", testToken)
	require.NoError(t, err)
	_, err = execute(t, path, "prefs", "set", "chat-id", "-100")
	require.NoError(t, err)
	_, err = execute(t, path, "prefs", "set", "upload", "yes")
	require.Error(t, err)

	out, err := execute(t, path, "prefs", "set", "upload", "true")
	require.NoError(t, err)
	assert.Contains(t, out, "-100")

	out, err = execute(t, path, "prefs", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, testToken)
	assert.Contains(t, out, prefs.MaskToken(testToken))

	_, err = execute(t, path, "prefs", "set", "color", "blue")
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	api, uploads := fakeBotAPI(t)
	path := writeConfig(t, "telegram:\n  api_url: "+api.URL+"\n")

	_, err := execute(t, path, "prefs", "set", "bot-token", testToken)
	require.NoError(t, err)
	_, err = execute(t, path, "prefs", "set", "chat-id", "-100")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "song.flac")
	require.NoError(t, os.WriteFile(file, []byte("fLaC data"), 0o600))

	out, err := execute(t, path, "send", file, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "song.flac sent to Telegram")
	assert.Equal(t, int32(1), uploads.Load())

	out, err = execute(t, path, "send", "--auto", file)
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")
	assert.Equal(t, int32(1), uploads.Load())

	out, err = execute(t, path, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "song.flac")
	assert.Contains(t, out, "sendAudio")
}

func TestSend_Failures(t *testing.T) {
	path := writeConfig(t, "")

	_, err := execute(t, path, "send", filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestTest_FlagsTogether(t *testing.T) {
	_, err := execute(t, writeConfig(t, ""), "test", "--token", "1:abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--chat-id")
}

func TestTest_ExplicitCredentials(t *testing.T) {
	api, _ := fakeBotAPI(t)
	path := writeConfig(t, "telegram:\n  api_url: "+api.URL+"\n")

	out, err := execute(t, path, "test", "--token", testToken, "--chat-id", "-100")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected")
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p(0)
	p(50)
	p(100)
	assert.Equal(t, 3, strings.Count(buf.String(), "\r"))
	assert.Contains(t, buf.String(), " 50%")
	assert.Contains(t, buf.String(), "[##############################] 100%")
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "running", statusText(service.StatusRunning))
	assert.Equal(t, "stopped", statusText(service.StatusStopped))
	assert.Equal(t, "unknown", statusText(service.StatusUnknown))
}

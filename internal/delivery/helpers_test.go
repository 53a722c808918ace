package delivery

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/flemzord/sealdrop/internal/prefs"
)

const (
	testToken  = "123456:TEST_TOKEN"
	testChatID = "-100123"
)

// capturedUpload is what the fake API saw for a multipart request.
type capturedUpload struct {
	method   string
	fields   map[string]string
	field    string
	filename string
	mimeType string
	size     int
}

// fakeAPI is a Bot API stand-in that counts requests per method.
type fakeAPI struct {
	srv *httptest.Server

	calls   atomic.Int32
	getMe   atomic.Int32
	sendMsg atomic.Int32
	uploads atomic.Int32

	mu       sync.Mutex
	status   map[string]int
	bodies   map[string]string
	upload   *capturedUpload
	messages []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{status: map[string]int{}, bodies: map[string]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle(t)))
	t.Cleanup(f.srv.Close)
	return f
}

// respond makes method answer with status and body.
func (f *fakeAPI) respond(method string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[method] = status
	f.bodies[method] = body
}

func (f *fakeAPI) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.messages)
}

func (f *fakeAPI) lastUpload() *capturedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upload
}

func (f *fakeAPI) handle(t *testing.T) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)

		prefix := "/bot" + testToken + "/"
		method, ok := strings.CutPrefix(r.URL.Path, prefix)
		if !ok {
			// Unknown tokens are rejected like the real API does.
			method = r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
			if method == "getMe" {
				f.getMe.Add(1)
			}
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
			return
		}

		switch method {
		case "getMe":
			f.getMe.Add(1)
		case "sendMessage":
			f.sendMsg.Add(1)
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
			}
			f.mu.Lock()
			f.messages = append(f.messages, r.PostForm.Get("text"))
			f.mu.Unlock()
		default:
			f.uploads.Add(1)
			f.captureUpload(t, method, r)
		}

		f.mu.Lock()
		status, custom := f.status[method]
		body := f.bodies[method]
		f.mu.Unlock()
		if !custom {
			status = http.StatusOK
			body = defaultResult(method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (f *fakeAPI) captureUpload(t *testing.T, method string, r *http.Request) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Errorf("Content-Type = %q, want multipart/form-data", r.Header.Get("Content-Type"))
		return
	}

	up := &capturedUpload{method: method, fields: map[string]string{}}
	mr := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Errorf("NextPart: %v", err)
			return
		}
		data, err := io.ReadAll(part)
		if err != nil {
			t.Errorf("read part: %v", err)
			return
		}
		if part.FileName() != "" {
			up.field = part.FormName()
			up.filename = part.FileName()
			up.mimeType = part.Header.Get("Content-Type")
			up.size = len(data)
			continue
		}
		up.fields[part.FormName()] = string(data)
	}

	f.mu.Lock()
	f.upload = up
	f.mu.Unlock()
}

func defaultResult(method string) string {
	var result any
	switch method {
	case "getMe":
		result = map[string]any{"id": 42, "is_bot": true, "first_name": "Drop", "username": "drop_bot"}
	default:
		result = map[string]any{"message_id": 7, "date": 0, "chat": map[string]any{"id": -100123, "type": "channel"}}
	}
	b, _ := json.Marshal(map[string]any{"ok": true, "result": result})
	return string(b)
}

func configuredPrefs() *prefs.MemoryStore {
	store := prefs.NewMemoryStore()
	_ = store.SetString(prefs.KeyBotToken, testToken)
	_ = store.SetString(prefs.KeyChatID, testChatID)
	_ = store.SetBool(prefs.KeyUploadEnabled, true)
	return store
}

func newTestService(t *testing.T, api *fakeAPI, store prefs.Reader, mutate ...func(*Options)) *Service {
	t.Helper()
	opts := Options{Prefs: store, BaseURL: api.srv.URL, HTTP: api.srv.Client()}
	for _, m := range mutate {
		m(&opts)
	}
	svc, err := NewService(opts)
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	return svc
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func sparseFile(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		t.Fatalf("truncate %s: %v", name, err)
	}
	return path
}

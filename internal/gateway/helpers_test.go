package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/internal/history"
	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/internal/security"
)

// fakeDeliverer records calls and replays a scripted result.
type fakeDeliverer struct {
	mu        sync.Mutex
	err       error
	probeErr  error
	uploadOn  bool
	targets   []delivery.UploadTarget
	probes    [][2]string
	lastProbe *delivery.ProbeResult
	block     chan struct{}
}

func (f *fakeDeliverer) Deliver(ctx context.Context, target delivery.UploadTarget, onProgress delivery.ProgressFunc) error {
	f.mu.Lock()
	f.targets = append(f.targets, target)
	err, block := f.err, f.block
	f.mu.Unlock()

	if onProgress != nil {
		onProgress(0)
		onProgress(50)
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(100)
	}
	return ctx.Err()
}

func (f *fakeDeliverer) AutoDeliver(ctx context.Context, target delivery.UploadTarget, onProgress delivery.ProgressFunc) (bool, error) {
	f.mu.Lock()
	on := f.uploadOn
	f.mu.Unlock()
	if !on {
		return false, nil
	}
	return true, f.Deliver(ctx, target, onProgress)
}

func (f *fakeDeliverer) TestConnection(_ context.Context, token, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, [2]string{token, chatID})
	return f.probeErr
}

func (f *fakeDeliverer) TestConfigured(ctx context.Context) error {
	return f.TestConnection(ctx, "", "")
}

func (f *fakeDeliverer) LastProbe() (delivery.ProbeResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastProbe == nil {
		return delivery.ProbeResult{}, false
	}
	return *f.lastProbe, true
}

func (f *fakeDeliverer) MaxFileSize() int64 { return delivery.MaxBotAPIFileSize }

func (f *fakeDeliverer) deliveredTargets() []delivery.UploadTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery.UploadTarget(nil), f.targets...)
}

type testEnv struct {
	gw      *Gateway
	handler http.Handler
	fake    *fakeDeliverer
	prefs   *prefs.MemoryStore
	history *history.InMemoryStore
	audit   *auditSink
}

type auditSink struct {
	mu     sync.Mutex
	events []security.AuditEvent
}

func (a *auditSink) record(ev security.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *auditSink) types() []security.EventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]security.EventType, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestEnv(t *testing.T, mutate ...func(*Config, *Options)) *testEnv {
	t.Helper()

	env := &testEnv{
		fake:    &fakeDeliverer{},
		prefs:   prefs.NewMemoryStore(),
		history: history.NewInMemoryStore(),
		audit:   &auditSink{},
	}
	cfg := Config{}
	opts := Options{
		Delivery: env.fake,
		Prefs:    env.prefs,
		History:  env.history,
		Gatherer: prometheus.NewRegistry(),
		Audit:    security.NewAuditLogger(security.AuditLoggerConfig{OnEvent: env.audit.record}),
		NewID:    func() string { return "d-1" },
	}
	for _, fn := range mutate {
		fn(&cfg, &opts)
	}

	gw, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	env.gw = gw
	env.handler = gw.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

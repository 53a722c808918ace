package delivery

import (
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/flemzord/sealdrop/internal/history"
	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/internal/telegram"
)

const tracerName = "github.com/flemzord/sealdrop/internal/delivery"

// Options configures a Service. Only Prefs is required.
type Options struct {
	// Prefs is read at the start of every call.
	Prefs prefs.Reader

	// HTTP is shared by every call. Defaults to a client built from
	// telegram.DefaultTransportConfig.
	HTTP telegram.Doer

	// BaseURL overrides telegram.DefaultBaseURL.
	BaseURL string

	// MaxFileSize overrides MaxBotAPIFileSize.
	MaxFileSize int64

	Messages Messages
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  *Metrics

	// History, when set, receives one record per delivery attempt.
	History history.Store

	Now   func() time.Time
	NewID func() string
	Stat  func(name string) (fs.FileInfo, error)
}

// Service delivers files and probes connectivity.
type Service struct {
	prefs    prefs.Reader
	http     telegram.Doer
	baseURL  string
	messages Messages
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *Metrics
	history  history.Store
	now      func() time.Time
	newID    func() string
	gate     Gate

	probeMu   sync.RWMutex
	lastProbe *ProbeResult
}

// NewService creates a Service from opts.
func NewService(opts Options) (*Service, error) {
	if opts.Prefs == nil {
		return nil, errors.New("delivery: preferences reader is required")
	}

	s := &Service{
		prefs:    opts.Prefs,
		http:     opts.HTTP,
		baseURL:  opts.BaseURL,
		messages: opts.Messages,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		metrics:  opts.Metrics,
		history:  opts.History,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.http == nil {
		s.http = telegram.NewHTTPClient(telegram.DefaultTransportConfig())
	}
	if s.messages == nil {
		s.messages = DefaultCatalog()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.gate = Gate{MaxFileSize: opts.MaxFileSize, Messages: s.messages, Stat: opts.Stat}

	return s, nil
}

// Messages returns the catalog used for user-facing texts.
func (s *Service) Messages() Messages {
	return s.messages
}

// MaxFileSize returns the effective upload limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.gate.limit()
}

func (s *Service) client(token string) *telegram.Client {
	return telegram.NewClient(token, s.baseURL, s.http)
}

func (s *Service) transportFailure(err error) error {
	return &Error{Kind: KindTransportFailure, Message: s.messages.Text(MsgTransportFailure, err), Err: err}
}

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/internal/security"
)

const maxRequestBody = 64 << 10

var errUnsupportedMedia = errors.New("request body must be application/json")

// kindStatus maps delivery failures to HTTP statuses.
var kindStatus = map[delivery.Kind]int{
	delivery.KindNotConfigured:    http.StatusPreconditionFailed,
	delivery.KindFileMissing:      http.StatusNotFound,
	delivery.KindFileTooLarge:     http.StatusRequestEntityTooLarge,
	delivery.KindInvalidToken:     http.StatusUnauthorized,
	delivery.KindChatUnreachable:  http.StatusFailedDependency,
	delivery.KindRemoteRejected:   http.StatusBadGateway,
	delivery.KindTransportFailure: http.StatusGatewayTimeout,
}

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

// writeDeliveryError writes a delivery or probe failure. The message is
// the user-facing text of the error.
func writeDeliveryError(w http.ResponseWriter, err error) {
	var derr *delivery.Error
	if !errors.As(err, &derr) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code, ok := kindStatus[derr.Kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, ErrorResponse{
		Error:      derr.Message,
		Kind:       derr.Kind.String(),
		StatusCode: derr.StatusCode,
		Body:       derr.Body,
	})
}

// decodeBody decodes a JSON request body into v and validates it. An empty
// body decodes to the zero value when allowEmpty is set.
func (g *Gateway) decodeBody(r *http.Request, v any, allowEmpty bool) error {
	if r.ContentLength != 0 && !isJSON(r.Header) {
		return errUnsupportedMedia
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return g.validateStruct(v)
}

// isJSON reports whether the Content-Type header names application/json.
func isJSON(h http.Header) bool {
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// writeBodyError answers a request whose body could not be decoded.
func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnsupportedMedia) {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func (g *Gateway) validateStruct(v any) error {
	err := g.validate.Struct(v)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := verrs[0]
	return fmt.Errorf("field %s failed %q validation", fe.Field(), fe.Tag())
}

// allow enforces the rate limit for action and writes 429 when exceeded.
func (g *Gateway) allow(w http.ResponseWriter, r *http.Request, action string) bool {
	if err := g.limiter.Allow(action); err == nil {
		return true
	}
	g.metrics.RecordRateLimited()
	g.opts.Audit.Log(security.AuditEvent{
		Type:   security.EventRateLimit,
		Remote: r.RemoteAddr,
		Path:   r.URL.Path,
		Detail: action,
	})
	retry := g.limiter.RetryAfter(action)
	w.Header().Set("Retry-After", strconv.Itoa(int((retry+time.Second-1)/time.Second)))
	writeError(w, http.StatusTooManyRequests, "too many requests")
	return false
}

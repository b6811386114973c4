// Package server exposes the pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/format   format a fixture, returns [pipeline.Result]
//	POST /v1/indent   indent query at an offset, returns [pipeline.IndentResult]
//	POST /v1/dump     wrapper tree dump in json, text, dot or svg
//	GET  /healthz     liveness probe
//
// Request bodies embed [pipeline.Options]. Errors are returned as JSON
// objects with the error code and a user-facing message:
//
//	{"code": "INVALID_FIXTURE", "error": "bad.blk:3:5: unexpected token"}
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/observability"
	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

// MaxBodyBytes limits the size of request bodies.
const MaxBodyBytes = 4 << 20

// RequestTimeout bounds the work done for a single request.
const RequestTimeout = 30 * time.Second

// IndentRequest is the body of POST /v1/indent.
type IndentRequest struct {
	pipeline.Options
	Offset int `json:"offset"`
}

// DumpRequest is the body of POST /v1/dump.
type DumpRequest struct {
	pipeline.Options
	Dump pipeline.DumpOptions `json:"dump"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

type server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// New returns the HTTP handler serving runner. A nil logger uses
// log.Default().
func New(runner *pipeline.Runner, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	s := &server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/format", s.format)
		r.Post("/indent", s.indent)
		r.Post("/dump", s.dump)
	})
	return r
}

// =============================================================================
// Handlers
// =============================================================================

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) format(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if !s.decode(w, r, &opts) {
		return
	}
	opts.Logger = s.logger
	res, err := s.runner.Format(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *server) indent(w http.ResponseWriter, r *http.Request) {
	var req IndentRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Logger = s.logger
	res, err := s.runner.IndentAt(r.Context(), req.Options, req.Offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *server) dump(w http.ResponseWriter, r *http.Request) {
	var req DumpRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.Logger = s.logger
	req.Dump.SetDefaults()
	data, err := s.runner.Dump(r.Context(), req.Options, req.Dump)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(req.Dump.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Encoding
// =============================================================================

func (s *server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return false
	}
	return true
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request", RequestIDFrom(r.Context()), "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", code, "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{Code: code, Error: errors.UserMessage(err)})
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFixture, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidRange, errors.ErrCodeInvalidBlockTree:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeFormattingDiverged, errors.ErrCodeModelMutation:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatJSON:
		return "application/json"
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "text/plain; charset=utf-8"
	}
}

// =============================================================================
// Middleware
// =============================================================================

type requestIDKey struct{}

// RequestIDFrom returns the request ID assigned by the server, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// observe reports requests to the HTTP hooks and logs them. Requests
// without an X-Request-Id header get a random one.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		r = r.WithContext(ctx)
		w.Header().Set(middleware.RequestIDHeader, id)

		hooks := observability.HTTP()
		hooks.OnRequest(ctx, r.Method, r.URL.Path)
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		hooks.OnResponse(ctx, r.Method, r.URL.Path, status, duration)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"id", id,
			"duration", duration)
	})
}

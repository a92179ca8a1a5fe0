package auth

import (
	"encoding/json"
	stdliberrors "errors"
	"net/http"
	"strings"

	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// AuthRecorder counts authentication outcomes.
type AuthRecorder interface {
	RecordAuth(ok bool, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(bool, string) {}

// Middleware authenticates bearer tokens and stores the user on the request
// context.
type Middleware struct {
	verifier     TokenVerifier
	logger       logging.Logger
	recorder     AuthRecorder
	skipPaths    map[string]bool
	skipPrefixes []string
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(m *Middleware) {
		for _, p := range paths {
			m.skipPaths[p] = true
		}
	}
}

func WithSkipPrefixes(prefixes ...string) MiddlewareOption {
	return func(m *Middleware) {
		m.skipPrefixes = append(m.skipPrefixes, prefixes...)
	}
}

func WithRecorder(r AuthRecorder) MiddlewareOption {
	return func(m *Middleware) {
		if r != nil {
			m.recorder = r
		}
	}
}

func NewMiddleware(verifier TokenVerifier, logger logging.Logger, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		verifier:  verifier,
		logger:    logger,
		recorder:  nopRecorder{},
		skipPaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			m.fail(w, r, err, "header")
			return
		}

		u, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.fail(w, r, err, "token")
			return
		}

		m.recorder.RecordAuth(true, "")
		next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), u)))
	})
}

func (m *Middleware) skip(path string) bool {
	if m.skipPaths[path] {
		return true
	}
	for _, prefix := range m.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *Middleware) fail(w http.ResponseWriter, r *http.Request, err error, reason string) {
	// The token itself is never logged.
	m.logger.Warn("authentication failed",
		logging.String("path", r.URL.Path),
		logging.String("remote_addr", r.RemoteAddr),
		logging.Err(err))
	m.recorder.RecordAuth(false, reason)
	writeAuthError(w, err)
}

func writeAuthError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="launch-radar"`)
	}
	msg := "access denied"
	var appErr *errors.AppError
	if stdliberrors.As(err, &appErr) {
		msg = appErr.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": string(code), "message": msg})
}

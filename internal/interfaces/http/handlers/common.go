package handlers

import (
	"encoding/json"
	stdliberrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// maxBodyBytes bounds JSON request bodies. Market imports are the largest.
const maxBodyBytes = 4 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError renders err with the HTTP status of its code. Server-side
// failures are logged and their message is replaced.
func writeAppError(w http.ResponseWriter, logger logging.Logger, r *http.Request, err error) {
	code := errorCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code), Message: errors.DefaultMessageForCode(code)}
	var appErr *errors.AppError
	if stdliberrors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("code", string(code)),
			logging.Err(err))
		resp.Message = errors.DefaultMessageForCode(code)
		resp.Detail = ""
	}
	writeJSON(w, status, resp)
}

// errorCode treats errors without an application code as internal.
func errorCode(err error) errors.ErrorCode {
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		return code
	}
	return errors.ErrCodeInternal
}

// decodeJSON reads one JSON document into dst. Unknown fields are rejected
// so typos in patch bodies do not silently no-op.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "invalid request body")
	}
	return nil
}

// queryList reads a parameter given either as a comma list or repeated.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

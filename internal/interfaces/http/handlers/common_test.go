package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/testutil"
	apperrors "github.com/turtacn/launch-radar/pkg/errors"
)

func TestWriteAppError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", apperrors.New(apperrors.ErrCodeMarketNotFound, "market not found").WithDetail("atlantis"),
			http.StatusNotFound, string(apperrors.ErrCodeMarketNotFound), "market not found"},
		{"transition", apperrors.New(apperrors.ErrCodeTransitionNotAllowed, "transition not allowed"),
			http.StatusConflict, string(apperrors.ErrCodeTransitionNotAllowed), "transition not allowed"},
		{"forbidden", apperrors.Forbidden("access denied"),
			http.StatusForbidden, string(apperrors.ErrCodeForbidden), "access denied"},
		{"plain error is masked", errors.New("pq: password authentication failed"),
			http.StatusInternalServerError, string(apperrors.ErrCodeInternal), apperrors.DefaultMessageForCode(apperrors.ErrCodeInternal)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := testutil.NewMockLogger()
			w := httptest.NewRecorder()
			writeAppError(w, logger, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)

			assert.Equal(t, tc.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Code)
			assert.Equal(t, tc.message, resp.Message)
			assert.Equal(t, tc.status >= 500, logger.HasMessage("error", "request failed"))
		})
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Body = http.NoBody
	assert.Error(t, decodeJSON(req, &dst))

	w := serve(http.MethodPost, "/x", func(w http.ResponseWriter, r *http.Request) {
		err := decodeJSON(r, &dst)
		assert.True(t, apperrors.IsValidation(err))
		w.WriteHeader(http.StatusNoContent)
	}, "/x", `{"name":"a","nmae":"b"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestQueryList(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?product=p-1,p-2&product=p-3&product=", nil)
	assert.Equal(t, []string{"p-1", "p-2", "p-3"}, queryList(req, "product"))
	assert.Nil(t, queryList(req, "market"))
}

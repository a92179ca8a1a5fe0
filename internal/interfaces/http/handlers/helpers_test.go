package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/launch-radar/internal/domain/user"
)

// serve mounts h on pattern and sends one request to target as an editor.
func serve(method, pattern string, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(user.WithUser(req.Context(), &user.User{ID: "u-editor", Role: user.RoleEditor}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

package cli

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiServer serves canned JSON per "METHOD path" and records requests.
type apiServer struct {
	*httptest.Server
	routes map[string]string
	status map[string]int
	seen   []*http.Request
	bodies []string
}

func newAPIServer(t *testing.T, routes map[string]string) *apiServer {
	t.Helper()
	s := &apiServer{routes: routes, status: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.seen = append(s.seen, r)
		s.bodies = append(s.bodies, string(body))

		key := r.Method + " " + r.URL.Path
		resp, ok := s.routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"NOT_FOUND","message":"no route `+key+`"}`)
			return
		}
		if code, ok := s.status[key]; ok {
			w.WriteHeader(code)
		}
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) args(args ...string) []string {
	return append([]string{"--server", s.URL, "--token", "tok"}, args...)
}

func TestMarketsList_Table(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"GET /api/v1/markets": `[{"id":"gb","name":"United Kingdom","type":"country","parent_id":"r-3","code":"GB"}]`,
	})

	out, _, err := run(t, srv.args("markets", "list", "--parent", "r-3")...)
	require.NoError(t, err)
	assert.Contains(t, out, "United Kingdom")
	assert.Contains(t, out, "NAME")
	assert.Equal(t, "r-3", srv.seen[0].URL.Query().Get("parent"))
	assert.Equal(t, "Bearer tok", srv.seen[0].Header.Get("Authorization"))
}

func TestMarkets_RetriesFlag(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"GET /api/v1/markets": `{"code":"COMMON_500","message":"unavailable"}`,
	})
	srv.status["GET /api/v1/markets"] = http.StatusServiceUnavailable

	_, _, err := run(t, srv.args("--retries", "0", "markets", "list")...)
	require.Error(t, err)
	assert.Len(t, srv.seen, 1)

	_, _, err = run(t, srv.args("--retries", "1", "markets", "list")...)
	require.Error(t, err)
	assert.Len(t, srv.seen, 3)
}

func TestMarketsAncestors_JSON(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"GET /api/v1/markets/lon/ancestors": `[{"id":"lon","name":"London","type":"city"},{"id":"gb","name":"United Kingdom","type":"country"}]`,
	})

	out, _, err := run(t, srv.args("-o", "json", "markets", "ancestors", "lon")...)
	require.NoError(t, err)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 2)
}

func TestMarkets_APIErrorSurfaces(t *testing.T) {
	srv := newAPIServer(t, map[string]string{})
	_, _, err := run(t, srv.args("markets", "cities", "atlantis")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestHeatmap_Table(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"GET /api/v1/dashboard/heatmap": `{
			"level":"country","breadcrumb":"EMEA > Western Europe","metric":"city_pct",
			"columns":[{"id":"gb","name":"United Kingdom","type":"country"},{"id":"fr","name":"France","type":"country"}],
			"rows":[{"product_id":"p-1","product_name":"Wallet","total":37.5,
				"cells":[{"market_id":"gb","value":75,"flags":{"blocked":true,"blocker_count":1}},{"market_id":"fr","value":null,"flags":{}}]},
				{"product_id":"p-2","product_name":"Ledger","total":null,
				"cells":[{"market_id":"gb","value":null,"flags":{}},{"market_id":"fr","value":null,"flags":{}}]}]}`,
	})

	out, errOut, err := run(t, srv.args("heatmap", "--parent", "r-3", "--product", "p-1,p-2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet")
	assert.Contains(t, out, "75%*")
	assert.Contains(t, out, "37.5%")
	assert.Contains(t, out, "Ledger")
	assert.NotContains(t, out, "0.0%", "a row without data has no total")
	assert.Contains(t, errOut, "EMEA > Western Europe")
	assert.Equal(t, "p-1,p-2", srv.seen[0].URL.Query().Get("product"))
}

func TestPersonal_Warnings(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"GET /api/v1/radar": `{"filter":{"personal_view":true},"rows":[
			{"product":{"id":"p-1","name":"Wallet"},"blockers":[{"id":"b-1","category":"Legal"}],"coverage":50,"blocked_count":1,"total_count":2}],
			"warnings":["product p-9 not found"]}`,
	})

	out, errOut, err := run(t, srv.args("personal", "--regions", "EMEA", "--product", "p-9")...)
	require.NoError(t, err)
	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "Legal")
	assert.Contains(t, errOut, "product p-9 not found")
	q := srv.seen[0].URL.Query()
	assert.Equal(t, "EMEA", q.Get("regions"))
	assert.Equal(t, "true", q.Get("personalView"))
}

func TestBlockersCreate(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"POST /api/v1/blockers": `{"id":"b-1","product_id":"p-1","market_id":"lon","category":"Legal"}`,
	})

	out, _, err := run(t, srv.args("blockers", "create", "--product", "p-1", "--market", "lon",
		"--category", "Legal", "--eta", "2024-07-01")...)
	require.NoError(t, err)
	assert.Contains(t, out, "b-1")
	assert.Contains(t, srv.bodies[0], `"eta":"2024-07-01T00:00:00Z"`)
}

func TestBlockersCreate_BadETA(t *testing.T) {
	srv := newAPIServer(t, map[string]string{})
	_, _, err := run(t, srv.args("blockers", "create", "--product", "p-1", "--market", "lon",
		"--category", "Legal", "--eta", "next week")...)
	require.Error(t, err)
	assert.Empty(t, srv.seen)
}

func TestBlockersResolve_Many(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"PATCH /api/v1/blockers": `{"updated":[{"id":"b-1","resolved":true}],"error":{"code":"COMMON_012","message":"bulk edit stopped before completing"}}`,
	})
	srv.status["PATCH /api/v1/blockers"] = http.StatusMultiStatus

	out, _, err := run(t, srv.args("blockers", "resolve", "b-1", "b-2")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMMON_012")
	assert.Contains(t, out, "b-1")
	assert.Contains(t, srv.bodies[0], `"resolved":true`)
}

func TestEscalationsStatus_HistoryWarning(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"POST /api/v1/escalations/esc-1/status": `{"escalation":{"esc_id":"esc-1","status":"IN_DISCUSSION","scope_level":"CITY","city_id":"lon"},"history_recorded":false}`,
	})

	out, errOut, err := run(t, srv.args("escalations", "status", "esc-1", "IN_DISCUSSION", "--notes", "call booked")...)
	require.NoError(t, err)
	assert.Contains(t, out, "IN_DISCUSSION")
	assert.Contains(t, errOut, "history entry was not recorded")
	assert.JSONEq(t, `{"status":"IN_DISCUSSION","notes":"call booked"}`, srv.bodies[0])
}

func TestEscalationsList(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"GET /api/v1/escalations": `[{"esc_id":"esc-1","product_id":"p-1","scope_level":"COUNTRY","country_code":"GB","status":"SUBMITTED"}]`,
	})

	out, _, err := run(t, srv.args("escalations", "list", "--status", "SUBMITTED", "--open")...)
	require.NoError(t, err)
	assert.Contains(t, out, "GB")
	assert.Equal(t, "SUBMITTED", srv.seen[0].URL.Query().Get("status"))
	assert.Equal(t, "true", srv.seen[0].URL.Query().Get("open"))
}

func TestEscalationsHistory_Empty(t *testing.T) {
	srv := newAPIServer(t, map[string]string{
		"GET /api/v1/escalations/esc-1/history": `[]`,
	})
	out, errOut, err := run(t, srv.args("escalations", "history", "esc-1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "(no results)")
	assert.Contains(t, errOut, "no history recorded")
}

func TestTokenIssue(t *testing.T) {
	t.Setenv("RADAR_AUTH_JWT_SECRET", "0123456789abcdef0123")

	out, _, err := run(t, "-o", "json", "token", "issue", "--user", "u-42", "--role", "editor")
	require.NoError(t, err)
	var got issuedToken
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "u-42", got.Subject)
	assert.Equal(t, 2, strings.Count(got.Token, "."))

	_, _, err = run(t, "token", "issue", "--user", "u-42", "--role", "owner")
	assert.Error(t, err)
}

type fakeMigrator struct {
	ups, downs int
	steps      int
	closed     bool
	err        error
}

func (f *fakeMigrator) Up() error { f.ups++; return f.err }
func (f *fakeMigrator) Down(steps int) error {
	f.downs++
	f.steps = steps
	return f.err
}
func (f *fakeMigrator) Status() (uint, bool, error) { return 3, false, nil }
func (f *fakeMigrator) Close() error                { f.closed = true; return nil }

func withMigrator(t *testing.T, m *fakeMigrator) {
	t.Helper()
	prev := openMigrator
	openMigrator = func(*CLIContext) (Migrator, error) { return m, nil }
	t.Cleanup(func() { openMigrator = prev })
}

func TestMigrate(t *testing.T) {
	m := &fakeMigrator{}
	withMigrator(t, m)

	out, _, err := run(t, "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, 1, m.ups)
	assert.True(t, m.closed)
	assert.Contains(t, out, "schema version 3 (clean)")

	_, _, err = run(t, "migrate", "down", "--steps", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, m.steps)
}

func TestMigrate_Failure(t *testing.T) {
	m := &fakeMigrator{err: errors.New("dirty database")}
	withMigrator(t, m)

	_, _, err := run(t, "migrate", "up")
	assert.EqualError(t, err, "dirty database")
	assert.True(t, m.closed)
}

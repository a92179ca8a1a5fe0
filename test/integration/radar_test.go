//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/application/blockers"
	"github.com/turtacn/launch-radar/internal/application/catalog"
	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/escalations"
	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/auth"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/testutil"
)

func TestLaunchRadarEndToEnd(t *testing.T) {
	conn := startPostgres(t)
	log := logging.NewNopLogger()
	enforcer := auth.NewEnforcer(nil, log)

	markets := repositories.NewPostgresMarketRepo(conn, log)
	products := repositories.NewPostgresProductRepo(conn, log)
	cells := repositories.NewPostgresCoverageRepo(conn, log)
	blockerRepo := repositories.NewPostgresBlockerRepo(conn, log)
	escRepo := repositories.NewPostgresEscalationRepo(conn, log)
	history := repositories.NewPostgresEscalationHistoryRepo(conn, log)

	loader := dashboard.NewLoader(dashboard.Repositories{
		Markets:     markets,
		Products:    products,
		Coverage:    cells,
		Blockers:    blockerRepo,
		Escalations: escRepo,
	}, 10*time.Second)
	store := dashboard.NewStore(loader, time.Minute, nil, nil, log)

	catalogSvc, err := catalog.NewService(catalog.Deps{
		Markets: markets, Products: products, Coverage: cells,
		Authz: enforcer, Invalidator: store, Logger: log,
	})
	require.NoError(t, err)
	blockerSvc, err := blockers.NewService(blockers.Deps{
		Repo: blockerRepo, Authz: enforcer, Invalidator: store, Logger: log, StaleAfter: time.Millisecond,
	})
	require.NoError(t, err)
	escSvc, err := escalations.NewService(escalations.Deps{
		Repo: escRepo, History: history, Authz: enforcer, Invalidator: store, Logger: log,
	})
	require.NoError(t, err)

	admin := testutil.AsUser(user.RoleAdmin)
	editor := testutil.AsUser(user.RoleEditor)

	imported, err := catalogSvc.Import(admin, catalog.ImportRequest{Markets: []*market.Market{
		{ID: "emea", Name: "EMEA", Level: market.LevelMegaRegion},
		{ID: "weu", Name: "Western Europe", Level: market.LevelRegion, ParentID: "emea"},
		{ID: "gb", Name: "United Kingdom", Level: market.LevelCountry, ParentID: "weu", Code: "GB"},
		{ID: "lon", Name: "London", Level: market.LevelCity, ParentID: "gb"},
		{ID: "man", Name: "Manchester", Level: market.LevelCity, ParentID: "gb"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 5, imported.Created)

	p, err := catalogSvc.CreateProduct(admin, product.Input{Name: "Wallet"})
	require.NoError(t, err)

	_, err = catalogSvc.UpsertCell(editor, catalog.CellInput{ProductID: p.ID, MarketID: "lon", Value: 80})
	require.NoError(t, err)
	_, err = catalogSvc.UpsertCell(editor, catalog.CellInput{ProductID: p.ID, MarketID: "man", Value: 40})
	require.NoError(t, err)

	b, err := blockerSvc.Create(editor, blocker.CreateInput{
		ProductID: p.ID, MarketID: "man", Category: "legal", Owner: "dana", Note: "licence pending",
	})
	require.NoError(t, err)
	assert.False(t, b.Resolved)

	raised, err := escSvc.Raise(editor, escalation.RaiseInput{
		ProductID: p.ID, ScopeLevel: escalation.ScopeCity, CityID: "lon", POC: "dana", Reason: "partner ready",
	})
	require.NoError(t, err)
	require.True(t, raised.HistoryRecorded)

	moved, err := escSvc.ChangeStatus(admin, raised.Escalation.ID,
		escalation.StatusChangePatch{Status: escalation.StatusInDiscussion, Notes: "call booked"})
	require.NoError(t, err)
	assert.True(t, moved.HistoryRecorded)

	rows, err := escSvc.History(editor, raised.Escalation.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	statuses := []escalation.Status{rows[0].NewStatus, rows[1].NewStatus}
	assert.ElementsMatch(t, []escalation.Status{escalation.StatusSubmitted, escalation.StatusInDiscussion}, statuses)

	st, err := store.Get(context.Background())
	require.NoError(t, err)
	hm, err := dashboard.BuildHeatmap(st, dashboard.HeatmapQuery{
		Level: market.LevelCity, ParentID: "gb", Metric: coverage.MetricCityPct,
	}, time.Now())
	require.NoError(t, err)
	require.Len(t, hm.Rows, 1)
	row := hm.Rows[0]
	require.Len(t, row.Cells, 2)

	byMarket := map[string]dashboard.HeatmapCell{}
	for _, c := range row.Cells {
		byMarket[c.MarketID] = c
	}
	require.NotNil(t, byMarket["lon"].Value)
	assert.InDelta(t, 80, *byMarket["lon"].Value, 0.001)
	assert.True(t, byMarket["man"].Flags.Blocked)
	assert.False(t, byMarket["lon"].Flags.Blocked)
	require.NotNil(t, row.Total)
	assert.InDelta(t, 60, *row.Total, 0.001)

	// Country level falls back to the mean of its cities.
	country, err := dashboard.BuildHeatmap(st, dashboard.HeatmapQuery{
		Level: market.LevelCountry, ParentID: "weu", Metric: coverage.MetricCityPct,
	}, time.Now())
	require.NoError(t, err)
	require.Len(t, country.Rows[0].Cells, 1)
	gb := country.Rows[0].Cells[0]
	require.NotNil(t, gb.Value)
	assert.InDelta(t, 60, *gb.Value, 0.001)
	assert.Equal(t, dashboard.SourceCities, gb.Source)

	time.Sleep(5 * time.Millisecond)
	marked, err := blockerSvc.SweepStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	resolved, err := blockerSvc.Resolve(editor, b.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.False(t, resolved.Stale)

	open, err := blockerSvc.List(editor, blocker.Filter{ProductIDs: []string{p.ID}, UnresolvedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestMarketDeleteRefusesOrphans(t *testing.T) {
	conn := startPostgres(t)
	log := logging.NewNopLogger()
	svc, err := catalog.NewService(catalog.Deps{
		Markets:  repositories.NewPostgresMarketRepo(conn, log),
		Products: repositories.NewPostgresProductRepo(conn, log),
		Coverage: repositories.NewPostgresCoverageRepo(conn, log),
		Authz:    auth.NewEnforcer(nil, log),
		Logger:   log,
	})
	require.NoError(t, err)
	admin := testutil.AsUser(user.RoleAdmin)

	_, err = svc.Import(admin, catalog.ImportRequest{Markets: []*market.Market{
		{ID: "amer", Name: "Americas", Level: market.LevelMegaRegion},
		{ID: "nam", Name: "North America", Level: market.LevelRegion, ParentID: "amer"},
	}})
	require.NoError(t, err)

	_, err = svc.BulkDelete(admin, []string{"amer"})
	require.Error(t, err)

	res, err := svc.BulkDelete(admin, []string{"amer", "nam"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
}

package radar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
)

func mkt(id string, level market.Level, parent string) *market.Market {
	return &market.Market{ID: id, Name: id, Level: level, ParentID: parent}
}

// r-3 > c-1 > city-5, city-6; r-3 > c-2 > city-7; r-4 > c-3 > city-8
func allMarkets() []*market.Market {
	return []*market.Market{
		mkt("mr-1", market.LevelMegaRegion, ""),
		mkt("r-3", market.LevelRegion, "mr-1"),
		mkt("r-4", market.LevelRegion, "mr-1"),
		mkt("c-1", market.LevelCountry, "r-3"),
		mkt("c-2", market.LevelCountry, "r-3"),
		mkt("c-3", market.LevelCountry, "r-4"),
		mkt("city-5", market.LevelCity, "c-1"),
		mkt("city-6", market.LevelCity, "c-1"),
		mkt("city-7", market.LevelCity, "c-2"),
		mkt("city-8", market.LevelCity, "c-3"),
	}
}

func idsOf(ms []*market.Market) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestResolveUserMarkets_SingleLevel(t *testing.T) {
	got := ResolveUserMarkets([]string{"r-3"}, nil, allMarkets())

	assert.Equal(t, []string{"r-3", "c-1", "c-2"}, idsOf(got))
	assert.NotContains(t, idsOf(got), "city-5", "grandchildren of a region are not included")
}

func TestResolveUserMarkets_CountryListedToo(t *testing.T) {
	got := ResolveUserMarkets([]string{"r-3", "c-1"}, []string{"c-3"}, allMarkets())
	assert.Equal(t, []string{"r-3", "c-1", "c-2", "c-3", "city-5", "city-6"}, idsOf(got), "city-8 sits under a listed country, not a listed region")
}

func TestResolveUserMarkets_Empty(t *testing.T) {
	assert.Empty(t, ResolveUserMarkets(nil, nil, allMarkets()))
}

func TestBuildProductBlockerRollup(t *testing.T) {
	scope := ResolveUserMarkets([]string{"c-1"}, []string{"city-7"}, allMarkets())
	require.Equal(t, []string{"c-1", "city-5", "city-6", "city-7"}, idsOf(scope))

	blockers := []*blocker.Blocker{
		{ID: "b-1", ProductID: "p-1", MarketID: "city-5"},
		{ID: "b-2", ProductID: "p-1", MarketID: "city-5"},
		{ID: "b-3", ProductID: "p-1", MarketID: "c-1"},
		{ID: "b-4", ProductID: "p-1", MarketID: "city-6", Resolved: true},
		{ID: "b-5", ProductID: "p-1", MarketID: "city-8"},
		{ID: "b-6", ProductID: "p-2", MarketID: "city-7"},
	}
	products := []*product.Product{{ID: "p-1"}, {ID: "p-2"}, {ID: "p-3"}}

	rows := BuildProductBlockerRollup(scope, blockers, products)
	require.Len(t, rows, 3)

	p1 := rows[0]
	assert.Len(t, p1.Blockers, 3, "b-1, b-2 and the country-level b-3")
	assert.Equal(t, 1, p1.BlockedCount)
	assert.Equal(t, 3, p1.TotalCount)
	assert.InDelta(t, 66.666, p1.Coverage, 0.001)

	assert.Equal(t, 1, rows[1].BlockedCount)
	assert.Equal(t, 100.0, rows[2].Coverage)
	assert.Empty(t, rows[2].Blockers)
}

func TestBuildProductBlockerRollup_NoCities(t *testing.T) {
	rows := BuildProductBlockerRollup([]*market.Market{mkt("r-3", market.LevelRegion, "mr-1")}, nil, []*product.Product{{ID: "p-1"}})
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].TotalCount)
	assert.Zero(t, rows[0].Coverage)
}

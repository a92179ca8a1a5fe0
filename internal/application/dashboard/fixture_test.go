package dashboard

import (
	"time"

	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func mkt(id, name string, level market.Level, parent string) *market.Market {
	return &market.Market{ID: id, Name: name, Level: level, ParentID: parent}
}

func fixtureMarkets() []*market.Market {
	gb := mkt("gb", "United Kingdom", market.LevelCountry, "weu")
	gb.Code = "GB"
	return []*market.Market{
		mkt("emea", "EMEA", market.LevelMegaRegion, ""),
		mkt("apac", "APAC", market.LevelMegaRegion, ""),
		mkt("weu", "Western Europe", market.LevelRegion, "emea"),
		mkt("sea", "South East Asia", market.LevelRegion, "apac"),
		gb,
		mkt("fr", "France", market.LevelCountry, "weu"),
		mkt("sg", "Singapore", market.LevelCountry, "sea"),
		mkt("lon", "London", market.LevelCity, "gb"),
		mkt("man", "Manchester", market.LevelCity, "gb"),
		mkt("par", "Paris", market.LevelCity, "fr"),
		mkt("sgc", "Singapore City", market.LevelCity, "sg"),
	}
}

func cell(p, m string, v float64) *coverage.Cell {
	return &coverage.Cell{ProductID: p, MarketID: m, Metric: coverage.MetricCityPct, Value: v, UpdatedAt: t0}
}

func fixtureSnapshot() Snapshot {
	return Snapshot{
		Markets: fixtureMarkets(),
		Products: []*product.Product{
			{ID: "p-2", Name: "Wallet", Status: product.StatusInProgress},
			{ID: "p-1", Name: "checkout", Status: product.StatusLaunched},
		},
		Cells: []*coverage.Cell{
			cell("p-1", "lon", 100),
			cell("p-1", "man", 0),
			cell("p-1", "par", 50),
			cell("p-2", "lon", 80),
		},
		Blockers: []*blocker.Blocker{
			{ID: "b-1", ProductID: "p-1", MarketID: "man", Category: "Legal", Note: "licence pending", CreatedAt: t0},
			{ID: "b-2", ProductID: "p-1", MarketID: "lon", Category: "Ops", Resolved: true, CreatedAt: t0},
		},
		Escalations: []*escalation.Escalation{
			{ID: "esc-1", ProductID: "p-1", ScopeLevel: escalation.ScopeCountry, CountryCode: "GB", Status: escalation.StatusSubmitted, CreatedAt: t0},
		},
	}
}

func fixtureState() *State {
	return NewState(fixtureSnapshot(), t0)
}

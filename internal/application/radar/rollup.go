package radar

import (
	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
)

// ResolveUserMarkets returns the markets listed in regions or countries plus
// the direct children of the listed regions, in allMarkets order.
//
// Only one level is matched: a city whose country sits under a selected
// region is included only when that country is listed too.
func ResolveUserMarkets(regions, countries []string, allMarkets []*market.Market) []*market.Market {
	regionSet := toSet(regions)
	countrySet := toSet(countries)

	var out []*market.Market
	for _, m := range allMarkets {
		if m == nil {
			continue
		}
		if regionSet[m.ID] || countrySet[m.ID] || (m.ParentID != "" && regionSet[m.ParentID]) {
			out = append(out, m)
		}
	}
	return out
}

// RollupRow is one product of the personal radar. Coverage here counts
// cities without an active blocker; it is not the heatmap cell average.
type RollupRow struct {
	Product      *product.Product   `json:"product"`
	Blockers     []*blocker.Blocker `json:"blockers"`
	Coverage     float64            `json:"coverage"`
	BlockedCount int                `json:"blocked_count"`
	TotalCount   int                `json:"total_count"`
}

// BuildProductBlockerRollup groups the unresolved blockers that fall in
// userMarkets by product. BlockedCount and TotalCount are taken over the
// city-level markets of userMarkets only, and
// Coverage = (TotalCount - BlockedCount) / TotalCount * 100, or 0 when
// there are no cities. Every product gets a row, in products order.
func BuildProductBlockerRollup(userMarkets []*market.Market, blockers []*blocker.Blocker, products []*product.Product) []RollupRow {
	inScope := make(map[string]bool, len(userMarkets))
	cities := make(map[string]bool)
	for _, m := range userMarkets {
		if m == nil {
			continue
		}
		inScope[m.ID] = true
		if m.IsCity() {
			cities[m.ID] = true
		}
	}

	byProduct := make(map[string][]*blocker.Blocker)
	blockedCities := make(map[string]map[string]bool)
	for _, b := range blockers {
		if b == nil || b.Resolved || !inScope[b.MarketID] {
			continue
		}
		byProduct[b.ProductID] = append(byProduct[b.ProductID], b)
		if cities[b.MarketID] {
			if blockedCities[b.ProductID] == nil {
				blockedCities[b.ProductID] = make(map[string]bool)
			}
			blockedCities[b.ProductID][b.MarketID] = true
		}
	}

	total := len(cities)
	rows := make([]RollupRow, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		blocked := len(blockedCities[p.ID])
		list := byProduct[p.ID]
		if list == nil {
			list = []*blocker.Blocker{}
		}
		rows = append(rows, RollupRow{
			Product:      p,
			Blockers:     list,
			Coverage:     cityCoverage(total, blocked),
			BlockedCount: blocked,
			TotalCount:   total,
		})
	}
	return rows
}

func cityCoverage(total, blocked int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-blocked) / float64(total) * 100
}

func toSet(ids []string) map[string]bool {
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

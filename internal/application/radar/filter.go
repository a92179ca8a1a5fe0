// Package radar builds the personalised "My Launch Radar" view: the user's
// selected markets and, per product, the cities blocked there.
package radar

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names. They are the only radar state kept in the URL.
const (
	ParamRegions      = "regions"
	ParamCountries    = "countries"
	ParamPersonalView = "personalView"
	ParamProduct      = "product"
	ParamMarket       = "market"
	ParamFocusComment = "focusComment"
)

// Filter is the radar selection carried in the URL.
type Filter struct {
	Regions      []string `json:"regions,omitempty"`
	Countries    []string `json:"countries,omitempty"`
	PersonalView bool     `json:"personal_view"`
	ProductID    string   `json:"product,omitempty"`
	MarketID     string   `json:"market,omitempty"`
	FocusComment string   `json:"focus_comment,omitempty"`
}

// ParseFilter reads a filter from query values. List parameters accept
// comma-separated values, repeated keys, or both. personalView defaults to
// true when a region or country is selected.
func ParseFilter(q url.Values) Filter {
	f := Filter{
		Regions:      splitList(q[ParamRegions]),
		Countries:    splitList(q[ParamCountries]),
		ProductID:    strings.TrimSpace(q.Get(ParamProduct)),
		MarketID:     strings.TrimSpace(q.Get(ParamMarket)),
		FocusComment: strings.TrimSpace(q.Get(ParamFocusComment)),
	}
	if raw := q.Get(ParamPersonalView); raw != "" {
		f.PersonalView, _ = strconv.ParseBool(raw)
	} else {
		f.PersonalView = len(f.Regions) > 0 || len(f.Countries) > 0
	}
	return f
}

// Encode renders f back into query values, omitting empty fields.
func (f Filter) Encode() url.Values {
	q := url.Values{}
	if len(f.Regions) > 0 {
		q.Set(ParamRegions, strings.Join(f.Regions, ","))
	}
	if len(f.Countries) > 0 {
		q.Set(ParamCountries, strings.Join(f.Countries, ","))
	}
	if f.PersonalView {
		q.Set(ParamPersonalView, "true")
	}
	if f.ProductID != "" {
		q.Set(ParamProduct, f.ProductID)
	}
	if f.MarketID != "" {
		q.Set(ParamMarket, f.MarketID)
	}
	if f.FocusComment != "" {
		q.Set(ParamFocusComment, f.FocusComment)
	}
	return q
}

// HasSelection reports whether any region or country is selected.
func (f Filter) HasSelection() bool {
	return len(f.Regions) > 0 || len(f.Countries) > 0
}

func splitList(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

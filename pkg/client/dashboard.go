package client

import (
	"context"
	"net/url"
	"strconv"
)

type DashboardClient struct {
	client *Client
}

func (d *DashboardClient) Heatmap(ctx context.Context, q HeatmapQuery) (*Heatmap, error) {
	v := url.Values{}
	if q.Level != "" {
		v.Set("level", q.Level)
	}
	if q.ParentID != "" {
		v.Set("parent", q.ParentID)
	}
	if q.Metric != "" {
		v.Set("metric", q.Metric)
	}
	listQuery(v, "product", q.ProductIDs)

	var h Heatmap
	if err := d.client.get(ctx, "/dashboard/heatmap", v, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Personal returns the personal radar for f.
func (d *DashboardClient) Personal(ctx context.Context, f RadarFilter) (*RadarView, error) {
	v := url.Values{}
	listQuery(v, "regions", f.Regions)
	listQuery(v, "countries", f.Countries)
	v.Set("personalView", strconv.FormatBool(f.PersonalView))
	if f.ProductID != "" {
		v.Set("product", f.ProductID)
	}
	if f.MarketID != "" {
		v.Set("market", f.MarketID)
	}
	if f.FocusComment != "" {
		v.Set("focusComment", f.FocusComment)
	}

	var view RadarView
	if err := d.client.get(ctx, "/radar", v, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

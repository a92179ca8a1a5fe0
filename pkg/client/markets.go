package client

import (
	"context"
	"net/url"

	"github.com/turtacn/launch-radar/pkg/errors"
)

type MarketsClient struct {
	client *Client
}

// List returns the children of parentID, or every market of level when
// level is set. Both empty lists the roots.
func (m *MarketsClient) List(ctx context.Context, level, parentID string) ([]*Market, error) {
	q := url.Values{}
	if level != "" {
		q.Set("level", level)
	}
	if parentID != "" {
		q.Set("parent", parentID)
	}
	var out []*Market
	if err := m.client.get(ctx, "/markets", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ancestors returns id followed by its parents up to the root.
func (m *MarketsClient) Ancestors(ctx context.Context, id string) ([]*Market, error) {
	if id == "" {
		return nil, errors.InvalidParam("market id is required")
	}
	var out []*Market
	if err := m.client.get(ctx, "/markets/"+url.PathEscape(id)+"/ancestors", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cities returns the city descendants of id.
func (m *MarketsClient) Cities(ctx context.Context, id string) ([]*Market, error) {
	if id == "" {
		return nil, errors.InvalidParam("market id is required")
	}
	var out []*Market
	if err := m.client.get(ctx, "/markets/"+url.PathEscape(id)+"/cities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

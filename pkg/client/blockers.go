package client

import (
	"context"
	"net/url"

	"github.com/turtacn/launch-radar/pkg/errors"
)

type BlockersClient struct {
	client *Client
}

// BlockerListOptions filters List.
type BlockerListOptions struct {
	ProductIDs     []string
	MarketIDs      []string
	UnresolvedOnly bool
}

func (b *BlockersClient) List(ctx context.Context, opts BlockerListOptions) ([]*Blocker, error) {
	q := url.Values{}
	listQuery(q, "product", opts.ProductIDs)
	listQuery(q, "market", opts.MarketIDs)
	if opts.UnresolvedOnly {
		q.Set("unresolved", "true")
	}
	var out []*Blocker
	if err := b.client.get(ctx, "/blockers", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BlockersClient) Create(ctx context.Context, req CreateBlockerRequest) (*Blocker, error) {
	var out Blocker
	if err := b.client.post(ctx, "/blockers", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *BlockersClient) Resolve(ctx context.Context, id string) (*Blocker, error) {
	if id == "" {
		return nil, errors.InvalidParam("blocker id is required")
	}
	var out Blocker
	if err := b.client.post(ctx, "/blockers/"+url.PathEscape(id)+"/resolve", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkUpdate applies p. When the server stops part way the blockers already
// written are returned together with an *APIError.
func (b *BlockersClient) BulkUpdate(ctx context.Context, p BlockerPatch) ([]*Blocker, error) {
	var resp struct {
		Updated []*Blocker `json:"updated"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := b.client.patch(ctx, "/blockers", p, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return resp.Updated, &APIError{StatusCode: 207, Code: resp.Error.Code, Message: resp.Error.Message}
	}
	return resp.Updated, nil
}

// Summary returns the unresolved blocker lines of one product.
func (b *BlockersClient) Summary(ctx context.Context, productID string) (*BlockerSummary, error) {
	if productID == "" {
		return nil, errors.InvalidParam("product id is required")
	}
	var out BlockerSummary
	if err := b.client.get(ctx, "/products/"+url.PathEscape(productID)+"/blocker-summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package client

import (
	"context"
	"net/url"

	"github.com/turtacn/launch-radar/pkg/errors"
)

type EscalationsClient struct {
	client *Client
}

type EscalationListOptions struct {
	ProductIDs []string
	Statuses   []string
	OpenOnly   bool
}

func (e *EscalationsClient) List(ctx context.Context, opts EscalationListOptions) ([]*Escalation, error) {
	q := url.Values{}
	listQuery(q, "product", opts.ProductIDs)
	listQuery(q, "status", opts.Statuses)
	if opts.OpenOnly {
		q.Set("open", "true")
	}
	var out []*Escalation
	if err := e.client.get(ctx, "/escalations", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *EscalationsClient) Raise(ctx context.Context, req RaiseEscalationRequest) (*EscalationResult, error) {
	var out EscalationResult
	if err := e.client.post(ctx, "/escalations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeStatus moves an escalation to status. Admin only.
func (e *EscalationsClient) ChangeStatus(ctx context.Context, id, status, notes string) (*EscalationResult, error) {
	if id == "" {
		return nil, errors.InvalidParam("escalation id is required")
	}
	body := map[string]string{"status": status}
	if notes != "" {
		body["notes"] = notes
	}
	var out EscalationResult
	if err := e.client.post(ctx, "/escalations/"+url.PathEscape(id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *EscalationsClient) History(ctx context.Context, id string) ([]*HistoryEntry, error) {
	if id == "" {
		return nil, errors.InvalidParam("escalation id is required")
	}
	var out []*HistoryEntry
	if err := e.client.get(ctx, "/escalations/"+url.PathEscape(id)+"/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/launch-radar/internal/domain/blocker"
	"github.com/turtacn/launch-radar/internal/domain/comment"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/escalation"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/domain/product"
)

type MarketRepo struct{ mock.Mock }

func (m *MarketRepo) List(ctx context.Context) ([]*market.Market, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*market.Market)
	return out, args.Error(1)
}

func (m *MarketRepo) GetByID(ctx context.Context, id string) (*market.Market, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*market.Market)
	return out, args.Error(1)
}

func (m *MarketRepo) BulkCreate(ctx context.Context, ms []*market.Market) (int, error) {
	args := m.Called(ctx, ms)
	return args.Int(0), args.Error(1)
}

func (m *MarketRepo) BulkDelete(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

type ProductRepo struct{ mock.Mock }

func (m *ProductRepo) List(ctx context.Context) ([]*product.Product, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*product.Product)
	return out, args.Error(1)
}

func (m *ProductRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*product.Product)
	return out, args.Error(1)
}

func (m *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return m.Called(ctx, p).Error(0)
}

type CoverageRepo struct{ mock.Mock }

func (m *CoverageRepo) List(ctx context.Context, f coverage.Filter) ([]*coverage.Cell, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]*coverage.Cell)
	return out, args.Error(1)
}

func (m *CoverageRepo) Get(ctx context.Context, productID, marketID string, metric coverage.Metric) (*coverage.Cell, error) {
	args := m.Called(ctx, productID, marketID, metric)
	out, _ := args.Get(0).(*coverage.Cell)
	return out, args.Error(1)
}

func (m *CoverageRepo) Upsert(ctx context.Context, c *coverage.Cell) error {
	return m.Called(ctx, c).Error(0)
}

type BlockerRepo struct{ mock.Mock }

func (m *BlockerRepo) Create(ctx context.Context, b *blocker.Blocker) error {
	return m.Called(ctx, b).Error(0)
}

func (m *BlockerRepo) GetByID(ctx context.Context, id string) (*blocker.Blocker, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*blocker.Blocker)
	return out, args.Error(1)
}

func (m *BlockerRepo) GetByIDs(ctx context.Context, ids []string) ([]*blocker.Blocker, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]*blocker.Blocker)
	return out, args.Error(1)
}

func (m *BlockerRepo) List(ctx context.Context, f blocker.Filter) ([]*blocker.Blocker, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]*blocker.Blocker)
	return out, args.Error(1)
}

func (m *BlockerRepo) Update(ctx context.Context, b *blocker.Blocker) error {
	return m.Called(ctx, b).Error(0)
}

func (m *BlockerRepo) ListStale(ctx context.Context, before time.Time) ([]*blocker.Blocker, error) {
	args := m.Called(ctx, before)
	out, _ := args.Get(0).([]*blocker.Blocker)
	return out, args.Error(1)
}

func (m *BlockerRepo) MarkStale(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

type EscalationRepo struct{ mock.Mock }

func (m *EscalationRepo) Create(ctx context.Context, e *escalation.Escalation) error {
	return m.Called(ctx, e).Error(0)
}

func (m *EscalationRepo) GetByID(ctx context.Context, id string) (*escalation.Escalation, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*escalation.Escalation)
	return out, args.Error(1)
}

func (m *EscalationRepo) List(ctx context.Context, f escalation.Filter) ([]*escalation.Escalation, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]*escalation.Escalation)
	return out, args.Error(1)
}

func (m *EscalationRepo) UpdateStatus(ctx context.Context, e *escalation.Escalation) error {
	return m.Called(ctx, e).Error(0)
}

type HistoryRepo struct{ mock.Mock }

func (m *HistoryRepo) Append(ctx context.Context, h *escalation.HistoryEntry) error {
	return m.Called(ctx, h).Error(0)
}

func (m *HistoryRepo) ListByEscalation(ctx context.Context, id string) ([]*escalation.HistoryEntry, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).([]*escalation.HistoryEntry)
	return out, args.Error(1)
}

type CommentRepo struct{ mock.Mock }

func (m *CommentRepo) Create(ctx context.Context, c *comment.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *CommentRepo) GetByID(ctx context.Context, id string) (*comment.Comment, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*comment.Comment)
	return out, args.Error(1)
}

func (m *CommentRepo) List(ctx context.Context, f comment.Filter) ([]*comment.Comment, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]*comment.Comment)
	return out, args.Error(1)
}

func (m *CommentRepo) Update(ctx context.Context, c *comment.Comment) error {
	return m.Called(ctx, c).Error(0)
}

var (
	_ market.Repository            = (*MarketRepo)(nil)
	_ product.Repository           = (*ProductRepo)(nil)
	_ coverage.Repository          = (*CoverageRepo)(nil)
	_ blocker.Repository           = (*BlockerRepo)(nil)
	_ escalation.Repository        = (*EscalationRepo)(nil)
	_ escalation.HistoryRepository = (*HistoryRepo)(nil)
	_ comment.Repository           = (*CommentRepo)(nil)
)

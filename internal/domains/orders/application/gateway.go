package application

import (
	"context"
	"log/slog"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

// Outcome classifies a submission.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeDegraded means the header was stored but the line items were not.
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
)

// SubmitResult carries the stored order (with its number) and the cause of any failure.
type SubmitResult struct {
	Outcome Outcome
	Order   *domain.Order
	Err     error
}

// SubmissionGateway writes the order header, then its line items. It never retries.
type SubmissionGateway struct {
	store  ports.DataStore
	logger *slog.Logger
}

func NewSubmissionGateway(store ports.DataStore, logger *slog.Logger) *SubmissionGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionGateway{store: store, logger: logger}
}

func (g *SubmissionGateway) Submit(ctx context.Context, order *domain.Order) SubmitResult {
	number, err := g.store.InsertOrder(ctx, order)
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelError, "order header insert failed",
			slog.String("order.id", order.ID.String()), slog.String("error", err.Error()))
		return SubmitResult{Outcome: OutcomeFailed, Order: order, Err: err}
	}
	stored := order
	if number != "" {
		stored = order.WithNumber(number)
	}
	if err := g.store.InsertOrderItems(ctx, stored.ID, stored.Items); err != nil {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "order items insert failed, order stored without items",
			slog.String("order.id", stored.ID.String()),
			slog.String("order.number", stored.Number),
			slog.String("error", err.Error()))
		return SubmitResult{Outcome: OutcomeDegraded, Order: stored, Err: err}
	}
	return SubmitResult{Outcome: OutcomeSucceeded, Order: stored}
}

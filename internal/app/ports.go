package app

import (
	"context"

	"github.com/sundvall/ordna/internal/domain"
)

// Directory fetches the remote reference collections the board is built from.
type Directory interface {
	FetchOrders(context.Context) ([]domain.Order, error)
	FetchCustomers(context.Context) ([]domain.Customer, error)
	FetchTaskGroups(context.Context) ([]domain.TaskGroup, error)
}

// StatusUpdateResult carries the server's answer to a status update. Order is
// nil when the server acknowledged with a bare success flag and no body; in
// that case the optimistic local state stands.
type StatusUpdateResult struct {
	Order *domain.Order
}

// StatusUpdater performs the remote status transition for one order.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID, task string) (StatusUpdateResult, error)
}

// Confirmer answers a destructive-action prompt. The cancel transition asks
// twice in sequence; either refusal aborts the move with no state change.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// SnapshotCache persists the last good order fetch so the board can render
// immediately on the next start before the network answers.
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, orders []domain.Order, groups []domain.TaskGroup) error
	LoadSnapshot(ctx context.Context) ([]domain.Order, []domain.TaskGroup, error)
}

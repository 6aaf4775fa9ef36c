package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sundvall/ordna/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// MoveOutcome classifies how one Move call ended.
type MoveOutcome string

// Move outcomes. A move is Pending only while in flight; callers observe one
// of the terminal outcomes below.
const (
	// OutcomeNoop: unknown order, or the order already sits in the target
	// stage. No state touched, no network call made.
	OutcomeNoop MoveOutcome = "noop"
	// OutcomeRejected: the viewer lacks permission for the transition.
	OutcomeRejected MoveOutcome = "rejected"
	// OutcomeDeclined: the viewer backed out of a confirmation prompt.
	OutcomeDeclined MoveOutcome = "declined"
	// OutcomeCommitted: the server accepted the transition; local state is
	// either the server's order body or the surviving optimistic guess.
	OutcomeCommitted MoveOutcome = "committed"
	// OutcomeRolledBack: the server refused or the call failed; local state
	// was restored to the exact pre-move snapshot.
	OutcomeRolledBack MoveOutcome = "rolled back"
)

// MoveResult reports one completed Move: its outcome, a human-readable
// notice suitable for a toast and the live-region string, and the
// underlying error for Rejected, Declined, and RolledBack outcomes.
type MoveResult struct {
	Outcome MoveOutcome
	Notice  string
	Err     error
}

// pendingMove is the explicit optimistic-mutation state: the exact pre-move
// snapshot, held from the optimistic apply until commit or rollback.
type pendingMove struct {
	store    *Store
	snapshot domain.Order
}

// rollback restores the snapshot bit for bit.
func (p pendingMove) rollback() {
	p.store.Replace(p.snapshot.Clone())
}

// TransitionService performs the guarded, optimistic, server-reconciled
// status update for single orders.
type TransitionService struct {
	store   *Store
	updater StatusUpdater
	session Session
	confirm Confirmer
	idGen   IDGenerator
	clock   Clock
}

// NewTransitionService wires the transition dependencies. A nil confirmer
// declines every destructive prompt; nil clock and id generator get
// defaults.
func NewTransitionService(store *Store, updater StatusUpdater, session Session, confirm Confirmer, idGen IDGenerator, clock Clock) *TransitionService {
	if confirm == nil {
		confirm = ConfirmFunc(func(string) bool { return false })
	}
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &TransitionService{
		store:   store,
		updater: updater,
		session: session,
		confirm: confirm,
		idGen:   idGen,
		clock:   clock,
	}
}

// Move transitions one order to the target task stage.
//
// The update is optimistic: the new status event is applied locally before
// the network call so the board reflects the move instantly, then either
// reconciled with the server's order body or rolled back to the exact
// pre-move snapshot on failure. Once the optimistic apply has happened the
// operation runs to completion; there is no external abort.
func (s *TransitionService) Move(ctx context.Context, orderID, targetTask string) MoveResult {
	order, ok := s.store.Get(orderID)
	if !ok {
		return MoveResult{Outcome: OutcomeNoop}
	}

	target := normalizeStageName(targetTask, s.store.TaskGroups())
	if target == "" {
		return MoveResult{Outcome: OutcomeNoop}
	}
	if domain.SameStage(order.CurrentTask(), target) {
		return MoveResult{Outcome: OutcomeNoop}
	}

	if domain.SameStage(target, domain.StageCancel) {
		if !s.session.IsAdmin() {
			return MoveResult{
				Outcome: OutcomeRejected,
				Notice:  "Only admins can cancel orders",
				Err:     fmt.Errorf("cancel order %s: %w", order.Number, ErrPermissionDenied),
			}
		}
		if !s.confirm.Confirm(fmt.Sprintf("Cancel order %s?", order.Number)) {
			return declinedResult(order.Number)
		}
		if !s.confirm.Confirm(fmt.Sprintf("Cancelling order %s cannot be undone. Confirm again?", order.Number)) {
			return declinedResult(order.Number)
		}
	}

	pending := pendingMove{store: s.store, snapshot: order.Clone()}

	optimistic := order.Clone()
	optimistic.AppendStatus(domain.StatusEvent{
		ID:           s.idGen(),
		Task:         target,
		AssignedTo:   s.session.DisplayName,
		CreatedAt:    s.clock().UTC(),
		StatusNumber: optimistic.NextStatusNumber(),
	})
	s.store.Replace(optimistic)

	result, err := s.updater.UpdateStatus(ctx, orderID, target)
	if err != nil {
		pending.rollback()
		return MoveResult{
			Outcome: OutcomeRolledBack,
			Notice:  fmt.Sprintf("Could not move order %s to %s", order.Number, target),
			Err:     fmt.Errorf("update status of order %s: %w", order.Number, err),
		}
	}
	if result.Order != nil {
		reconciled := result.Order.Clone()
		if reconciled.ID == "" {
			reconciled.ID = orderID
		}
		if reconciled.CustomerName == "" {
			reconciled.CustomerName = order.CustomerName
		}
		s.store.Replace(reconciled)
	}
	return MoveResult{Outcome: OutcomeCommitted, Notice: moveNotice(order.Number, target)}
}

// declinedResult reports a confirmation prompt the viewer backed out of.
func declinedResult(number string) MoveResult {
	return MoveResult{
		Outcome: OutcomeDeclined,
		Err:     fmt.Errorf("cancel order %s: %w", number, ErrMoveDeclined),
	}
}

// moveNotice phrases the success toast, with the closed stages called out
// distinctly from a generic move.
func moveNotice(number, target string) string {
	switch {
	case domain.SameStage(target, domain.StageDelivered):
		return fmt.Sprintf("Order %s marked delivered", number)
	case domain.SameStage(target, domain.StageCancel):
		return fmt.Sprintf("Order %s cancelled", number)
	default:
		return fmt.Sprintf("Order %s moved to %s", number, target)
	}
}

// normalizeStageName trims the requested stage and adopts the canonical
// casing of a known group or closed stage when one matches.
func normalizeStageName(stage string, groups []domain.TaskGroup) string {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return ""
	}
	for _, known := range []string{domain.StageDelivered, domain.StageCancel, domain.StageOther} {
		if domain.SameStage(stage, known) {
			return known
		}
	}
	for _, g := range groups {
		if domain.SameStage(stage, g.Name) {
			return strings.TrimSpace(g.Name)
		}
	}
	return stage
}

package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sundvall/ordna/internal/domain"
)

// MoveRequest is the single abstract gesture both input paths produce: the
// user wants order OrderID in column TargetColumn.
type MoveRequest struct {
	OrderID      string
	TargetColumn string
}

// MoveFunc consumes one completed move gesture.
type MoveFunc func(MoveRequest)

// DragPayload is the transferable payload attached at drag start on pointer
// devices. The JSON field names are the wire contract shared with drop
// targets.
type DragPayload struct {
	OrderID     string `json:"orderId"`
	CurrentTask string `json:"currentTask"`
}

// EncodeDragPayload serializes the payload a drag source attaches.
func EncodeDragPayload(orderID, currentTask string) string {
	raw, err := json.Marshal(DragPayload{OrderID: orderID, CurrentTask: currentTask})
	if err != nil {
		return ""
	}
	return string(raw)
}

// MoveController turns both gesture styles into exactly one MoveFunc call
// per completed gesture: the pointer drag/drop path and the touch
// pick-then-confirm path. It is transport-agnostic; it knows nothing about
// how the move is executed.
type MoveController struct {
	move    MoveFunc
	session Session
	touch   bool

	pending string
	status  string
}

// NewMoveController constructs a controller for one viewer session.
// touchDevice disables the drop path entirely; touch viewers move orders
// through the selection flow instead.
func NewMoveController(move MoveFunc, session Session, touchDevice bool) *MoveController {
	return &MoveController{move: move, session: session, touch: touchDevice}
}

// AcceptsDrop reports whether a column is a legal drop target. Closed-stage
// columns never accept drops, and nothing accepts drops on touch devices.
func (c *MoveController) AcceptsDrop(column string) bool {
	if c.touch {
		return false
	}
	return !domain.IsClosedStage(column)
}

// Drop completes the pointer path: validate the target, decode the payload,
// and invoke the move callback once. Malformed payloads are silently
// ignored and no move is attempted.
func (c *MoveController) Drop(column, payload string) bool {
	if !c.AcceptsDrop(column) {
		return false
	}
	var p DragPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return false
	}
	if strings.TrimSpace(p.OrderID) == "" {
		return false
	}
	c.announce(column)
	c.move(MoveRequest{OrderID: p.OrderID, TargetColumn: column})
	return true
}

// Select starts the touch path by marking one order as the pending move
// selection. Selecting a second order replaces the first.
func (c *MoveController) Select(orderID string) {
	c.pending = strings.TrimSpace(orderID)
}

// Pending returns the touch path's pending selection, if any.
func (c *MoveController) Pending() (string, bool) {
	return c.pending, c.pending != ""
}

// ValidTargets lists the columns the pending order may be confirmed into: a
// column qualifies unless it is the order's current column, and Cancel is
// excluded for non-admin viewers.
func (c *MoveController) ValidTargets(currentTask string, columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, name := range columns {
		if domain.SameStage(name, currentTask) {
			continue
		}
		if domain.SameStage(name, domain.StageCancel) && !c.session.IsAdmin() {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Confirm completes the touch path: invoke the move callback once for the
// pending order and clear the selection. A confirm with no pending
// selection does nothing.
func (c *MoveController) Confirm(target string) bool {
	if c.pending == "" {
		return false
	}
	orderID := c.pending
	c.pending = ""
	c.announce(target)
	c.move(MoveRequest{OrderID: orderID, TargetColumn: target})
	return true
}

// Cancel clears the pending selection with no side effects.
func (c *MoveController) Cancel() {
	c.pending = ""
	c.status = ""
}

// Status exposes the transient human-readable gesture state for live-region
// announcement.
func (c *MoveController) Status() string {
	return c.status
}

// SetStatus overrides the live-region string, used to surface transition
// results through the same channel as gesture progress.
func (c *MoveController) SetStatus(status string) {
	c.status = status
}

// announce records gesture progress in the live-region string.
func (c *MoveController) announce(target string) {
	c.status = fmt.Sprintf("Moving order to %s", target)
}

package domain

import (
	"strings"
	"time"
)

// StatusEvent records one workflow transition for an order. Events are
// append-only: a move creates a new event, existing events are never edited
// in place. Task names compare case-insensitively everywhere.
type StatusEvent struct {
	ID           string     `json:"_id,omitempty"`
	Task         string     `json:"Task"`
	AssignedTo   string     `json:"Assigned,omitempty"`
	CreatedAt    time.Time  `json:"CreatedAt"`
	DeliveryDate *time.Time `json:"Delivery_Date,omitempty"`
	StatusNumber int        `json:"Status_number"`
}

// LineItem is one arbitrary order line. The board never interprets items;
// they ride along for the detail view and downstream billing collaborators.
type LineItem struct {
	Name     string  `json:"Item_Name"`
	Quantity float64 `json:"Quantity"`
	Rate     float64 `json:"Rate"`
	Remark   string  `json:"Remark,omitempty"`
}

// Order is a work item moving through a sequence of task stages.
//
// ID is the canonical identifier. Upstream producers are inconsistent about
// the primary-key field (Order_uuid, _id, Order_id); NormalizeID reconciles
// them at the ingest boundary and nothing downstream sees the alternates.
type Order struct {
	ID           string
	Number       string
	CustomerID   string
	CustomerName string
	Remark       string
	Status       []StatusEvent
	// HighestStatus is derived: the event with the maximum StatusNumber, or
	// nil when Status is empty. Never stored authoritatively; recompute via
	// RecomputeHighestStatus whenever Status changes.
	HighestStatus *StatusEvent
	Items         []LineItem
	IsEnquiry     bool
	DeliveryDate  *time.Time
	CreatedAt     time.Time
}

// Stage names with special board semantics. Delivered and Cancel are closed
// stages: orders there are excluded from active aggregates and their columns
// never accept drops.
const (
	StageDelivered = "Delivered"
	StageCancel    = "Cancel"
	StageOther     = "Other"
)

// IsClosedStage reports whether a task name is one of the closed stages.
func IsClosedStage(name string) bool {
	return SameStage(name, StageDelivered) || SameStage(name, StageCancel)
}

// SameStage compares two task names the way the whole workflow does.
func SameStage(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NormalizeID picks the canonical order id from the aliased upstream fields,
// in precedence order.
func NormalizeID(orderUUID, mongoID, orderID string) string {
	for _, candidate := range []string{orderUUID, mongoID, orderID} {
		if id := strings.TrimSpace(candidate); id != "" {
			return id
		}
	}
	return ""
}

// RecomputeHighestStatus rederives HighestStatus from the Status history.
func (o *Order) RecomputeHighestStatus() {
	o.HighestStatus = HighestStatusOf(o.Status)
}

// HighestStatusOf returns the event with the maximum StatusNumber, or nil
// for an empty history. Ties resolve to the later element so an optimistic
// append with a duplicated number still wins.
func HighestStatusOf(events []StatusEvent) *StatusEvent {
	var highest *StatusEvent
	for i := range events {
		if highest == nil || events[i].StatusNumber >= highest.StatusNumber {
			highest = &events[i]
		}
	}
	if highest == nil {
		return nil
	}
	ev := *highest
	return &ev
}

// CurrentTask returns the order's current stage name, or "" when the order
// has no status history.
func (o *Order) CurrentTask() string {
	if o.HighestStatus == nil {
		return ""
	}
	return o.HighestStatus.Task
}

// IsClosed reports whether the order sits in a closed stage.
func (o *Order) IsClosed() bool {
	return IsClosedStage(o.CurrentTask())
}

// NextStatusNumber returns the sequence number a newly appended event gets.
// Derived from the history itself rather than HighestStatus, so a stale
// derived field cannot restart the numbering.
func (o *Order) NextStatusNumber() int {
	highest := HighestStatusOf(o.Status)
	if highest == nil {
		return 1
	}
	return highest.StatusNumber + 1
}

// AppendStatus appends one transition event and rederives HighestStatus.
func (o *Order) AppendStatus(ev StatusEvent) {
	o.Status = append(o.Status, ev)
	o.RecomputeHighestStatus()
}

// StatusTimestamp returns the timestamp of the current stage event, falling
// back to the order's creation time. Used as the newest/oldest sort key.
func (o *Order) StatusTimestamp() time.Time {
	if o.HighestStatus != nil && !o.HighestStatus.CreatedAt.IsZero() {
		return o.HighestStatus.CreatedAt
	}
	return o.CreatedAt
}

// Clone returns a deep copy of the order. Snapshots taken before optimistic
// mutations must not share backing arrays with the live entry, or rollback
// stops being exact.
func (o Order) Clone() Order {
	out := o
	out.Status = append([]StatusEvent(nil), o.Status...)
	out.Items = append([]LineItem(nil), o.Items...)
	if o.HighestStatus != nil {
		ev := *o.HighestStatus
		out.HighestStatus = &ev
	}
	if o.DeliveryDate != nil {
		ts := *o.DeliveryDate
		out.DeliveryDate = &ts
	}
	return out
}

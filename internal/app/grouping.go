package app

import (
	"slices"
	"strings"

	"github.com/sundvall/ordna/internal/domain"
)

// SortKey selects one of the four stable board sort orders.
type SortKey string

// Sort keys. SortNewest is the default.
const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortNumber   SortKey = "number"
	SortCustomer SortKey = "customer"
)

// BoardOptions parameterizes one BuildBoard call.
type BoardOptions struct {
	Search        string
	Sort          SortKey
	AdminViewer   bool
	IncludeCancel bool
	// SingleColumn bypasses column derivation and returns one synthetic
	// column holding every filtered, sorted order (flat list views).
	SingleColumn     bool
	SingleColumnName string
}

// BoardView is the read-only rendering contract: an ordered column name list
// and a bucket per name. Every name in Columns has a bucket entry, possibly
// an empty one, and every input order lands in exactly one bucket.
type BoardView struct {
	Columns []string
	Buckets map[string][]domain.Order
}

// ActiveCount counts orders outside the closed stages across all buckets.
func (v BoardView) ActiveCount() int {
	n := 0
	for name, bucket := range v.Buckets {
		if domain.IsClosedStage(name) {
			continue
		}
		n += len(bucket)
	}
	return n
}

// BuildBoard derives the ordered workflow columns and buckets orders into
// them. Pure: it never mutates its inputs.
//
// Column order: server-declared open groups in declared sequence, then
// ad-hoc stages discovered in order data in first-seen order, then "Other"
// forced to the end if present, then "Delivered" force-appended, then
// "Cancel" force-appended when requested. For non-admin viewers Cancel is
// always relocated to the very end.
func BuildBoard(orders []domain.Order, groups []domain.TaskGroup, opts BoardOptions) BoardView {
	visible := sortOrders(filterOrders(orders, opts.Search), opts.Sort)

	if opts.SingleColumn {
		name := strings.TrimSpace(opts.SingleColumnName)
		if name == "" {
			name = "All"
		}
		return BoardView{
			Columns: []string{name},
			Buckets: map[string][]domain.Order{name: visible},
		}
	}

	columns := deriveColumns(orders, groups, opts)
	buckets := make(map[string][]domain.Order, len(columns))
	for _, name := range columns {
		buckets[name] = []domain.Order{}
	}
	for _, order := range visible {
		// Hiding the Cancel column hides its orders too; that is a
		// presentation filter, not a data-model removal.
		if !opts.IncludeCancel && domain.SameStage(order.CurrentTask(), domain.StageCancel) {
			continue
		}
		name := columnFor(columns, order.CurrentTask())
		buckets[name] = append(buckets[name], order)
	}
	return BoardView{Columns: columns, Buckets: buckets}
}

// deriveColumns reproduces the board's column-derivation sequence. Ad-hoc
// stages come from the full order list, not the filtered one, so columns do
// not flicker while the user types a search.
func deriveColumns(orders []domain.Order, groups []domain.TaskGroup, opts BoardOptions) []string {
	columns := domain.OpenGroupNames(groups)

	for _, order := range orders {
		stage := strings.TrimSpace(order.CurrentTask())
		if stage == "" {
			stage = domain.StageOther
		}
		if domain.IsClosedStage(stage) {
			continue
		}
		if !stageKnown(columns, stage) {
			columns = append(columns, stage)
		}
	}

	// "Other" always trails the real workflow stages.
	for i, name := range columns {
		if domain.SameStage(name, domain.StageOther) {
			columns = append(slices.Delete(columns, i, i+1), name)
			break
		}
	}

	if !stageKnown(columns, domain.StageDelivered) {
		columns = append(columns, domain.StageDelivered)
	}
	if opts.IncludeCancel && !stageKnown(columns, domain.StageCancel) {
		columns = append(columns, domain.StageCancel)
	}
	if !opts.AdminViewer {
		for i, name := range columns {
			if domain.SameStage(name, domain.StageCancel) {
				columns = append(slices.Delete(columns, i, i+1), name)
				break
			}
		}
	}
	return columns
}

// columnFor resolves the bucket key for one stage name: the canonical casing
// of the matching column, or "Other" when the stage is empty. deriveColumns
// guarantees a match for every non-empty stage.
func columnFor(columns []string, stage string) string {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return domain.StageOther
	}
	for _, name := range columns {
		if domain.SameStage(name, stage) {
			return name
		}
	}
	return stage
}

// stageKnown reports whether the column list already carries a stage.
func stageKnown(columns []string, stage string) bool {
	for _, name := range columns {
		if domain.SameStage(name, stage) {
			return true
		}
	}
	return false
}

// filterOrders applies the case-insensitive substring search over customer
// name and order number. An empty search passes everything.
func filterOrders(orders []domain.Order, search string) []domain.Order {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if search != "" &&
			!strings.Contains(strings.ToLower(o.CustomerName), search) &&
			!strings.Contains(strings.ToLower(o.Number), search) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// sortOrders orders the slice by the requested key. Sorting is stable so
// filter-then-sort and sort-then-filter agree.
func sortOrders(orders []domain.Order, key SortKey) []domain.Order {
	out := append([]domain.Order(nil), orders...)
	switch key {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b domain.Order) int {
			return a.StatusTimestamp().Compare(b.StatusTimestamp())
		})
	case SortNumber:
		slices.SortStableFunc(out, func(a, b domain.Order) int {
			return strings.Compare(a.Number, b.Number)
		})
	case SortCustomer:
		slices.SortStableFunc(out, func(a, b domain.Order) int {
			return strings.Compare(strings.ToLower(a.CustomerName), strings.ToLower(b.CustomerName))
		})
	default: // SortNewest
		slices.SortStableFunc(out, func(a, b domain.Order) int {
			return b.StatusTimestamp().Compare(a.StatusTimestamp())
		})
	}
	return out
}

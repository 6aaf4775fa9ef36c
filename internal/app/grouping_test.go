package app

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sundvall/ordna/internal/domain"
)

// boardFixtureGroups is the server-declared workflow used across board tests.
func boardFixtureGroups() []domain.TaskGroup {
	return []domain.TaskGroup{
		{ID: "g-1", Name: "New Order", Sequence: 1},
		{ID: "g-2", Name: "Design", Sequence: 2},
		{ID: "g-3", Name: "Production", Sequence: 3},
	}
}

// boardFixtureOrders covers declared stages, an ad-hoc stage, an empty stage,
// and both closed stages.
func boardFixtureOrders() []domain.Order {
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	return []domain.Order{
		orderWithStage("o-1", "1001", "New Order", base.Add(4*time.Hour)),
		orderWithStage("o-2", "1002", "design", base.Add(3*time.Hour)),
		orderWithStage("o-3", "1003", "Polering", base.Add(2*time.Hour)),
		orderWithStage("o-4", "1004", "", base.Add(time.Hour)),
		orderWithStage("o-5", "1005", "Delivered", base.Add(5*time.Hour)),
		orderWithStage("o-6", "1006", "Cancel", base),
	}
}

// TestBuildBoardColumnDerivation verifies the column sequence: declared open
// groups, ad-hoc first-seen, Other forced last, then the closed stages.
func TestBuildBoardColumnDerivation(t *testing.T) {
	orders := boardFixtureOrders()
	orders[3].Status = nil // empty stage buckets under Other
	orders[3].RecomputeHighestStatus()

	view := BuildBoard(orders, boardFixtureGroups(), BoardOptions{
		AdminViewer:   true,
		IncludeCancel: true,
	})
	want := []string{"New Order", "Design", "Production", "Polering", "Other", "Delivered", "Cancel"}
	if !reflect.DeepEqual(view.Columns, want) {
		t.Fatalf("Columns = %v, want %v", view.Columns, want)
	}
}

// TestBuildBoardEveryOrderLandsInExactlyOneBucket verifies bucket
// completeness over the fixture.
func TestBuildBoardEveryOrderLandsInExactlyOneBucket(t *testing.T) {
	orders := boardFixtureOrders()
	view := BuildBoard(orders, boardFixtureGroups(), BoardOptions{
		AdminViewer:   true,
		IncludeCancel: true,
	})

	seen := map[string]int{}
	total := 0
	for _, name := range view.Columns {
		bucket, ok := view.Buckets[name]
		if !ok {
			t.Fatalf("column %q has no bucket", name)
		}
		for _, order := range bucket {
			seen[order.ID]++
			total++
		}
	}
	if total != len(orders) {
		t.Fatalf("bucketed %d orders, want %d", total, len(orders))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("order %s appears %d times", id, count)
		}
	}
	if len(view.Buckets) != len(view.Columns) {
		t.Fatalf("buckets %d != columns %d", len(view.Buckets), len(view.Columns))
	}
}

// TestBuildBoardCaseInsensitiveBucketing verifies stage casing never splits
// a column.
func TestBuildBoardCaseInsensitiveBucketing(t *testing.T) {
	view := BuildBoard(boardFixtureOrders(), boardFixtureGroups(), BoardOptions{
		AdminViewer:   true,
		IncludeCancel: true,
	})
	bucket := view.Buckets["Design"]
	if len(bucket) != 1 || bucket[0].ID != "o-2" {
		t.Fatalf("Design bucket = %+v, want the lowercase-stage order", bucket)
	}
	if _, ok := view.Buckets["design"]; ok {
		t.Fatal("lowercase duplicate column should not exist")
	}
}

// TestBuildBoardCancelHiddenForStaff verifies the Cancel column is admin-only
// when excluded and pinned last when shown.
func TestBuildBoardCancelHiddenForStaff(t *testing.T) {
	orders := boardFixtureOrders()
	groups := boardFixtureGroups()

	staff := BuildBoard(orders, groups, BoardOptions{IncludeCancel: true})
	if staff.Columns[len(staff.Columns)-1] != "Cancel" {
		t.Fatalf("staff columns = %v, want Cancel pinned last", staff.Columns)
	}

	hidden := BuildBoard(orders, groups, BoardOptions{AdminViewer: true})
	for _, name := range hidden.Columns {
		if name == "Cancel" {
			t.Fatalf("columns with IncludeCancel=false contain Cancel: %v", hidden.Columns)
		}
	}
	// Hiding the column hides its orders too.
	total := 0
	for _, bucket := range hidden.Buckets {
		total += len(bucket)
	}
	if total != len(orders)-1 {
		t.Fatalf("hidden-cancel board holds %d orders, want %d", total, len(orders)-1)
	}
}

// TestBuildBoardSearchFiltersOrdersNotColumns verifies searching narrows
// buckets while the column list stays stable.
func TestBuildBoardSearchFiltersOrdersNotColumns(t *testing.T) {
	orders := boardFixtureOrders()
	orders[0].CustomerName = "Alma Möbler"
	orders[1].CustomerName = "Bröderna Ek"

	full := BuildBoard(orders, boardFixtureGroups(), BoardOptions{AdminViewer: true, IncludeCancel: true})
	filtered := BuildBoard(orders, boardFixtureGroups(), BoardOptions{
		Search:        "alma",
		AdminViewer:   true,
		IncludeCancel: true,
	})

	if !reflect.DeepEqual(filtered.Columns, full.Columns) {
		t.Fatalf("search changed columns: %v vs %v", filtered.Columns, full.Columns)
	}
	total := 0
	for _, bucket := range filtered.Buckets {
		total += len(bucket)
	}
	if total != 1 {
		t.Fatalf("filtered board holds %d orders, want 1", total)
	}
	if len(filtered.Buckets["New Order"]) != 1 {
		t.Fatal("matching order missing from its column")
	}

	byNumber := BuildBoard(orders, boardFixtureGroups(), BoardOptions{
		Search:        "1002",
		AdminViewer:   true,
		IncludeCancel: true,
	})
	if len(byNumber.Buckets["Design"]) != 1 {
		t.Fatal("order-number search should match")
	}
}

// TestBuildBoardSortOrders verifies the four stable sort keys.
func TestBuildBoardSortOrders(t *testing.T) {
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		orderWithStage("o-1", "1003", "Design", base.Add(time.Hour)),
		orderWithStage("o-2", "1001", "Design", base.Add(3*time.Hour)),
		orderWithStage("o-3", "1002", "Design", base.Add(2*time.Hour)),
	}
	orders[0].CustomerName = "Cecilia"
	orders[1].CustomerName = "anders"
	orders[2].CustomerName = "Bertil"
	groups := []domain.TaskGroup{{Name: "Design", Sequence: 1}}

	idsIn := func(view BoardView) []string {
		out := []string{}
		for _, o := range view.Buckets["Design"] {
			out = append(out, o.ID)
		}
		return out
	}

	cases := []struct {
		sort SortKey
		want []string
	}{
		{SortNewest, []string{"o-2", "o-3", "o-1"}},
		{SortOldest, []string{"o-1", "o-3", "o-2"}},
		{SortNumber, []string{"o-2", "o-3", "o-1"}},
		{SortCustomer, []string{"o-2", "o-3", "o-1"}},
	}
	for _, tc := range cases {
		view := BuildBoard(orders, groups, BoardOptions{Sort: tc.sort, AdminViewer: true})
		if got := idsIn(view); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("sort %s = %v, want %v", tc.sort, got, tc.want)
		}
	}
}

// TestBuildBoardFilterAndSortCommute verifies filter-then-sort and
// sort-then-filter agree for every sort key. The fixture carries duplicate
// timestamps so only a stable sort keeps the property.
func TestBuildBoardFilterAndSortCommute(t *testing.T) {
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		orderWithStage("o-1", "1004", "Design", base.Add(2*time.Hour)),
		orderWithStage("o-2", "1003", "Design", base.Add(2*time.Hour)),
		orderWithStage("o-3", "1002", "New Order", base),
		orderWithStage("o-4", "1001", "New Order", base),
	}
	orders[0].CustomerName = "Alma Möbler"
	orders[1].CustomerName = "Bertil Snickeri"
	orders[2].CustomerName = "alva"
	orders[3].CustomerName = "Calle"
	groups := boardFixtureGroups()

	matches := func(o domain.Order) bool {
		return strings.Contains(strings.ToLower(o.CustomerName), "al") ||
			strings.Contains(strings.ToLower(o.Number), "al")
	}
	idsOf := func(bucket []domain.Order) []string {
		out := []string{}
		for _, o := range bucket {
			out = append(out, o.ID)
		}
		return out
	}

	for _, sortKey := range []SortKey{SortNewest, SortOldest, SortNumber, SortCustomer} {
		filtered := BuildBoard(orders, groups, BoardOptions{
			Search: "al", Sort: sortKey, AdminViewer: true, IncludeCancel: true,
		})
		unfiltered := BuildBoard(orders, groups, BoardOptions{
			Sort: sortKey, AdminViewer: true, IncludeCancel: true,
		})
		for _, col := range unfiltered.Columns {
			want := []string{}
			for _, o := range unfiltered.Buckets[col] {
				if matches(o) {
					want = append(want, o.ID)
				}
			}
			if got := idsOf(filtered.Buckets[col]); !reflect.DeepEqual(got, want) {
				t.Fatalf("sort %s column %s: filtered = %v, want %v", sortKey, col, got, want)
			}
		}
	}
}

// TestBuildBoardSingleColumn verifies the flat list shortcut.
func TestBuildBoardSingleColumn(t *testing.T) {
	orders := boardFixtureOrders()
	view := BuildBoard(orders, boardFixtureGroups(), BoardOptions{SingleColumn: true})
	if len(view.Columns) != 1 || view.Columns[0] != "All" {
		t.Fatalf("Columns = %v, want [All]", view.Columns)
	}
	if len(view.Buckets["All"]) != len(orders) {
		t.Fatalf("flat bucket holds %d orders, want %d", len(view.Buckets["All"]), len(orders))
	}

	named := BuildBoard(orders, nil, BoardOptions{SingleColumn: true, SingleColumnName: "Allt"})
	if named.Columns[0] != "Allt" {
		t.Fatalf("custom single column name = %q", named.Columns[0])
	}
}

// TestBuildBoardActiveCount verifies the closed stages are excluded from the
// active tally.
func TestBuildBoardActiveCount(t *testing.T) {
	view := BuildBoard(boardFixtureOrders(), boardFixtureGroups(), BoardOptions{
		AdminViewer:   true,
		IncludeCancel: true,
	})
	// Six orders, one Delivered and one Cancel.
	if got := view.ActiveCount(); got != 4 {
		t.Fatalf("ActiveCount = %d, want 4", got)
	}
}

// TestBuildBoardDoesNotMutateInput verifies BuildBoard purity.
func TestBuildBoardDoesNotMutateInput(t *testing.T) {
	orders := boardFixtureOrders()
	snapshot := make([]domain.Order, len(orders))
	for i, o := range orders {
		snapshot[i] = o.Clone()
	}

	BuildBoard(orders, boardFixtureGroups(), BoardOptions{
		Search:        "10",
		Sort:          SortCustomer,
		AdminViewer:   true,
		IncludeCancel: true,
	})

	if !reflect.DeepEqual(orders, snapshot) {
		t.Fatal("BuildBoard mutated its input")
	}
}

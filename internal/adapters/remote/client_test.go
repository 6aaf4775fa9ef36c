package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sundvall/ordna/internal/app"
)

// newTestClient points a client at a test server.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:   srv.URL,
		Token:     "secret-token",
		PageLimit: 50,
		Timeout:   2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

// TestNewClientRequiresBaseURL verifies configuration validation.
func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("empty base url should be rejected")
	}
}

// TestFetchOrdersDecodesAndAliasesIDs verifies the list envelope, paging
// params, auth header, and canonical id precedence.
func TestFetchOrdersDecodesAndAliasesIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/order/GetOrderList" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("page = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"result": [
				{
					"Order_uuid": "u-1",
					"_id": "m-1",
					"Order_id": "legacy-1",
					"Order_No": " 1042 ",
					"Customer_Name": "Alma Möbler",
					"Status": [
						{"Task": "New Order", "Status_number": 1, "CreatedAt": "2026-07-01T08:00:00Z"},
						{"Task": "Design", "Status_number": 2, "CreatedAt": "2026-07-02T08:00:00Z"}
					],
					"highestStatusTask": {"Task": "New Order", "Status_number": 1, "CreatedAt": "2026-07-01T08:00:00Z"}
				},
				{"_id": "m-2", "Order_No": "1043", "Status": []}
			]
		}`))
	}))
	defer srv.Close()

	orders, err := newTestClient(t, srv).FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("FetchOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders", len(orders))
	}
	if orders[0].ID != "u-1" {
		t.Fatalf("id precedence: %q, want Order_uuid", orders[0].ID)
	}
	if orders[1].ID != "m-2" {
		t.Fatalf("fallback id: %q, want _id", orders[1].ID)
	}
	if orders[0].Number != "1042" {
		t.Fatalf("number not trimmed: %q", orders[0].Number)
	}
	// The advisory highestStatusTask from the wire must be recomputed.
	if orders[0].CurrentTask() != "Design" {
		t.Fatalf("derived stage = %q, want recomputed Design", orders[0].CurrentTask())
	}
}

// TestFetchListFailureEnvelope verifies success:false maps to ErrRequestFailed.
func TestFetchListFailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "result": []}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv).FetchTaskGroups(context.Background()); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("err = %v, want ErrRequestFailed", err)
	}
}

// TestFetchListHTTPError verifies non-2xx statuses map to ErrRequestFailed.
func TestFetchListHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv).FetchCustomers(context.Background()); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("err = %v, want ErrRequestFailed", err)
	}
}

// TestFetchCustomersAndTaskGroups verifies the remaining list decoders.
func TestFetchCustomersAndTaskGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/customer/GetCustomersList":
			_, _ = w.Write([]byte(`{"success": true, "result": [
				{"Customer_uuid": "c-1", "_id": "cm-1", "Customer_Name": " Alma Möbler ", "Mobile_Number": " 0701 "}
			]}`))
		case "/taskgroup/GetTaskgroupList":
			_, _ = w.Write([]byte(`{"success": true, "result": [
				{"_id": "g-1", "Task_group": " Design ", "Sr_no": 2}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	customers, err := client.FetchCustomers(context.Background())
	if err != nil {
		t.Fatalf("FetchCustomers: %v", err)
	}
	if customers[0].ID != "c-1" || customers[0].Name != "Alma Möbler" || customers[0].Phone != "0701" {
		t.Fatalf("customer = %+v", customers[0])
	}

	groups, err := client.FetchTaskGroups(context.Background())
	if err != nil {
		t.Fatalf("FetchTaskGroups: %v", err)
	}
	if groups[0].ID != "g-1" || groups[0].Name != "Design" || groups[0].Sequence != 2 {
		t.Fatalf("group = %+v", groups[0])
	}
}

// TestUpdateStatusEnvelopes verifies the tolerant-success shim across the
// backend's inconsistent response shapes.
func TestUpdateStatusEnvelopes(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantErr   error
		wantOrder bool
	}{
		{name: "explicit success with flag only", body: `{"success": true}`},
		{name: "explicit success result true", body: `{"success": true, "result": true}`},
		{name: "no flag truthy result", body: `{"result": {"_id": "o-1", "Order_No": "1042"}}`, wantOrder: true},
		{name: "no flag non-order result", body: `{"result": "ok"}`},
		{name: "explicit false", body: `{"success": false, "message": "locked"}`, wantErr: ErrUpdateRejected},
		{name: "no flag null result", body: `{"result": null}`, wantErr: ErrUpdateRejected},
		{name: "empty object", body: `{}`, wantErr: ErrUpdateRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/order/updateStatus" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("Content-Type"); got != "application/json" {
					t.Errorf("content type = %q", got)
				}
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			result, err := newTestClient(t, srv).UpdateStatus(context.Background(), "o-1", "Design")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if tc.wantOrder != (result.Order != nil) {
				t.Fatalf("result order presence = %t, want %t", result.Order != nil, tc.wantOrder)
			}
			if tc.wantOrder && result.Order.ID != "o-1" {
				t.Fatalf("order id = %q", result.Order.ID)
			}
		})
	}
}

// TestUpdateStatusRejectionCarriesMessage verifies the server message
// surfaces in the wrapped error.
func TestUpdateStatusRejectionCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "order locked"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).UpdateStatus(context.Background(), "o-1", "Design")
	if err == nil || !errors.Is(err, ErrUpdateRejected) {
		t.Fatalf("err = %v", err)
	}
	if want := "order locked"; !strings.Contains(err.Error(), want) {
		t.Fatalf("err %q does not carry server message %q", err.Error(), want)
	}
}

// Compile-time interface checks for the app ports.
var (
	_ app.Directory     = (*Client)(nil)
	_ app.StatusUpdater = (*Client)(nil)
)

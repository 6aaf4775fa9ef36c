// Package remote is the HTTP adapter for the upstream business-management
// API. It owns the wire shapes, the id aliasing, and the envelope decoding;
// the rest of the program only ever sees canonical domain values.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sundvall/ordna/internal/app"
	"github.com/sundvall/ordna/internal/domain"
)

// ErrRequestFailed and related errors classify upstream failures.
var (
	ErrRequestFailed  = errors.New("request failed")
	ErrUpdateRejected = errors.New("status update rejected")
)

// maxResponseBodyBytes bounds decoded payloads for fail-closed handling.
const maxResponseBodyBytes int64 = 8 << 20

// defaultPageLimit matches the upstream list endpoints' paging default.
const defaultPageLimit = 1000

// Config captures the upstream API connection settings.
type Config struct {
	BaseURL   string
	Token     string
	PageLimit int
	Timeout   time.Duration
}

// Client talks to the four upstream endpoints. It implements app.Directory
// and app.StatusUpdater.
type Client struct {
	baseURL   string
	token     string
	pageLimit int
	http      *http.Client
}

// NewClient constructs a client from config, applying defaults for the
// unset fields.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   base,
		token:     strings.TrimSpace(cfg.Token),
		pageLimit: limit,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// orderDoc is the upstream order shape. Different producers fill different
// primary-key fields, which NormalizeID reconciles on decode.
type orderDoc struct {
	OrderUUID     string               `json:"Order_uuid"`
	MongoID       string               `json:"_id"`
	OrderID       string               `json:"Order_id"`
	Number        string               `json:"Order_No"`
	CustomerUUID  string               `json:"Customer_uuid"`
	CustomerName  string               `json:"Customer_Name"`
	Remark        string               `json:"Remark"`
	Status        []domain.StatusEvent `json:"Status"`
	HighestStatus *domain.StatusEvent  `json:"highestStatusTask"`
	Items         []domain.LineItem    `json:"Items"`
	IsEnquiry     bool                 `json:"Is_Enquiry"`
	DeliveryDate  *time.Time           `json:"Delivery_Date"`
	CreatedAt     time.Time            `json:"CreatedAt"`
}

// customerDoc is the upstream customer shape.
type customerDoc struct {
	CustomerUUID string `json:"Customer_uuid"`
	MongoID      string `json:"_id"`
	Name         string `json:"Customer_Name"`
	Phone        string `json:"Mobile_Number"`
}

// taskGroupDoc is the upstream task-group shape.
type taskGroupDoc struct {
	MongoID  string `json:"_id"`
	Name     string `json:"Task_group"`
	Sequence int    `json:"Sr_no"`
}

// listEnvelope is the common list response wrapper.
type listEnvelope[T any] struct {
	Success bool `json:"success"`
	Result  []T  `json:"result"`
}

// updateEnvelope wraps the status-update response. Success may be an
// explicit flag or merely implied by a non-null result; see UpdateStatus.
type updateEnvelope struct {
	Success *bool           `json:"success"`
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

// FetchOrders implements app.Directory.
func (c *Client) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	docs, err := fetchList[orderDoc](ctx, c, "/order/GetOrderList")
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.toDomain())
	}
	return orders, nil
}

// FetchCustomers implements app.Directory.
func (c *Client) FetchCustomers(ctx context.Context) ([]domain.Customer, error) {
	docs, err := fetchList[customerDoc](ctx, c, "/customer/GetCustomersList")
	if err != nil {
		return nil, err
	}
	customers := make([]domain.Customer, 0, len(docs))
	for _, doc := range docs {
		customers = append(customers, domain.Customer{
			ID:    domain.NormalizeID(doc.CustomerUUID, doc.MongoID, ""),
			Name:  strings.TrimSpace(doc.Name),
			Phone: strings.TrimSpace(doc.Phone),
		})
	}
	return customers, nil
}

// FetchTaskGroups implements app.Directory.
func (c *Client) FetchTaskGroups(ctx context.Context) ([]domain.TaskGroup, error) {
	docs, err := fetchList[taskGroupDoc](ctx, c, "/taskgroup/GetTaskgroupList")
	if err != nil {
		return nil, err
	}
	groups := make([]domain.TaskGroup, 0, len(docs))
	for _, doc := range docs {
		groups = append(groups, domain.TaskGroup{
			ID:       doc.MongoID,
			Name:     strings.TrimSpace(doc.Name),
			Sequence: doc.Sequence,
		})
	}
	return groups, nil
}

// UpdateStatus implements app.StatusUpdater against POST /order/updateStatus.
//
// Success is an explicit true flag, or — compatibility shim for the
// backend's inconsistent envelope — a response with no success flag but a
// truthy result. An explicit false flag is a rejection.
func (c *Client) UpdateStatus(ctx context.Context, orderID, task string) (app.StatusUpdateResult, error) {
	payload, err := json.Marshal(map[string]string{
		"Order_id": orderID,
		"Task":     task,
	})
	if err != nil {
		return app.StatusUpdateResult{}, fmt.Errorf("encode update payload: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/order/updateStatus", nil, bytes.NewReader(payload))
	if err != nil {
		return app.StatusUpdateResult{}, err
	}

	var envelope updateEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return app.StatusUpdateResult{}, fmt.Errorf("decode update response: %w", err)
	}

	resultPresent := len(envelope.Result) > 0 && !bytes.Equal(envelope.Result, []byte("null")) && !bytes.Equal(envelope.Result, []byte("false"))
	switch {
	case envelope.Success != nil && !*envelope.Success:
		msg := strings.TrimSpace(envelope.Message)
		if msg == "" {
			msg = "server reported failure"
		}
		return app.StatusUpdateResult{}, fmt.Errorf("%s: %w", msg, ErrUpdateRejected)
	case envelope.Success == nil && !resultPresent:
		return app.StatusUpdateResult{}, fmt.Errorf("empty update response: %w", ErrUpdateRejected)
	}

	if !resultPresent || bytes.Equal(envelope.Result, []byte("true")) {
		return app.StatusUpdateResult{}, nil
	}
	var doc orderDoc
	if err := json.Unmarshal(envelope.Result, &doc); err != nil {
		// A non-order result body still counts as success; the optimistic
		// local state stands.
		return app.StatusUpdateResult{}, nil
	}
	order := doc.toDomain()
	if order.ID == "" {
		return app.StatusUpdateResult{}, nil
	}
	return app.StatusUpdateResult{Order: &order}, nil
}

// fetchList GETs one paged list endpoint and unwraps its envelope.
func fetchList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	query := url.Values{
		"page":  []string{"1"},
		"limit": []string{strconv.Itoa(c.pageLimit)},
	}
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	var envelope listEnvelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("%s: server reported failure: %w", path, ErrRequestFailed)
	}
	return envelope.Result, nil
}

// do performs one request and returns the raw body for envelope decoding.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: unexpected status %d: %w", path, resp.StatusCode, ErrRequestFailed)
	}
	return raw, nil
}

// toDomain maps one upstream order document to the canonical domain order.
func (doc orderDoc) toDomain() domain.Order {
	order := domain.Order{
		ID:           domain.NormalizeID(doc.OrderUUID, doc.MongoID, doc.OrderID),
		Number:       strings.TrimSpace(doc.Number),
		CustomerID:   strings.TrimSpace(doc.CustomerUUID),
		CustomerName: strings.TrimSpace(doc.CustomerName),
		Remark:       doc.Remark,
		Status:       append([]domain.StatusEvent(nil), doc.Status...),
		Items:        append([]domain.LineItem(nil), doc.Items...),
		IsEnquiry:    doc.IsEnquiry,
		DeliveryDate: doc.DeliveryDate,
		CreatedAt:    doc.CreatedAt,
	}
	// The server's highestStatusTask is advisory only; the derived field is
	// always recomputed from the history.
	order.RecomputeHighestStatus()
	return order
}

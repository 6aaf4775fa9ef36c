package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/sundvall/ordna/internal/domain"
)

// Store holds the client-side order collection: a list in fetch order plus an
// id-keyed index. Every mutation keeps the two consistent with each other; no
// observer can see one updated without the other.
//
// Load follows the abort-superseded policy: a newer Load cancels any
// in-flight one, and a straggling stale response is discarded instead of
// overwriting newer state.
type Store struct {
	dir Directory

	mu      sync.RWMutex
	orders  []domain.Order
	byID    map[string]int
	groups  []domain.TaskGroup
	loadErr error
	loaded  bool

	gen    uint64
	cancel context.CancelFunc
}

// NewStore constructs an empty store over a directory.
func NewStore(dir Directory) *Store {
	return &Store{
		dir:  dir,
		byID: map[string]int{},
	}
}

// loadResult gathers the three concurrent fetches of one load generation.
type loadResult struct {
	orders    []domain.Order
	customers []domain.Customer
	groups    []domain.TaskGroup
}

// Load fetches orders, customers, and task groups concurrently, joins
// customer names onto orders, recomputes derived status fields, and
// publishes the list and id-map together. On failure it publishes an
// explicit error state with an empty list and map; partial and stale data
// never mix. Returns ErrSuperseded when a newer Load won the race.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	var (
		result loadResult
		wg     sync.WaitGroup
		errs   [3]error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		result.orders, errs[0] = s.dir.FetchOrders(ctx)
	}()
	go func() {
		defer wg.Done()
		result.customers, errs[1] = s.dir.FetchCustomers(ctx)
	}()
	go func() {
		defer wg.Done()
		result.groups, errs[2] = s.dir.FetchTaskGroups(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return s.publishFailure(gen, fmt.Errorf("load board data: %w", err))
		}
	}
	return s.publish(gen, result)
}

// Seed replaces the store contents without a network round trip, used to
// warm the board from a local snapshot. A seeded store is not considered
// loaded and the next Load still runs in full.
func (s *Store) Seed(orders []domain.Order, groups []domain.TaskGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setOrdersLocked(orders)
	s.groups = append([]domain.TaskGroup(nil), groups...)
}

// publish installs one completed load, unless a newer generation superseded it.
func (s *Store) publish(gen uint64, result loadResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSuperseded
	}

	customers := domain.BuildCustomerIndex(result.customers)
	orders := make([]domain.Order, 0, len(result.orders))
	for _, o := range result.orders {
		if o.ID == "" {
			continue
		}
		if name := customers.NameFor(o.CustomerID); name != "" {
			o.CustomerName = name
		}
		o.RecomputeHighestStatus()
		orders = append(orders, o)
	}
	s.setOrdersLocked(orders)
	s.groups = append([]domain.TaskGroup(nil), result.groups...)
	s.loadErr = nil
	s.loaded = true
	return nil
}

// publishFailure installs the explicit error state for one failed load,
// unless it was superseded.
func (s *Store) publishFailure(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSuperseded
	}
	s.setOrdersLocked(nil)
	s.groups = nil
	s.loadErr = err
	s.loaded = true
	return err
}

// setOrdersLocked rebuilds the list and index together. Callers hold mu.
func (s *Store) setOrdersLocked(orders []domain.Order) {
	s.orders = append([]domain.Order(nil), orders...)
	s.byID = make(map[string]int, len(orders))
	for i, o := range s.orders {
		s.byID[o.ID] = i
	}
}

// Orders returns the order list in stable fetch order.
func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	return out
}

// TaskGroups returns the server-declared workflow groups from the last load.
func (s *Store) TaskGroups() []domain.TaskGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TaskGroup(nil), s.groups...)
}

// Get resolves one order by canonical id.
func (s *Store) Get(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return domain.Order{}, false
	}
	return s.orders[idx].Clone(), true
}

// Loaded reports whether a Load has completed, successfully or not. Seeding
// from a snapshot does not count; a seeded store still wants a full Load.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LoadErr returns the error state of the last completed load, nil when the
// load succeeded or none finished yet.
func (s *Store) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// OrderPatch carries the fields Patch may shallow-merge into an order. Nil
// fields are left untouched.
type OrderPatch struct {
	Remark    *string
	IsEnquiry *bool
	Status    []domain.StatusEvent
}

// Patch shallow-merges fields into the order with the given id. Unknown ids
// are a no-op. Setting Status rederives the highest-status field so the
// derived-field invariant holds through local mutation.
func (s *Store) Patch(id string, patch OrderPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return false
	}
	order := s.orders[idx]
	if patch.Remark != nil {
		order.Remark = *patch.Remark
	}
	if patch.IsEnquiry != nil {
		order.IsEnquiry = *patch.IsEnquiry
	}
	if patch.Status != nil {
		order.Status = append([]domain.StatusEvent(nil), patch.Status...)
		order.RecomputeHighestStatus()
	}
	s.orders[idx] = order
	return true
}

// Replace upserts a full order by id: merge-over when known, append when new.
// Derived fields are recomputed on the way in.
func (s *Store) Replace(order domain.Order) {
	if order.ID == "" {
		return
	}
	order.RecomputeHighestStatus()
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.byID[order.ID]; ok {
		s.orders[idx] = order
		return
	}
	s.orders = append(s.orders, order)
	s.byID[order.ID] = len(s.orders) - 1
}

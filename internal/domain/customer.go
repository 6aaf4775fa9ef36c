package domain

import "strings"

// Customer is read-only reference data joined onto orders at ingest.
type Customer struct {
	ID    string
	Name  string
	Phone string
}

// CustomerIndex is the id → display-name side table used for the join. It is
// never mutated by the order workflow.
type CustomerIndex map[string]Customer

// BuildCustomerIndex keys customers by canonical id, skipping entries with
// no usable id.
func BuildCustomerIndex(customers []Customer) CustomerIndex {
	index := make(CustomerIndex, len(customers))
	for _, c := range customers {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			continue
		}
		index[id] = c
	}
	return index
}

// NameFor resolves a customer display name, or "" when unknown.
func (idx CustomerIndex) NameFor(customerID string) string {
	if c, ok := idx[strings.TrimSpace(customerID)]; ok {
		return c.Name
	}
	return ""
}

// Package order defines the order status machine: the set of order
// statuses and the directed graph of legal transitions between them.
// The machine holds no state and is safe to share across goroutines.
package order

import "fmt"

// Status is an order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions is the legal-successor table. Delivered and cancelled are
// terminal: no outgoing edges, and no edge leads back into an earlier state.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusConfirmed,
		StatusProcessing,
		StatusShipped,
		StatusDelivered,
		StatusCancelled,
	}
}

// Valid reports whether s is a known status.
func Valid(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// AllowedNext returns the legal successor statuses of s. The returned
// slice is a copy; callers may mutate it freely.
func AllowedNext(s Status) []Status {
	next, ok := transitions[s]
	if !ok {
		return nil
	}
	return append([]Status(nil), next...)
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Validate returns an *IllegalTransitionError when from → to is not a
// legal edge, nil otherwise.
func Validate(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return &IllegalTransitionError{From: from, To: to, Allowed: AllowedNext(from)}
}

// IsTerminal reports whether s admits no outgoing transition.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// IllegalTransitionError describes a rejected status change, including
// the set of transitions that would have been accepted.
type IllegalTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("order: illegal transition %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}

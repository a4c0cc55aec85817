package lifecycle

import (
	"errors"
	"fmt"

	"sign_ops/internal/model"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// statusRank orders the forward path pending → confirmed → scheduled →
// in_progress → completed. Cancelled sits outside the ranking.
var statusRank = map[model.OrderStatus]int{
	model.OrderPending:    0,
	model.OrderConfirmed:  1,
	model.OrderScheduled:  2,
	model.OrderInProgress: 3,
	model.OrderCompleted:  4,
}

// ValidStatus reports whether s is one of the six enumerated statuses.
func ValidStatus(s model.OrderStatus) bool {
	if s == model.OrderCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// ValidTransition reports whether from → to is legal: any forward move on
// the lifecycle path (skips allowed), or cancellation of a non-terminal
// order. Terminal states accept nothing.
func ValidTransition(from, to model.OrderStatus) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if from == model.OrderCompleted || from == model.OrderCancelled {
		return false
	}
	if to == model.OrderCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

// CheckTransition maps an invalid move to the matching sentinel error.
func CheckTransition(from, to model.OrderStatus) error {
	if !ValidStatus(to) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !ValidTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

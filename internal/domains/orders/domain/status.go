package domain

import "errors"

// StatusFilter selects a view over the order list.
type StatusFilter string

const (
	StatusPending   StatusFilter = "pending"
	StatusProcessed StatusFilter = "processed"
	StatusAll       StatusFilter = "all"
	StatusDeleted   StatusFilter = "deleted"
)

var ErrInvalidStatus = errors.New("status filter must be one of pending, processed, all, deleted")

// ParseStatusFilter accepts the filter names plus "total", the dashboard alias of "all".
// An empty value selects all.
func ParseStatusFilter(value string) (StatusFilter, error) {
	switch value {
	case "", string(StatusAll), "total":
		return StatusAll, nil
	case string(StatusPending), string(StatusProcessed), string(StatusDeleted):
		return StatusFilter(value), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Matches reports whether the order belongs to the view.
func (s StatusFilter) Matches(o *Order) bool {
	switch s {
	case StatusPending:
		return !o.Processed && !o.Deleted
	case StatusProcessed:
		return o.Processed && !o.Deleted
	case StatusDeleted:
		return o.Deleted
	default:
		return !o.Deleted
	}
}

// InQueue reports whether the order is still pending in the given queue.
func (o *Order) InQueue(queueID string) bool {
	return o.QueueNumber == queueID && !o.Processed && !o.Deleted
}

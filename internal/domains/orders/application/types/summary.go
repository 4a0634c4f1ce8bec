package types

// QueueSummary is the pending workload of one catalog queue.
type QueueSummary struct {
	ID      string
	Name    string
	Pending int
}

// Summary aggregates the dashboard counters. Total excludes deleted orders.
type Summary struct {
	Total     int
	Processed int
	Pending   int
	Deleted   int
	Queues    []QueueSummary
}

package ingest

import "time"

// State is the lifecycle position of one source.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SourceStatus is a snapshot of one source's bookkeeping. State returns to
// StateIdle after every run; LastResult keeps StateSuccess or StateFailed.
type SourceStatus struct {
	Name        string
	State       State
	LastResult  State
	Interval    time.Duration
	Runs        int
	Failures    int
	LastRun     time.Time
	LastSuccess time.Time
	LastError   string
	LastSummary *BatchSummary
}

// Healthy reports whether the last completed run succeeded. A source that
// has never run counts as healthy.
func (s SourceStatus) Healthy() bool {
	return s.LastResult != StateFailed
}

package models

import "time"

// Snapshot is one persisted record of the three counters. The timestamp is its identity;
// the snapshot with the greatest timestamp is the current one.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Counts
}

func NewSnapshot(ts time.Time, counts Counts) *Snapshot {
	return &Snapshot{Timestamp: ts, Counts: counts}
}

package interfaces

import (
	"context"
	"icd/internal/models"
)

// StoreInterface keeps snapshots with "most recent wins" reads.
type StoreInterface interface {
	// Initialize creates the backing structure if it is missing. Safe to call repeatedly.
	Initialize(ctx context.Context) error
	// ReadLatest returns the snapshot with the greatest timestamp. Unreadable data reads as empty.
	ReadLatest(ctx context.Context) (*models.Snapshot, bool)
	// WriteLatest inserts the snapshot, or overwrites the counts of one with the same timestamp.
	WriteLatest(ctx context.Context, snapshot *models.Snapshot) error
	Close() error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"icd/internal/detection"
	"icd/internal/models"
	"icd/internal/providers"
	"icd/internal/snapshot/interfaces"
	"icd/internal/structures"
	"sync"
	"sync/atomic"
	"time"
)

type SnapshotServiceInterface interface {
	// Restore seeds the current snapshot from the store. Only the first call reads.
	Restore(ctx context.Context)
	// Submit runs one detect-and-update cycle for an image.
	Submit(ctx context.Context, image []byte) (*models.Snapshot, error)
	// GetLatest returns the current snapshot or models.ErrNotFound.
	GetLatest(ctx context.Context) (*models.Snapshot, error)
}

// SnapshotService owns the process-wide current snapshot. Readers load it
// atomically; it is replaced once per cycle, after the store accepted the write.
type SnapshotService struct {
	store     interfaces.StoreInterface
	detector  detection.DetectorInterface
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	threshold float64
	now       func() time.Time

	current     atomic.Pointer[models.Snapshot]
	commitMu    sync.Mutex
	lastTS      time.Time
	restoreOnce sync.Once
	initialized atomic.Bool
}

func NewSnapshotService(conf *structures.Config, store interfaces.StoreInterface, detector detection.DetectorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) SnapshotServiceInterface {
	return &SnapshotService{
		store:     store,
		detector:  detector,
		logger:    logger,
		metrics:   metrics,
		threshold: conf.Detector.Threshold,
		now:       time.Now,
	}
}

func (ss *SnapshotService) Restore(ctx context.Context) {
	ss.restoreOnce.Do(func() {
		ss.restore(ctx)
	})
}

func (ss *SnapshotService) restore(ctx context.Context) {
	if err := ss.store.Initialize(ctx); err != nil {
		ss.logger.Errorf(providers.TypeApp, "Snapshot store initialization failed, retrying on next write: %s", err)
	} else {
		ss.initialized.Store(true)
	}

	snapshot, ok := ss.store.ReadLatest(ctx)
	if !ok {
		ss.logger.Infof(providers.TypeApp, "No stored snapshot, starting empty")
		return
	}

	ss.commitMu.Lock()
	defer ss.commitMu.Unlock()

	if snapshot.Timestamp.After(ss.lastTS) {
		ss.lastTS = snapshot.Timestamp
	}
	// A cycle may have committed while the store was being read.
	if ss.current.CompareAndSwap(nil, snapshot) {
		ss.metrics.SetCounts(snapshot.Counts)
		ss.logger.Infof(providers.TypeApp, "Restored snapshot %s", snapshot.Timestamp.Format(time.RFC3339Nano))
	}
}

func (ss *SnapshotService) Submit(ctx context.Context, image []byte) (*models.Snapshot, error) {
	// A started cycle runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	if len(image) == 0 {
		ss.metrics.IncCycles(providers.OutcomeInvalidInput)
		return nil, fmt.Errorf("%w: image payload is empty", models.ErrInvalidInput)
	}

	baseline := models.Baseline()

	detections, err := ss.detector.Detect(ctx, image)
	if err != nil {
		ss.metrics.IncCycles(providers.OutcomeDetection)
		ss.logger.Warnf(providers.TypePost, "Detection failed: %s", err)
		return nil, fmt.Errorf("%w: %w", models.ErrDetection, err)
	}

	for kind, n := range Hits(detections, ss.threshold) {
		ss.metrics.AddAcceptedDetections(kind.Label(), n)
	}
	counts := Apply(baseline, detections, ss.threshold)

	snapshot, err := ss.commit(ctx, counts)
	if err != nil {
		ss.metrics.IncCycles(providers.OutcomeStorage)
		ss.logger.Errorf(providers.TypePost, "Snapshot persistence failed: %s", err)
		if !errors.Is(err, models.ErrStorage) {
			err = fmt.Errorf("%w: %w", models.ErrStorage, err)
		}
		return nil, err
	}

	ss.metrics.IncCycles(providers.OutcomeCommitted)
	ss.logger.Infof(providers.TypePost, "Snapshot %s committed: beauty=%d joint=%d bone=%d (%d detections)",
		snapshot.Timestamp.Format(time.RFC3339Nano), snapshot.BeautyEnhance, snapshot.JointEnhance, snapshot.BoneEnhance, len(detections))
	return snapshot, nil
}

// commit persists counts under a fresh timestamp and only then publishes them.
func (ss *SnapshotService) commit(ctx context.Context, counts models.Counts) (*models.Snapshot, error) {
	ss.commitMu.Lock()
	defer ss.commitMu.Unlock()

	// A store that was unreachable at startup is initialized by the first write that finds it up.
	if !ss.initialized.Load() {
		if err := ss.store.Initialize(ctx); err != nil {
			return nil, err
		}
		ss.initialized.Store(true)
	}

	snapshot := models.NewSnapshot(ss.nextTimestamp(), counts)

	start := time.Now()
	err := ss.store.WriteLatest(ctx, snapshot)
	ss.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		return nil, err
	}

	ss.current.Store(snapshot)
	ss.metrics.SetCounts(counts)

	out := *snapshot
	return &out, nil
}

// nextTimestamp returns the wall clock at microsecond precision, bumped past the
// last issued timestamp so keys never repeat within the process.
func (ss *SnapshotService) nextTimestamp() time.Time {
	ts := ss.now().Truncate(time.Microsecond)
	if !ts.After(ss.lastTS) {
		ts = ss.lastTS.Add(time.Microsecond)
	}
	ss.lastTS = ts
	return ts
}

func (ss *SnapshotService) GetLatest(ctx context.Context) (*models.Snapshot, error) {
	snapshot := ss.current.Load()
	if snapshot == nil {
		ss.Restore(ctx)
		snapshot = ss.current.Load()
	}
	if snapshot == nil {
		return nil, models.ErrNotFound
	}
	out := *snapshot
	return &out, nil
}

package services

import (
	"context"
	"errors"
	"icd/internal/models"
	"icd/internal/providers"
	"icd/internal/snapshot"
	"icd/internal/structures"
	"icd/internal/testutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var image = []byte{0x89, 'P', 'N', 'G'}

func testConfig() *structures.Config {
	return &structures.Config{
		Detector: structures.DetectorConfig{Threshold: threshold},
	}
}

type fixture struct {
	svc      *SnapshotService
	store    *testutil.MockStore
	detector *testutil.MockDetector
	metrics  *testutil.MockMetrics
	logger   *testutil.MockLogger
}

func newFixture() *fixture {
	f := &fixture{
		store:    testutil.NewMockStore(),
		detector: &testutil.MockDetector{},
		metrics:  testutil.NewMockMetrics(),
		logger:   &testutil.MockLogger{},
	}
	f.svc = NewSnapshotService(testConfig(), f.store, f.detector, f.logger, f.metrics).(*SnapshotService)
	return f
}

func TestGetLatest_EmptyStoreIsNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetLatest(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.svc.GetLatest(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 1, f.store.ReadCalls, "store is read once, on cold start")
	assert.Equal(t, 1, f.store.InitCalls)
}

func TestGetLatest_UnreadableStoreIsNotFound(t *testing.T) {
	f := newFixture()
	f.store.Put(time.Now(), models.Counts{BeautyEnhance: 1})
	f.store.Unreadable = true

	_, err := f.svc.GetLatest(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRestore_SeedsFromStore(t *testing.T) {
	f := newFixture()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f.store.Put(ts.Add(-time.Hour), models.Counts{BeautyEnhance: 9, JointEnhance: 9, BoneEnhance: 9})
	f.store.Put(ts, models.Counts{BeautyEnhance: 1, JointEnhance: 0, BoneEnhance: -1})

	f.svc.Restore(context.Background())
	got, err := f.svc.GetLatest(context.Background())

	require.NoError(t, err)
	assert.True(t, ts.Equal(got.Timestamp))
	assert.Equal(t, models.Counts{BeautyEnhance: 1, JointEnhance: 0, BoneEnhance: -1}, got.Counts)
	require.NotNil(t, f.metrics.LastCounts)
	assert.Equal(t, got.Counts, *f.metrics.LastCounts)
}

func TestRestore_InitializeFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.store.InitErr = errors.New("disk gone")

	f.svc.Restore(context.Background())

	assert.Equal(t, 1, f.logger.Count("error"))
	assert.Equal(t, 1, f.store.ReadCalls)
}

func TestSubmit_InitializesStoreAfterStartupFailure(t *testing.T) {
	f := newFixture()
	f.store.InitErr = errors.New("connection refused")
	f.svc.Restore(context.Background())

	_, err := f.svc.Submit(context.Background(), image)
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.Zero(t, f.store.WriteCalls)

	f.store.InitErr = nil
	snapshot, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, models.Baseline(), snapshot.Counts)
	assert.Equal(t, 3, f.store.InitCalls)

	// once initialized, writes go straight to the store
	_, err = f.svc.Submit(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, 3, f.store.InitCalls)
	assert.Equal(t, 2, f.store.Len())
}

func TestSubmit_FileStoreDirectoryCreatedAfterStartupFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	logger := &testutil.MockLogger{}
	store := snapshot.NewFileStore(filepath.Join(blocker, "store.dat"), &testutil.MockCompressor{}, logger)
	svc := NewSnapshotService(testConfig(), store, &testutil.MockDetector{}, logger, testutil.NewMockMetrics())
	svc.Restore(context.Background())

	require.NoError(t, os.Remove(blocker))

	committed, err := svc.Submit(context.Background(), image)
	require.NoError(t, err)

	got, err := svc.GetLatest(context.Background())
	require.NoError(t, err)
	assert.True(t, committed.Timestamp.Equal(got.Timestamp))

	stored, ok := store.ReadLatest(context.Background())
	require.True(t, ok)
	assert.Equal(t, models.Baseline(), stored.Counts)
}

func TestRestore_DoesNotOverwriteCommittedSnapshot(t *testing.T) {
	f := newFixture()
	f.store.Put(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), models.Counts{BeautyEnhance: 7})

	f.detector.Result = models.DetectionResult{det(models.LabelRibbon, 0.99)}
	_, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	// the first restore happens after the commit
	f.svc.Restore(context.Background())

	got, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.BeautyEnhance)
}

func TestSubmit_Scenario_MixedConfidence(t *testing.T) {
	f := newFixture()
	f.detector.Result = models.DetectionResult{
		det(models.LabelRibbon, 0.95),
		det(models.LabelRibbon, 0.80),
		det(models.LabelArrow, 0.99),
	}

	snapshot, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	want := models.Counts{BeautyEnhance: 2, JointEnhance: 2, BoneEnhance: 3}
	assert.Equal(t, want, snapshot.Counts)

	got, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got.Counts)

	stored, ok := f.store.ReadLatest(context.Background())
	require.True(t, ok)
	assert.Equal(t, want, stored.Counts)
	assert.True(t, snapshot.Timestamp.Equal(stored.Timestamp))

	assert.Equal(t, 1, f.metrics.CycleCount(providers.OutcomeCommitted))
	assert.Equal(t, 1, f.metrics.Accepted[models.LabelRibbon])
	assert.Equal(t, 1, f.metrics.Accepted[models.LabelArrow])
	assert.Equal(t, [][]byte{image}, f.detector.Calls)
}

func TestSubmit_Scenario_ZeroDetections(t *testing.T) {
	f := newFixture()

	snapshot, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, models.Baseline(), snapshot.Counts)
}

func TestSubmit_Scenario_NegativeCounts(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.detector.Result = append(f.detector.Result, det(models.LabelStar, 0.91))
	}

	snapshot, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, models.Counts{BeautyEnhance: 3, JointEnhance: 3, BoneEnhance: -2}, snapshot.Counts)
}

func TestSubmit_EveryCycleStartsFromBaseline(t *testing.T) {
	f := newFixture()
	f.detector.Result = models.DetectionResult{det(models.LabelRibbon, 0.99), det(models.LabelRibbon, 0.99)}
	_, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	f.detector.Result = models.DetectionResult{det(models.LabelArrow, 0.99)}
	snapshot, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, models.Counts{BeautyEnhance: 3, JointEnhance: 2, BoneEnhance: 3}, snapshot.Counts)
	assert.Equal(t, 2, f.store.Len())
}

func TestSubmit_EmptyImageIsInvalidInput(t *testing.T) {
	f := newFixture()

	for _, payload := range [][]byte{nil, {}} {
		_, err := f.svc.Submit(context.Background(), payload)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}
	assert.Zero(t, f.detector.CallCount())
	assert.Zero(t, f.store.WriteCalls)
	assert.Equal(t, 2, f.metrics.CycleCount(providers.OutcomeInvalidInput))
}

func TestSubmit_DetectionFailureKeepsPreviousSnapshot(t *testing.T) {
	f := newFixture()
	f.detector.Result = models.DetectionResult{det(models.LabelStar, 0.99)}
	before, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	f.detector.Err = errors.New("status 503")
	_, err = f.svc.Submit(context.Background(), image)
	assert.ErrorIs(t, err, models.ErrDetection)
	assert.Contains(t, err.Error(), "status 503")

	got, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.Counts, got.Counts)
	assert.True(t, before.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, 1, f.store.WriteCalls)
	assert.Equal(t, 1, f.metrics.CycleCount(providers.OutcomeDetection))
}

func TestSubmit_StorageFailureKeepsPreviousSnapshot(t *testing.T) {
	f := newFixture()
	before, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	f.store.WriteErr = errors.New("read-only file system")
	f.detector.Result = models.DetectionResult{det(models.LabelRibbon, 0.99)}
	_, err = f.svc.Submit(context.Background(), image)
	assert.ErrorIs(t, err, models.ErrStorage)

	got, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.Counts, got.Counts)
	assert.Equal(t, 1, f.metrics.CycleCount(providers.OutcomeStorage))

	// the service keeps working once the store recovers
	f.store.WriteErr = nil
	after, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, 2, after.BeautyEnhance)
}

func TestSubmit_IgnoresCallerCancellation(t *testing.T) {
	f := newFixture()
	f.detector.DetectFn = func(ctx context.Context, _ []byte) (models.DetectionResult, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Submit(ctx, image)
	assert.NoError(t, err)
}

func TestNextTimestamp_StrictlyIncreasing(t *testing.T) {
	f := newFixture()
	fixed := time.Date(2024, 5, 5, 12, 0, 0, 123456789, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	a, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)
	b, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, fixed.Truncate(time.Microsecond), a.Timestamp)
	assert.True(t, b.Timestamp.After(a.Timestamp))
	assert.Equal(t, 2, f.store.Len())
}

func TestNextTimestamp_AfterRestoredSnapshot(t *testing.T) {
	f := newFixture()
	future := time.Now().Add(time.Hour).Truncate(time.Microsecond)
	f.store.Put(future, models.Baseline())
	f.svc.Restore(context.Background())

	snapshot, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)
	assert.True(t, snapshot.Timestamp.After(future))

	got, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	assert.True(t, snapshot.Timestamp.Equal(got.Timestamp))
}

func TestGetLatest_ReturnsCopy(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	got, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	got.BeautyEnhance = 100

	again, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, again.BeautyEnhance)
}

func TestConcurrency_ReadersNeverSeeInFlightBaseline(t *testing.T) {
	f := newFixture()
	f.detector.Result = models.DetectionResult{det(models.LabelRibbon, 0.99)}
	first, err := f.svc.Submit(context.Background(), image)
	require.NoError(t, err)

	release := make(chan struct{})
	detecting := make(chan struct{})
	f.detector.DetectFn = func(_ context.Context, _ []byte) (models.DetectionResult, error) {
		close(detecting)
		<-release
		return models.DetectionResult{det(models.LabelStar, 0.99)}, nil
	}

	done := make(chan *models.Snapshot)
	go func() {
		s, _ := f.svc.Submit(context.Background(), image)
		done <- s
	}()

	<-detecting
	for i := 0; i < 100; i++ {
		got, err := f.svc.GetLatest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.Counts, got.Counts)
	}
	close(release)

	committed := <-done
	require.NotNil(t, committed)
	got, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Counts{BeautyEnhance: 3, JointEnhance: 3, BoneEnhance: 2}, got.Counts)
}

func TestConcurrency_ParallelSubmitsAllCommit(t *testing.T) {
	f := newFixture()
	f.detector.DetectFn = func(_ context.Context, img []byte) (models.DetectionResult, error) {
		n := int(img[0])
		result := make(models.DetectionResult, 0, n)
		for i := 0; i < n; i++ {
			result = append(result, det(models.LabelArrow, 0.99))
		}
		return result, nil
	}

	const workers = 20
	var wg sync.WaitGroup
	valid := make(map[int]bool, workers)
	for i := 0; i < workers; i++ {
		valid[models.BaselineQuantity-i] = true
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.svc.Submit(context.Background(), []byte{byte(n)})
			assert.NoError(t, err)
		}(i)
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if got, err := f.svc.GetLatest(context.Background()); err == nil {
				assert.True(t, valid[got.JointEnhance])
				assert.Equal(t, models.BaselineQuantity, got.BeautyEnhance)
				assert.Equal(t, models.BaselineQuantity, got.BoneEnhance)
			}
		}
	}()

	wg.Wait()
	close(stop)
	readers.Wait()

	assert.Equal(t, workers, f.store.Len())
	assert.Equal(t, workers, f.metrics.CycleCount(providers.OutcomeCommitted))

	got, err := f.svc.GetLatest(context.Background())
	require.NoError(t, err)
	stored, ok := f.store.ReadLatest(context.Background())
	require.True(t, ok)
	assert.Equal(t, stored.Counts, got.Counts, "cache matches the last committed write")
	assert.True(t, stored.Timestamp.Equal(got.Timestamp))
}

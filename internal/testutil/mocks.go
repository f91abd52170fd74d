package testutil

import (
	"context"
	"icd/internal/models"
	"icd/internal/providers"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockStore implements interfaces.StoreInterface in memory.
type MockStore struct {
	mu         sync.Mutex
	Records    map[time.Time]models.Counts
	InitCalls  int
	ReadCalls  int
	WriteCalls int
	InitErr    error
	WriteErr   error
	Unreadable bool
	WriteHook  func(snapshot *models.Snapshot)
}

func NewMockStore() *MockStore {
	return &MockStore{Records: make(map[time.Time]models.Counts)}
}

func (m *MockStore) Initialize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitCalls++
	return m.InitErr
}

func (m *MockStore) ReadLatest(_ context.Context) (*models.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCalls++
	if m.Unreadable || len(m.Records) == 0 {
		return nil, false
	}
	var latest time.Time
	for ts := range m.Records {
		if ts.After(latest) {
			latest = ts
		}
	}
	return models.NewSnapshot(latest, m.Records[latest]), true
}

func (m *MockStore) WriteLatest(_ context.Context, snapshot *models.Snapshot) error {
	if m.WriteHook != nil {
		m.WriteHook(snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Records[snapshot.Timestamp] = snapshot.Counts
	return nil
}

func (m *MockStore) Close() error { return nil }

// Put seeds a record directly.
func (m *MockStore) Put(ts time.Time, counts models.Counts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[ts] = counts
}

// Len returns the number of stored records.
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}

// MockDetector implements detection.DetectorInterface.
type MockDetector struct {
	mu       sync.Mutex
	Result   models.DetectionResult
	Err      error
	DetectFn func(ctx context.Context, image []byte) (models.DetectionResult, error)
	Calls    [][]byte
}

func (m *MockDetector) Detect(ctx context.Context, image []byte) (models.DetectionResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, image)
	fn := m.DetectFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, image)
	}
	return m.Result, m.Err
}

// CallCount returns the number of Detect invocations.
func (m *MockDetector) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockCache implements providers.CacheProviderInterface keyed by UnixMicro.
type MockCache struct {
	mu   sync.Mutex
	Data map[int64][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[int64][]byte)}
}

func (m *MockCache) GetResult(ts time.Time) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[ts.UnixMicro()]
	return val, ok
}

func (m *MockCache) SetResult(ts time.Time, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[ts.UnixMicro()] = body
}

func (m *MockCache) EntryCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Data))
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and records cycle outcomes.
type MockMetrics struct {
	mu         sync.Mutex
	Cycles     map[string]int
	Accepted   map[string]int
	LastCounts *models.Counts
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Cycles: make(map[string]int), Accepted: make(map[string]int)}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) SetCacheEntries(_ int64)                          {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration)       {}

func (m *MockMetrics) IncCycles(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cycles[outcome]++
}

func (m *MockMetrics) AddAcceptedDetections(label string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accepted[label] += n
}

func (m *MockMetrics) SetCounts(counts models.Counts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCounts = &counts
}

// CycleCount returns how many cycles ended with outcome.
func (m *MockMetrics) CycleCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Cycles[outcome]
}

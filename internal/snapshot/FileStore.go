package snapshot

import (
	"context"
	"errors"
	"fmt"
	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
	"icd/internal/models"
	"icd/internal/providers"
	"icd/internal/snapshot/interfaces"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

var errCorrupt = errors.New("corrupt snapshot file")

// FileStore keeps every snapshot in one zstd-compressed JSON file.
type FileStore struct {
	path       string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	mu         sync.Mutex
}

func NewFileStore(path string, compressor interfaces.CompressorInterface, logger providers.Logger) *FileStore {
	return &FileStore{
		path:       path,
		compressor: compressor,
		logger:     logger,
	}
}

func (f *FileStore) Initialize(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("%w: create store directory: %w", models.ErrStorage, err)
	}
	return nil
}

func (f *FileStore) ReadLatest(_ context.Context) (*models.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshots, err := f.load()
	if err != nil {
		f.logger.Warnf(providers.TypeApp, "Snapshot file %s unreadable, treating as empty: %s", f.path, err)
		return nil, false
	}
	if len(snapshots) == 0 {
		return nil, false
	}

	latest := snapshots[0]
	for _, s := range snapshots[1:] {
		if s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	return models.NewSnapshot(latest.Timestamp, latest.Counts), true
}

func (f *FileStore) WriteLatest(_ context.Context, snapshot *models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshots, err := f.load()
	if err != nil {
		if !errors.Is(err, errCorrupt) {
			return fmt.Errorf("%w: %w", models.ErrStorage, err)
		}
		f.logger.Warnf(providers.TypeApp, "Snapshot file %s is corrupt, starting a new history: %s", f.path, err)
		snapshots = nil
	}

	snapshots = upsert(snapshots, snapshot)

	jsonData, err := json.Marshal(&models.StorageEnvelope{
		Version:   models.StoreFormatVersion,
		Snapshots: snapshots,
	})
	if err != nil {
		return fmt.Errorf("%w: encode snapshots: %w", models.ErrStorage, err)
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return fmt.Errorf("%w: compress snapshots: %w", models.ErrStorage, err)
	}

	if err = writeAtomic(f.path, data); err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return nil
}

// Close is a no-op: the file is opened per write and the compressor belongs to its provider.
func (f *FileStore) Close() error {
	return nil
}

// upsert replaces the counts of an equal timestamp or appends, keeping ascending order.
func upsert(snapshots []*models.Snapshot, snapshot *models.Snapshot) []*models.Snapshot {
	for _, s := range snapshots {
		if s.Timestamp.Equal(snapshot.Timestamp) {
			s.Counts = snapshot.Counts
			return snapshots
		}
	}
	snapshots = append(snapshots, models.NewSnapshot(snapshot.Timestamp, snapshot.Counts))
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
	})
	return snapshots
}

func writeAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// load returns the stored history. A missing file is an empty history; anything
// that cannot be decoded is reported as errCorrupt.
func (f *FileStore) load() ([]*models.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	raw := data
	if decompressed, err := f.compressor.Decompress(data); err == nil {
		raw = decompressed
	}

	var envelope models.StorageEnvelope
	err = json.Unmarshal(raw, &envelope)
	if err == nil && envelope.Version > 0 {
		snapshots := make([]*models.Snapshot, 0, len(envelope.Snapshots))
		for _, s := range envelope.Snapshots {
			if s != nil {
				snapshots = append(snapshots, s)
			}
		}
		return snapshots, nil
	}
	// Legacy records never carry a version, so an envelope that fails to decode stays an envelope.
	if hasVersionKey(raw) {
		if err == nil {
			err = fmt.Errorf("unsupported format version %d", envelope.Version)
		}
		return nil, fmt.Errorf("%w: %w", errCorrupt, err)
	}

	// Single plain JSON object written by the first version of the service
	var legacy models.LegacyRecord
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	if legacy.Error != nil || legacy.Timestamp == "" {
		return nil, nil
	}
	ts, err := parseLegacyTimestamp(legacy.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	f.logger.Warnf(providers.TypeApp, "Legacy snapshot format found in %s, it will be migrated on the next write", f.path)

	counts := models.Baseline()
	for _, k := range models.Kinds {
		v, ok := legacy.Count(k)
		if !ok {
			continue
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errCorrupt, k.Name(), err)
		}
		counts.Set(k, n)
	}
	return []*models.Snapshot{models.NewSnapshot(ts, counts)}, nil
}

func hasVersionKey(raw []byte) bool {
	var head struct {
		Version json.RawMessage `json:"version"`
	}
	return json.Unmarshal(raw, &head) == nil && len(head.Version) > 0
}

func parseLegacyTimestamp(value string) (time.Time, error) {
	ts, err := time.ParseInLocation(models.LegacyTimestampLayout, value, time.Local)
	if err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

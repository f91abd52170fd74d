package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"icd/internal/models"
	"icd/internal/providers"
	"time"
)

const (
	queryCreateSnapshots = `
		CREATE TABLE IF NOT EXISTS snapshots (
			timestamp       TIMESTAMPTZ PRIMARY KEY,
			beauty_enhance  INTEGER NOT NULL,
			joint_enhance   INTEGER NOT NULL,
			bone_enhance    INTEGER NOT NULL
		)`

	queryUpsertSnapshot = `
		INSERT INTO snapshots (timestamp, beauty_enhance, joint_enhance, bone_enhance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (timestamp) DO UPDATE SET
			beauty_enhance = EXCLUDED.beauty_enhance,
			joint_enhance = EXCLUDED.joint_enhance,
			bone_enhance = EXCLUDED.bone_enhance`

	querySelectLatest = `
		SELECT timestamp, beauty_enhance, joint_enhance, bone_enhance
		FROM snapshots
		ORDER BY timestamp DESC
		LIMIT 1`
)

// PostgresStore keeps snapshots as rows keyed by timestamp.
type PostgresStore struct {
	db     *sqlx.DB
	logger providers.Logger
}

func NewPostgresStore(db *sqlx.DB, logger providers.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// OpenPostgres opens a lazily connecting pool; the first query dials.
func OpenPostgres(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func (p *PostgresStore) Initialize(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, queryCreateSnapshots); err != nil {
		return fmt.Errorf("%w: create snapshots table: %w", models.ErrStorage, err)
	}
	return nil
}

func (p *PostgresStore) ReadLatest(ctx context.Context) (*models.Snapshot, bool) {
	var snapshot models.Snapshot
	err := p.db.GetContext(ctx, &snapshot, querySelectLatest)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			p.logger.Warnf(providers.TypeApp, "Failed to read latest snapshot, treating as empty: %s", err)
		}
		return nil, false
	}
	return &snapshot, true
}

func (p *PostgresStore) WriteLatest(ctx context.Context, snapshot *models.Snapshot) error {
	_, err := p.db.ExecContext(ctx, queryUpsertSnapshot,
		snapshot.Timestamp,
		snapshot.BeautyEnhance,
		snapshot.JointEnhance,
		snapshot.BoneEnhance,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert snapshot: %w", models.ErrStorage, err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

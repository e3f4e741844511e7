package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Append inserts snapshots, skipping rows that already exist for the same
// (market_id, recorded_at) pair and rows missing either key field. It returns
// the number of rows actually inserted.
func (s *SnapshotStore) Append(ctx context.Context, snaps []domain.Snapshot) (int, error) {
	if len(snaps) == 0 {
		return 0, nil
	}

	const query = `
		INSERT INTO market_snapshots (
			market_id, question, category,
			yes_price, no_price, volume_24h, volume_total, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (market_id, recorded_at) DO NOTHING`

	batch := &pgx.Batch{}
	queued := 0
	for _, snap := range snaps {
		if snap.MarketID == "" || snap.RecordedAt.IsZero() {
			continue
		}
		batch.Queue(query,
			snap.MarketID, snap.Question, snap.Category,
			snap.YesPrice, snap.NoPrice, snap.Volume24h, snap.VolumeTotal,
			snap.RecordedAt,
		)
		queued++
	}
	if queued == 0 {
		return 0, nil
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for i := 0; i < queued; i++ {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("postgres: append snapshot batch item %d: %w", i, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Query returns the price points for a market strictly after since, ascending
// by recording time.
func (s *SnapshotStore) Query(ctx context.Context, marketID string, since time.Time) ([]domain.PricePoint, error) {
	const query = `
		SELECT yes_price, recorded_at
		FROM market_snapshots
		WHERE market_id = $1 AND recorded_at > $2
		ORDER BY recorded_at ASC`

	rows, err := s.pool.Query(ctx, query, marketID, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: query snapshots for %s: %w", marketID, err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.YesPrice, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query snapshots rows: %w", err)
	}
	return points, nil
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *pgxpool.Pool
}

// NewAlertStore creates an AlertStore backed by the given connection pool.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Insert persists a sudden-move alert. A missing ID is assigned automatically.
func (s *AlertStore) Insert(ctx context.Context, a domain.Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO alerts (
			id, market_id, question, change_type,
			old_price, new_price, change_pct, tickers, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, query,
		a.ID, a.MarketID, a.Question, a.ChangeType,
		a.OldPrice, a.NewPrice, a.ChangePct, a.Tickers, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert alert for market %s: %w", a.MarketID, err)
	}
	return nil
}

// ListRecent returns the most recent alerts, newest first.
func (s *AlertStore) ListRecent(ctx context.Context, limit int) ([]domain.Alert, error) {
	const query = `
		SELECT id, market_id, question, change_type,
		       old_price, new_price, change_pct, tickers, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(
			&a.ID, &a.MarketID, &a.Question, &a.ChangeType,
			&a.OldPrice, &a.NewPrice, &a.ChangePct, &a.Tickers, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent alerts rows: %w", err)
	}
	return alerts, nil
}

var _ domain.AlertStore = (*AlertStore)(nil)

package repository

import (
	"context"
	"time"

	"crypto-weather/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// HistoryRepository persists daily price series per coin.
type HistoryRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewHistoryRepository(pool PgxPool, tracer trace.Tracer) *HistoryRepository {
	return &HistoryRepository{pool: pool, tracer: tracer}
}

func (r *HistoryRepository) UpsertPoints(ctx context.Context, geckoID string, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "history-repo.upsert-points")
	defer span.End()

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(
			`INSERT INTO price_points (gecko_id, ts, price, market_cap, volume)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (gecko_id, ts) DO UPDATE SET
			     price = EXCLUDED.price,
			     market_cap = EXCLUDED.market_cap,
			     volume = EXCLUDED.volume`,
			geckoID, p.Timestamp, p.Price, p.MarketCap, p.Volume,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range points {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetPoints returns up to limit samples for a coin, oldest first.
func (r *HistoryRepository) GetPoints(ctx context.Context, geckoID string, limit int) ([]domain.PricePoint, error) {
	_, span := r.tracer.Start(ctx, "history-repo.get-points")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT ts, price, market_cap, volume FROM (
		     SELECT ts, price, market_cap, volume
		     FROM price_points
		     WHERE gecko_id = $1
		     ORDER BY ts DESC
		     LIMIT $2
		 ) latest
		 ORDER BY ts ASC`,
		geckoID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPoints(rows)
}

// GetPointsInRange returns samples between from and to inclusive, oldest first.
func (r *HistoryRepository) GetPointsInRange(ctx context.Context, geckoID string, from, to time.Time) ([]domain.PricePoint, error) {
	_, span := r.tracer.Start(ctx, "history-repo.get-points-in-range")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT ts, price, market_cap, volume
		 FROM price_points
		 WHERE gecko_id = $1 AND ts >= $2 AND ts <= $3
		 ORDER BY ts ASC`,
		geckoID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPoints(rows)
}

// LatestTimestamp returns the newest stored sample time for a coin, or the
// zero time when none exist.
func (r *HistoryRepository) LatestTimestamp(ctx context.Context, geckoID string) (time.Time, error) {
	_, span := r.tracer.Start(ctx, "history-repo.latest-timestamp")
	defer span.End()

	var ts *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(ts) FROM price_points WHERE gecko_id = $1`, geckoID,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}

func scanPoints(rows pgx.Rows) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Price, &p.MarketCap, &p.Volume); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

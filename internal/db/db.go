package db

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

const schema = `
CREATE TABLE IF NOT EXISTS price_points (
	gecko_id   TEXT        NOT NULL,
	ts         TIMESTAMPTZ NOT NULL,
	price      DOUBLE PRECISION NOT NULL,
	market_cap DOUBLE PRECISION,
	volume     DOUBLE PRECISION,
	PRIMARY KEY (gecko_id, ts)
);
CREATE INDEX IF NOT EXISTS idx_price_points_gecko_ts ON price_points (gecko_id, ts DESC);
`

func InitPostgres(ctx context.Context) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("DATABASE_URL not set, skipping Postgres connection")
		return
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping Postgres: %v", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	Pool = pool
	log.Println("Connected to Postgres")
}

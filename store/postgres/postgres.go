// Package postgres provides a PostgreSQL-backed DecisionStore for smartrouter.
//
// Decisions are appended to a single table, so several router instances can
// share one history and analytics survive restarts.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartllm/smartrouter"
)

// Store is a PostgreSQL-backed DecisionStore.
type Store struct {
	pool        *pgxpool.Pool
	tablePrefix string
}

var _ smartrouter.DecisionStore = (*Store)(nil)

// Option configures Store.
type Option func(*Store)

// WithTablePrefix sets the table name prefix (default "smartrouter_").
func WithTablePrefix(prefix string) Option {
	return func(s *Store) { s.tablePrefix = prefix }
}

// New creates a new PostgreSQL-backed DecisionStore.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:        pool,
		tablePrefix: "smartrouter_",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) decisionsTable() string { return s.tablePrefix + "decisions" }

// EnsureSchema creates the required table and index if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id            TEXT PRIMARY KEY,
			time          TIMESTAMPTZ NOT NULL,
			model         TEXT NOT NULL,
			provider      TEXT NOT NULL DEFAULT '',
			task_type     TEXT NOT NULL DEFAULT '',
			complexity    DOUBLE PRECISION NOT NULL DEFAULT 0,
			matched_rule  TEXT NOT NULL DEFAULT '',
			strategy      TEXT NOT NULL DEFAULT '',
			cost_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
			savings_usd   DOUBLE PRECISION NOT NULL DEFAULT 0,
			cache_hit     BOOLEAN NOT NULL DEFAULT false,
			fallback      BOOLEAN NOT NULL DEFAULT false,
			input_tokens  BIGINT NOT NULL DEFAULT 0,
			output_tokens BIGINT NOT NULL DEFAULT 0,
			latency_ns    BIGINT NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS %[1]s_time_idx ON %[1]s (time);
	`, s.decisionsTable())
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("smartrouter/postgres: ensure schema: %w", err)
	}
	return nil
}

// Append records a single decision.
func (s *Store) Append(ctx context.Context, d smartrouter.RoutingDecision) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Time.IsZero() {
		d.Time = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (
			id, time, model, provider, task_type, complexity, matched_rule,
			strategy, cost_usd, savings_usd, cache_hit, fallback,
			input_tokens, output_tokens, latency_ns
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			s.decisionsTable()),
		d.ID, d.Time.UTC(), d.Model, d.Provider, string(d.TaskType), d.Complexity,
		d.MatchedRule, string(d.Strategy), d.Cost, d.Savings, d.CacheHit, d.Fallback,
		d.InputTokens, d.OutputTokens, int64(d.Latency),
	)
	if err != nil {
		return fmt.Errorf("smartrouter/postgres: append: %w", err)
	}
	return nil
}

// List returns decisions recorded at or after since, oldest first.
func (s *Store) List(ctx context.Context, since time.Time) ([]smartrouter.RoutingDecision, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, time, model, provider, task_type, complexity, matched_rule,
			strategy, cost_usd, savings_usd, cache_hit, fallback,
			input_tokens, output_tokens, latency_ns
		FROM %s WHERE time >= $1 ORDER BY time ASC`, s.decisionsTable()),
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("smartrouter/postgres: list: %w", err)
	}
	defer rows.Close()

	var out []smartrouter.RoutingDecision
	for rows.Next() {
		var (
			d         smartrouter.RoutingDecision
			taskType  string
			strategy  string
			latencyNS int64
		)
		if err := rows.Scan(
			&d.ID, &d.Time, &d.Model, &d.Provider, &taskType, &d.Complexity,
			&d.MatchedRule, &strategy, &d.Cost, &d.Savings, &d.CacheHit,
			&d.Fallback, &d.InputTokens, &d.OutputTokens, &latencyNS,
		); err != nil {
			return nil, fmt.Errorf("smartrouter/postgres: scan: %w", err)
		}
		d.TaskType = smartrouter.TaskType(taskType)
		d.Strategy = smartrouter.Strategy(strategy)
		d.Latency = time.Duration(latencyNS)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("smartrouter/postgres: list: %w", err)
	}
	return out, nil
}

// Close is a no-op. The pool lifecycle belongs to the caller.
func (s *Store) Close() error { return nil }

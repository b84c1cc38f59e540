// Package sqlite provides a SQLite-backed DecisionStore for smartrouter.
//
// Decisions survive process restarts, so analytics keep their history across
// deploys. The driver is pure Go (modernc.org/sqlite) and needs no cgo.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/smartllm/smartrouter"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed smartrouter.DecisionStore.
type Store struct {
	db *sql.DB
}

var _ smartrouter.DecisionStore = (*Store)(nil)

// New opens or creates a SQLite database at the given path.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Append inserts one routing decision. Empty IDs and timestamps are filled
// before the insert.
func (s *Store) Append(ctx context.Context, d smartrouter.RoutingDecision) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Time.IsZero() {
		d.Time = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, time, model, provider, task_type, complexity, matched_rule, strategy,
		                        cost_usd, savings_usd, cache_hit, fallback, input_tokens, output_tokens, latency_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Time.UTC(), d.Model, d.Provider, string(d.TaskType), d.Complexity, d.MatchedRule, string(d.Strategy),
		d.Cost, d.Savings, d.CacheHit, d.Fallback, d.InputTokens, d.OutputTokens, int64(d.Latency),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// List returns decisions at or after since, oldest first.
func (s *Store) List(ctx context.Context, since time.Time) ([]smartrouter.RoutingDecision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, time, model, provider, task_type, complexity, matched_rule, strategy,
		        cost_usd, savings_usd, cache_hit, fallback, input_tokens, output_tokens, latency_ns
		 FROM decisions WHERE time >= ? ORDER BY time ASC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []smartrouter.RoutingDecision
	for rows.Next() {
		var (
			d         smartrouter.RoutingDecision
			taskType  string
			strategy  string
			latencyNS int64
		)
		if err := rows.Scan(&d.ID, &d.Time, &d.Model, &d.Provider, &taskType, &d.Complexity,
			&d.MatchedRule, &strategy, &d.Cost, &d.Savings, &d.CacheHit, &d.Fallback,
			&d.InputTokens, &d.OutputTokens, &latencyNS); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		d.TaskType = smartrouter.TaskType(taskType)
		d.Strategy = smartrouter.Strategy(strategy)
		d.Latency = time.Duration(latencyNS)
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

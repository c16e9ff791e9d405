package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/types"
	"github.com/okian/miya/pkg/logger"
)

const memoryPath = ":memory:"

// SQLiteStore implements PredictionStore on a SQLite file.
type SQLiteStore struct {
	db            *sql.DB
	logger        logger.Logger
	busyTimeoutMS int
}

// OpenSQLiteStore opens (creating if needed) the database at path and
// applies the embedded migrations. ":memory:" gives a private in-memory
// database.
func OpenSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{logger: logger.Nop(), busyTimeoutMS: 5000}
	for _, opt := range opts {
		opt(s)
	}

	dsn := path
	if path != memoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, s.busyTimeoutMS)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.db = db
	s.logger.Debug(ctx, "prediction store ready", logger.String("path", path))
	return s, nil
}

// SaveBatch writes the run and all its rows in one transaction. Saving the
// same run twice replaces it.
func (s *SQLiteStore) SaveBatch(ctx context.Context, b types.Batch) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM predictions WHERE run_id = ?`, b.RunID); err != nil {
		return fmt.Errorf("clear run %s: %w", b.RunID, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, started_at, ok, failed) VALUES (?, ?, ?, ?)`,
		b.RunID, b.StartedAt.UTC().Format(time.RFC3339Nano), b.OK, b.Failed,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", b.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO predictions (
		run_id, row_index, team1, team2, seed1, seed2, status, error,
		winner, winner_probability, team1_probability, team1_score, team2_score, score, close_game,
		team1_rank, team2_rank, team1_record, team2_record,
		worth_adv, prime_adv, road_adv, nerve_adv,
		team1_win_pct, team2_win_pct, team1_adjoe, team2_adjoe,
		team1_adjde, team2_adjde, team1_barthag, team2_barthag,
		team1_worth, team1_prime, team1_road, team1_nerve,
		team2_worth, team2_prime, team2_road, team2_nerve
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range b.Rows {
		args := []any{
			b.RunID, r.Index, r.Team1, r.Team2, r.Seed1, r.Seed2, r.Status, r.Error,
			r.Winner, r.WinnerProbability, r.Team1Probability, r.Team1Score, r.Team2Score, r.Score, r.CloseGame,
			r.Team1Rank, r.Team2Rank, r.Team1Record, r.Team2Record,
			nullable(r.WorthAdv), nullable(r.PrimeAdv), nullable(r.RoadAdv), nullable(r.NerveAdv),
			r.Team1WinPct, r.Team2WinPct, r.Team1AdjOE, r.Team2AdjOE,
			r.Team1AdjDE, r.Team2AdjDE, r.Team1Barthag, r.Team2Barthag,
		}
		args = append(args, metricArgs(r.Team1Metrics)...)
		args = append(args, metricArgs(r.Team2Metrics)...)
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d of run %s: %w", r.Index, b.RunID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", b.RunID, err)
	}
	s.logger.Info(ctx, "batch saved", logger.String("run_id", b.RunID), logger.Int("rows", len(b.Rows)))
	return nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// metricArgs binds one team's metrics, all NULL when absent.
func metricArgs(m *model.CompositeMetrics) []any {
	if m == nil {
		return []any{sql.NullFloat64{}, sql.NullFloat64{}, sql.NullFloat64{}, sql.NullFloat64{}}
	}
	return []any{m.Worth, m.Prime, m.Road, m.Nerve}
}

// scanMetrics rebuilds one team's metrics; any NULL column means absent.
func scanMetrics(v [4]sql.NullFloat64) *model.CompositeMetrics {
	for _, f := range v {
		if !f.Valid {
			return nil
		}
	}
	return &model.CompositeMetrics{Worth: v[0].Float64, Prime: v[1].Float64, Road: v[2].Float64, Nerve: v[3].Float64}
}

func pointer(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// LoadBatch reads a run back with its rows in index order.
func (s *SQLiteStore) LoadBatch(ctx context.Context, runID string) (types.Batch, error) {
	var (
		b         types.Batch
		startedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, ok, failed FROM runs WHERE run_id = ?`, runID,
	).Scan(&b.RunID, &startedAt, &b.OK, &b.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Batch{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return types.Batch{}, fmt.Errorf("load run %s: %w", runID, err)
	}
	if b.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return types.Batch{}, fmt.Errorf("run %s started_at %q: %w", runID, startedAt, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		row_index, team1, team2, seed1, seed2, status, error,
		winner, winner_probability, team1_probability, team1_score, team2_score, score, close_game,
		team1_rank, team2_rank, team1_record, team2_record,
		worth_adv, prime_adv, road_adv, nerve_adv,
		team1_win_pct, team2_win_pct, team1_adjoe, team2_adjoe,
		team1_adjde, team2_adjde, team1_barthag, team2_barthag,
		team1_worth, team1_prime, team1_road, team1_nerve,
		team2_worth, team2_prime, team2_road, team2_nerve
	FROM predictions WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return types.Batch{}, fmt.Errorf("load rows of run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			r                        types.ResultRow
			worth, prime, road, nerv sql.NullFloat64
			m1, m2                   [4]sql.NullFloat64
		)
		if err := rows.Scan(
			&r.Index, &r.Team1, &r.Team2, &r.Seed1, &r.Seed2, &r.Status, &r.Error,
			&r.Winner, &r.WinnerProbability, &r.Team1Probability, &r.Team1Score, &r.Team2Score, &r.Score, &r.CloseGame,
			&r.Team1Rank, &r.Team2Rank, &r.Team1Record, &r.Team2Record,
			&worth, &prime, &road, &nerv,
			&r.Team1WinPct, &r.Team2WinPct, &r.Team1AdjOE, &r.Team2AdjOE,
			&r.Team1AdjDE, &r.Team2AdjDE, &r.Team1Barthag, &r.Team2Barthag,
			&m1[0], &m1[1], &m1[2], &m1[3],
			&m2[0], &m2[1], &m2[2], &m2[3],
		); err != nil {
			return types.Batch{}, fmt.Errorf("scan row of run %s: %w", runID, err)
		}
		r.WorthAdv, r.PrimeAdv, r.RoadAdv, r.NerveAdv = pointer(worth), pointer(prime), pointer(road), pointer(nerv)
		r.Team1Metrics, r.Team2Metrics = scanMetrics(m1), scanMetrics(m2)
		b.Rows = append(b.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return types.Batch{}, fmt.Errorf("iterate rows of run %s: %w", runID, err)
	}
	return b, nil
}

// ListRuns returns every stored run, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, ok, failed FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.OK, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

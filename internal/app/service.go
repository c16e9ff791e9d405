// Package service wires the season table, game logs, metric pipeline and
// predictor into the operations the commands expose.
package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/miya/internal/adapters/mq/queue"
	workerpool "github.com/okian/miya/internal/adapters/mq/worker"
	"github.com/okian/miya/internal/adapters/report"
	"github.com/okian/miya/internal/adapters/repository"
	"github.com/okian/miya/internal/domain/composite"
	"github.com/okian/miya/internal/domain/dedupe"
	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/predict"
	"github.com/okian/miya/internal/domain/teamname"
	"github.com/okian/miya/internal/domain/types"
	"github.com/okian/miya/pkg/logger"
	"github.com/okian/miya/pkg/metrics"
)

// ErrNotLoaded is returned when predictions are requested before metrics.
var ErrNotLoaded = errors.New("metrics not loaded")

// GameLogProvider serves game logs and lists the teams that have one.
type GameLogProvider interface {
	composite.GameLogSource
	Teams() ([]string, error)
}

// LoadSummary reports the outcome of LoadMetrics.
type LoadSummary struct {
	Requested  int
	Duplicates int
	// Backpressure counts enqueues that found the queue full and waited.
	Backpressure int
	Computed     int
	Failures     map[string]error
}

// Service runs predictions over one season.
type Service struct {
	mu sync.RWMutex

	season      model.SeasonLookup
	games       GameLogProvider
	store       repository.MetricsStore
	predictor   *predict.Predictor
	predictions repository.PredictionStore

	workerCount int
	queueSize   int
	dedupeSize  int
	qualifying  []string

	loaded bool
	logger logger.Logger
}

// New constructs a Service over a season table and a game log provider.
func New(season model.SeasonLookup, games GameLogProvider, opts ...Option) *Service {
	s := &Service{
		season:      season,
		games:       games,
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.predictor = predict.New(s.season, s.store, predict.WithLogger(s.logger.Named("predict")))
	return s
}

// LoadMetrics computes composite metrics for teams on the worker pool and
// seals the store. A nil teams slice means every team with a game log.
// Per-team failures are reported in the summary and never abort the load.
func (s *Service) LoadMetrics(ctx context.Context, teams []string) (LoadSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return LoadSummary{}, fmt.Errorf("%w: store is sealed", repository.ErrSealed)
	}

	logTeams, err := s.games.Teams()
	if err != nil {
		return LoadSummary{}, fmt.Errorf("list game log teams: %w", err)
	}
	if teams == nil {
		teams = s.canonical(logTeams)
	}
	qualifying := s.qualifying
	if qualifying == nil {
		qualifying = append(slices.Clone(logTeams), s.canonical(logTeams)...)
	}

	calc := composite.NewCalculator(s.games,
		composite.WithQualifyingOpponents(composite.NewOpponentSet(qualifying...)))
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	pool := workerpool.NewPool(s.workerCount, q, calc, s.store,
		workerpool.WithPoolLogger(s.logger.Named("worker")))
	claims := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(max(s.dedupeSize, len(teams))))

	s.logger.Info(ctx, "loading team metrics",
		logger.Int("teams", len(teams)),
		logger.Int("qualifying", len(qualifying)),
		logger.Int("workers", s.workerCount),
	)
	start := time.Now()
	pool.Start(ctx)

	summary := LoadSummary{Requested: len(teams)}
	var enqueueErr error
	for _, team := range teams {
		if claims.SeenAndRecord(ctx, team) {
			summary.Duplicates++
			s.logger.Debug(ctx, "duplicate team skipped", logger.Team(team))
			continue
		}
		job := queue.Job{Team: team}
		err := q.Enqueue(ctx, job)
		if errors.Is(err, queue.ErrFull) {
			summary.Backpressure++
			err = q.EnqueueWait(ctx, job)
		}
		if err != nil {
			claims.Unrecord(ctx, team)
			enqueueErr = err
			break
		}
	}

	if err := pool.Drain(ctx); err != nil {
		_ = pool.Shutdown(context.Background())
		return summary, err
	}
	if enqueueErr != nil {
		return summary, enqueueErr
	}

	s.store.Seal()
	s.loaded = true
	summary.Computed, _ = pool.Counts()
	summary.Failures = pool.Failures()

	s.logger.Info(ctx, "team metrics loaded",
		logger.Int("computed", summary.Computed),
		logger.Int("failed", len(summary.Failures)),
		logger.Int("duplicates", summary.Duplicates),
		logger.Int("elapsed_ms", int(time.Since(start).Milliseconds())),
	)
	return summary, nil
}

// canonical maps game log team names to their season spelling so stored
// metrics are found under the name predictions look up. Names without a
// season match are kept as they are.
func (s *Service) canonical(teams []string) []string {
	lister, ok := s.season.(interface{ Teams() []string })
	if !ok {
		return teams
	}
	known := lister.Teams()
	out := make([]string, len(teams))
	for i, t := range teams {
		if match, found := teamname.Match(t, known); found {
			out[i] = match
			continue
		}
		out[i] = t
	}
	return out
}

// Predict runs one matchup.
func (s *Service) Predict(ctx context.Context, team1, team2 string) (model.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return model.Prediction{}, ErrNotLoaded
	}
	return s.predictor.Predict(ctx, team1, team2)
}

// RunBatch predicts every matchup in order. A failing matchup becomes an
// error row and the batch continues. The returned error only reports a
// failure to persist the batch; the batch itself is always complete.
func (s *Service) RunBatch(ctx context.Context, matchups []model.Matchup) (types.Batch, error) {
	batch := types.Batch{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Rows:      make([]types.ResultRow, 0, len(matchups)),
	}
	log := s.logger.Named("batch")

	for i, m := range matchups {
		p, err := s.predictMatchup(ctx, m)
		if err != nil {
			log.Warn(ctx, "matchup failed", logger.Matchup(m.Team1, m.Team2), logger.Error(err))
			batch.Append(types.NewErrorRow(i, m, err))
			continue
		}
		batch.Append(types.NewResultRow(i, m, p))
	}
	metrics.UpdateBatchRows(len(batch.Rows))
	log.Info(ctx, "batch finished",
		logger.String("run_id", batch.RunID),
		logger.Int("ok", batch.OK),
		logger.Int("failed", batch.Failed),
	)

	if s.predictions != nil {
		if err := s.predictions.SaveBatch(ctx, batch); err != nil {
			metrics.RecordErrorByComponent("batch", "persist")
			return batch, fmt.Errorf("save batch %s: %w", batch.RunID, err)
		}
	}
	return batch, nil
}

func (s *Service) predictMatchup(ctx context.Context, m model.Matchup) (model.Prediction, error) {
	if err := m.Validate(); err != nil {
		return model.Prediction{}, err
	}
	return s.Predict(ctx, m.Team1, m.Team2)
}

// Interactive reads team pairs from in until "quit" or end of input and
// writes a banner for each. Unknown teams are reported and the loop goes on.
func (s *Service) Interactive(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		_, _ = fmt.Fprint(out, label)
		if !scanner.Scan() {
			return "", false
		}
		text := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(text, "quit") {
			return "", false
		}
		return text, true
	}

	_, _ = fmt.Fprintln(out, "\nEnter team names to predict a matchup (or 'quit' to exit):")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		team1, ok := prompt("Team 1: ")
		if !ok {
			break
		}
		team2, ok := prompt("Team 2: ")
		if !ok {
			break
		}
		p, err := s.predictMatchup(ctx, model.Matchup{Team1: team1, Team2: team2})
		if err != nil {
			if werr := report.WriteError(out, err); werr != nil {
				return werr
			}
			continue
		}
		if err := report.WriteMatchup(out, p); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// MetricsFor returns a team's metrics, absent when they were never computed.
func (s *Service) MetricsFor(team string) model.OptionalMetrics {
	return s.store.Metrics(team)
}

// GetStats returns service statistics for logging at exit.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"loaded":       s.loaded,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"teamsTracked": s.store.Count(ctx),
	}
}

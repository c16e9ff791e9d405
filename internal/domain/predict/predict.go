// Package predict turns two season summary rows and their composite metrics
// into a win probability, a predicted score and a winner.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/pkg/logger"
	"github.com/okian/miya/pkg/metrics"
)

// Model weights. Every coefficient is a fixed constant.
const (
	weightWinPct  = 0.05
	weightOffense = 0.1
	weightDefense = 0.1
	weightBarthag = 0.25
	weightWorth   = 0.05
	weightPrime   = 0.15
	weightRoad    = 0.05
	weightNerve   = 0.05

	minProbability = 0.01
	maxProbability = 0.99

	closeLow  = 0.40
	closeHigh = 0.60
	// closeHalfWidth is the distance from 0.5 to either edge of the band.
	closeHalfWidth = 0.1

	advantageCap      = 0.5
	closeMetricWeight = 0.08
	nerveBase         = 0.03
	nerveCloseness    = 0.04

	// possessionFactor is 70 possessions at the per-100 scale.
	possessionFactor = 0.7
)

// Side is the per-team input of the probability model.
type Side struct {
	WinPct  float64
	AdjOE   float64
	AdjDE   float64
	Barthag float64
	Metrics model.CompositeMetrics
}

// BaseProbability is team a's unclamped win probability against team b.
func BaseProbability(a, b Side) float64 {
	// Offense and defense are grouped so identical teams cancel exactly.
	efficiency := weightOffense*((a.AdjOE-b.AdjDE)/100) - weightDefense*((b.AdjOE-a.AdjDE)/100)
	return 0.5 +
		weightWinPct*(a.WinPct-b.WinPct) +
		efficiency +
		weightBarthag*(a.Barthag-b.Barthag) +
		weightWorth*(a.Metrics.Worth-b.Metrics.Worth) +
		weightPrime*(a.Metrics.Prime-b.Metrics.Prime) +
		weightRoad*(a.Metrics.Road-b.Metrics.Road) +
		weightNerve*(a.Metrics.Nerve-b.Metrics.Nerve)
}

// Clamp bounds p to [0.01, 0.99].
func Clamp(p float64) float64 {
	return math.Max(minProbability, math.Min(maxProbability, p))
}

// IsCloseGame reports whether p lies strictly inside (0.40, 0.60).
func IsCloseGame(p float64) bool {
	return p > closeLow && p < closeHigh
}

// CloseGameAdjust applies the secondary WORTH, PRIME and NERVE pass to a
// clamped probability p. Outside the close-game band p is returned unchanged
// and the flag is false. The result is not clamped again.
func CloseGameAdjust(p float64, adv model.CompositeMetrics) (float64, bool) {
	if !IsCloseGame(p) {
		return p, false
	}
	adjusted := p
	adjusted += directed(adv.Worth, capped(adv.Worth)*closeMetricWeight)
	adjusted += directed(adv.Prime, capped(adv.Prime)*closeMetricWeight)

	closeness := 1 - math.Abs(p-0.5)/closeHalfWidth
	nerve := (nerveBase + nerveCloseness*closeness) * (0.5 + capped(adv.Nerve))
	adjusted += directed(adv.Nerve, nerve)
	return adjusted, true
}

func capped(adv float64) float64 {
	return math.Min(math.Abs(adv), advantageCap)
}

// directed gives amount the sign of adv, or zero when adv is zero.
func directed(adv, amount float64) float64 {
	switch {
	case adv > 0:
		return amount
	case adv < 0:
		return -amount
	default:
		return 0
	}
}

// PredictScores estimates both scores from efficiency ratings. Equal scores
// are split in favour of the side p favours (team a when p > 0.5).
func PredictScores(a, b Side, p float64) (int, int) {
	scoreA := int(math.RoundToEven(a.AdjOE * possessionFactor * (100 / b.AdjDE)))
	scoreB := int(math.RoundToEven(b.AdjOE * possessionFactor * (100 / a.AdjDE)))
	if scoreA == scoreB {
		if p > 0.5 {
			scoreA++
		} else {
			scoreB++
		}
	}
	return scoreA, scoreB
}

// Predict resolves both teams and runs the model. Unknown teams return a
// *model.TeamNotFoundError. Absent metrics count as zero but stay absent in
// the returned snapshots.
func Predict(team1, team2 string, season model.SeasonLookup, lookup model.MetricsLookup) (model.Prediction, error) {
	row1, err := season.Lookup(team1)
	if err != nil {
		return model.Prediction{}, err
	}
	row2, err := season.Lookup(team2)
	if err != nil {
		return model.Prediction{}, err
	}
	side1, snap1, err := resolve(row1, lookup)
	if err != nil {
		return model.Prediction{}, err
	}
	side2, snap2, err := resolve(row2, lookup)
	if err != nil {
		return model.Prediction{}, err
	}

	base := Clamp(BaseProbability(side1, side2))
	p, closeGame := CloseGameAdjust(base, side1.Metrics.Advantage(side2.Metrics))
	snap1.Score, snap2.Score = PredictScores(side1, side2, p)

	out := model.Prediction{
		Team1:            snap1,
		Team2:            snap2,
		BaseProbability:  base,
		Team1Probability: p,
		CloseGame:        closeGame,
	}
	if p > 0.5 {
		out.Winner, out.WinnerProbability = snap1.Team, p
	} else {
		out.Winner, out.WinnerProbability = snap2.Team, 1-p
	}
	return out, nil
}

func resolve(row model.SeasonSummary, lookup model.MetricsLookup) (Side, model.TeamSnapshot, error) {
	if err := row.Validate(); err != nil {
		return Side{}, model.TeamSnapshot{}, err
	}
	pct, err := row.WinPct()
	if err != nil {
		return Side{}, model.TeamSnapshot{}, err
	}
	opt := lookup.Metrics(row.Team)
	side := Side{
		WinPct:  pct,
		AdjOE:   row.AdjOE,
		AdjDE:   row.AdjDE,
		Barthag: row.Barthag,
		Metrics: opt.OrZero(),
	}
	snap := model.TeamSnapshot{
		Team:    row.Team,
		Rank:    row.Rank,
		Record:  row.Record(),
		WinPct:  pct,
		AdjOE:   row.AdjOE,
		AdjDE:   row.AdjDE,
		Barthag: row.Barthag,
		Metrics: opt,
	}
	return side, snap, nil
}

// Predictor binds the model to its data sources and reports every outcome
// to the log and the metrics registry.
type Predictor struct {
	season  model.SeasonLookup
	metrics model.MetricsLookup
	logger  logger.Logger
}

// Option applies a configuration option to the Predictor.
type Option func(*Predictor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Predictor.
func New(season model.SeasonLookup, lookup model.MetricsLookup, opts ...Option) *Predictor {
	p := &Predictor{
		season:  season,
		metrics: lookup,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict runs the model for one matchup.
func (p *Predictor) Predict(ctx context.Context, team1, team2 string) (model.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return model.Prediction{}, fmt.Errorf("predict %s vs %s: %w", team1, team2, err)
	}
	out, err := Predict(team1, team2, p.season, p.metrics)
	if err != nil {
		metrics.RecordPredictionError(reason(err))
		return model.Prediction{}, err
	}
	metrics.RecordPrediction(out.WinnerProbability, out.CloseGame)
	p.logger.Debug(ctx, "matchup predicted",
		logger.Matchup(team1, team2),
		logger.String("winner", out.Winner),
		logger.Float64("probability", out.WinnerProbability),
		logger.Bool("close_game", out.CloseGame),
	)
	return out, nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrTeamNotFound):
		return "team_not_found"
	case errors.Is(err, model.ErrNoGamesPlayed):
		return "no_games_played"
	case errors.Is(err, model.ErrInvalidSeasonRow):
		return "invalid_season_row"
	default:
		return "other"
	}
}

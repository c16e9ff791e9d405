// Package composite computes the four derived statistics of a team from its
// game log: WORTH, PRIME, ROAD and NERVE.
package composite

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/teamname"
)

const (
	// primeGames is both the number of top-ranked games PRIME looks at and
	// its fixed denominator.
	primeGames = 5
	// nerveMargin is the largest point margin that still counts as close.
	nerveMargin = 4
)

// ErrMetricsFailed marks a per-team failure. The team's metrics stay absent.
var ErrMetricsFailed = errors.New("composite metrics failed")

// GameLogSource supplies a team's games, or model.ErrGameLogNotFound.
type GameLogSource interface {
	GameLog(ctx context.Context, team string) (model.GameLog, error)
}

// Computer computes the metrics of one team.
type Computer interface {
	Compute(ctx context.Context, team string) (model.CompositeMetrics, error)
}

// OpponentSet is a set of team identifiers compared through teamname.Key.
type OpponentSet struct {
	keys map[string]struct{}
}

// NewOpponentSet builds a set from team names.
func NewOpponentSet(teams ...string) OpponentSet {
	s := OpponentSet{keys: make(map[string]struct{}, len(teams))}
	for _, t := range teams {
		s.keys[teamname.Key(t)] = struct{}{}
	}
	return s
}

// Contains reports whether team is in the set.
func (s OpponentSet) Contains(team string) bool {
	_, ok := s.keys[teamname.Key(team)]
	return ok
}

// Len returns the number of teams in the set.
func (s OpponentSet) Len() int { return len(s.keys) }

// Worth is the win rate against qualifying opponents, 0 when there are none.
func Worth(games []model.Game, qualifying OpponentSet) float64 {
	var wins, played int
	for _, g := range games {
		if !qualifying.Contains(g.Opponent) {
			continue
		}
		played++
		if g.Won() {
			wins++
		}
	}
	return rate(wins, played)
}

// Prime counts wins among the five best-ranked opponents and divides by five
// no matter how many ranked games exist. Equal ranks keep game order.
func Prime(games []model.Game) float64 {
	ranked := make([]model.Game, 0, len(games))
	for _, g := range games {
		if g.Ranked() {
			ranked = append(ranked, g)
		}
	}
	slices.SortStableFunc(ranked, func(a, b model.Game) int {
		return a.OpponentRank - b.OpponentRank
	})
	var wins int
	for _, g := range ranked[:min(primeGames, len(ranked))] {
		if g.Won() {
			wins++
		}
	}
	return float64(wins) / primeGames
}

// Road is the away-or-neutral win rate minus the home win rate. An empty
// venue group contributes 0.
func Road(games []model.Game) float64 {
	var roadWins, roadGames, homeWins, homeGames int
	for _, g := range games {
		won := 0
		if g.Won() {
			won = 1
		}
		if g.Venue == model.VenueHome {
			homeGames++
			homeWins += won
		} else {
			roadGames++
			roadWins += won
		}
	}
	return rate(roadWins, roadGames) - rate(homeWins, homeGames)
}

// Nerve is the win rate in games decided by four points or fewer.
func Nerve(games []model.Game) float64 {
	var wins, played int
	for _, g := range games {
		if g.Margin() > nerveMargin {
			continue
		}
		played++
		if g.Won() {
			wins++
		}
	}
	return rate(wins, played)
}

// Calculate computes all four metrics from a game list.
func Calculate(games []model.Game, qualifying OpponentSet) model.CompositeMetrics {
	return model.CompositeMetrics{
		Worth: Worth(games, qualifying),
		Prime: Prime(games),
		Road:  Road(games),
		Nerve: Nerve(games),
	}
}

func rate(wins, played int) float64 {
	if played == 0 {
		return 0
	}
	return float64(wins) / float64(played)
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithQualifyingOpponents sets the opponents WORTH counts. Without it the set
// is empty and WORTH is always 0.
func WithQualifyingOpponents(set OpponentSet) Option {
	return func(c *Calculator) {
		c.qualifying = set
	}
}

// Calculator implements Computer on top of a GameLogSource.
type Calculator struct {
	source     GameLogSource
	qualifying OpponentSet
}

// NewCalculator creates a calculator reading game logs from source.
func NewCalculator(source GameLogSource, opts ...Option) *Calculator {
	c := &Calculator{
		source:     source,
		qualifying: NewOpponentSet(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute loads the team's game log and derives its metrics. Any failure is
// wrapped in ErrMetricsFailed together with its cause.
func (c *Calculator) Compute(ctx context.Context, team string) (model.CompositeMetrics, error) {
	if err := ctx.Err(); err != nil {
		return model.CompositeMetrics{}, fmt.Errorf("%w: %s: %w", ErrMetricsFailed, team, err)
	}
	log, err := c.source.GameLog(ctx, team)
	if err != nil {
		return model.CompositeMetrics{}, fmt.Errorf("%w: %s: %w", ErrMetricsFailed, team, err)
	}
	return Calculate(log.Games, c.qualifying), nil
}

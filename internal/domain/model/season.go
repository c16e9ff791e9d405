package model

import (
	"fmt"
	"math"
	"strings"
)

// SeasonSummary is one team's row of the season results table.
type SeasonSummary struct {
	Team       string
	Rank       int
	Conference string
	Wins       int
	Losses     int
	// AdjOE and AdjDE are points scored/allowed per 100 possessions. Lower AdjDE is better.
	AdjOE float64
	AdjDE float64
	// Barthag is the power rating in [0,1].
	Barthag float64
}

// Validate rejects rows the predictor cannot use.
func (s SeasonSummary) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidSeasonRow, s.Team, fmt.Sprintf(format, args...))
	}
	switch {
	case strings.TrimSpace(s.Team) == "":
		return fmt.Errorf("%w: empty team", ErrInvalidSeasonRow)
	case s.Rank <= 0:
		return bad("rank %d is not positive", s.Rank)
	case s.Wins < 0 || s.Losses < 0:
		return bad("negative record %d-%d", s.Wins, s.Losses)
	case s.Wins > math.MaxInt-s.Losses:
		return bad("record %d-%d overflows games played", s.Wins, s.Losses)
	case !finitePositive(s.AdjOE):
		return bad("adjoe %v is not positive", s.AdjOE)
	case !finitePositive(s.AdjDE):
		return bad("adjde %v is not positive", s.AdjDE)
	case math.IsNaN(s.Barthag) || s.Barthag < 0 || s.Barthag > 1:
		return bad("barthag %v outside [0,1]", s.Barthag)
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// WinPct returns wins/(wins+losses). A team with no games is a data-quality
// error, never a NaN.
func (s SeasonSummary) WinPct() (float64, error) {
	played := s.Wins + s.Losses
	if played <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoGamesPlayed, s.Team)
	}
	return float64(s.Wins) / float64(played), nil
}

// Record renders the "W-L" string.
func (s SeasonSummary) Record() string {
	return fmt.Sprintf("%d-%d", s.Wins, s.Losses)
}

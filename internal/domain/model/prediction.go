package model

import (
	"fmt"
	"strings"
)

// Matchup is one requested game. Seeds are zero when not supplied.
type Matchup struct {
	Team1 string `json:"team1" yaml:"team1"`
	Team2 string `json:"team2" yaml:"team2"`
	Seed1 int    `json:"seed1,omitempty" yaml:"seed1,omitempty"`
	Seed2 int    `json:"seed2,omitempty" yaml:"seed2,omitempty"`
}

// Validate requires both team names.
func (m Matchup) Validate() error {
	if strings.TrimSpace(m.Team1) == "" || strings.TrimSpace(m.Team2) == "" {
		return fmt.Errorf("%w: both teams are required (%q vs %q)", ErrInvalidMatchup, m.Team1, m.Team2)
	}
	return nil
}

func (m Matchup) String() string { return m.Team1 + " vs " + m.Team2 }

// TeamSnapshot is a team's season stats as used for one prediction.
type TeamSnapshot struct {
	Team    string
	Rank    int
	Record  string
	WinPct  float64
	AdjOE   float64
	AdjDE   float64
	Barthag float64
	Score   int
	Metrics OptionalMetrics
}

// Prediction is the outcome of one matchup.
type Prediction struct {
	Team1 TeamSnapshot
	Team2 TeamSnapshot

	// BaseProbability is team1's clamped probability before the close-game pass.
	BaseProbability float64
	// Team1Probability is team1's final probability.
	Team1Probability float64
	CloseGame        bool

	Winner            string
	WinnerProbability float64
}

// WinnerSnapshot and LoserSnapshot order the two sides by outcome.
func (p Prediction) WinnerSnapshot() TeamSnapshot {
	if p.Team1Probability > 0.5 {
		return p.Team1
	}
	return p.Team2
}

func (p Prediction) LoserSnapshot() TeamSnapshot {
	if p.Team1Probability > 0.5 {
		return p.Team2
	}
	return p.Team1
}

// ScoreLine lists the winner's score first, e.g. "78-71".
func (p Prediction) ScoreLine() string {
	return fmt.Sprintf("%d-%d", p.WinnerSnapshot().Score, p.LoserSnapshot().Score)
}

// Advantages returns team1 - team2 metrics when both sides have them.
func (p Prediction) Advantages() (CompositeMetrics, bool) {
	m1, ok1 := p.Team1.Metrics.Get()
	m2, ok2 := p.Team2.Metrics.Get()
	if !ok1 || !ok2 {
		return CompositeMetrics{}, false
	}
	return m1.Advantage(m2), true
}

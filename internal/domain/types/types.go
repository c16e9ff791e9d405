// Package types contains the result table types shared by the batch runner,
// the reports and the persistence layer.
package types

import (
	"time"

	"github.com/okian/miya/internal/domain/model"
)

// Row statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ResultRow is one line of the batch results table. A failed matchup keeps
// its row with Status set to StatusError.
type ResultRow struct {
	Index  int    `json:"index"`
	Team1  string `json:"team1"`
	Team2  string `json:"team2"`
	Seed1  int    `json:"seed1,omitempty"`
	Seed2  int    `json:"seed2,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`

	Team1Rank   int    `json:"team1_rank,omitempty"`
	Team2Rank   int    `json:"team2_rank,omitempty"`
	Team1Record string `json:"team1_record,omitempty"`
	Team2Record string `json:"team2_record,omitempty"`

	Team1WinPct  float64 `json:"team1_win_pct,omitempty"`
	Team2WinPct  float64 `json:"team2_win_pct,omitempty"`
	Team1AdjOE   float64 `json:"team1_adjoe,omitempty"`
	Team2AdjOE   float64 `json:"team2_adjoe,omitempty"`
	Team1AdjDE   float64 `json:"team1_adjde,omitempty"`
	Team2AdjDE   float64 `json:"team2_adjde,omitempty"`
	Team1Barthag float64 `json:"team1_barthag,omitempty"`
	Team2Barthag float64 `json:"team2_barthag,omitempty"`

	Winner            string  `json:"winner,omitempty"`
	WinnerProbability float64 `json:"winner_probability,omitempty"`
	Team1Probability  float64 `json:"team1_probability,omitempty"`
	Team1Score        int     `json:"team1_score,omitempty"`
	Team2Score        int     `json:"team2_score,omitempty"`
	Score             string  `json:"score,omitempty"`
	CloseGame         bool    `json:"close_game,omitempty"`

	// Advantages are team1 minus team2 and only set when both teams have metrics.
	WorthAdv *float64 `json:"worth_adv,omitempty"`
	PrimeAdv *float64 `json:"prime_adv,omitempty"`
	RoadAdv  *float64 `json:"road_adv,omitempty"`
	NerveAdv *float64 `json:"nerve_adv,omitempty"`

	// Per-team metrics are nil for a team whose metrics are absent.
	Team1Metrics *model.CompositeMetrics `json:"team1_metrics,omitempty"`
	Team2Metrics *model.CompositeMetrics `json:"team2_metrics,omitempty"`
}

// OK reports whether the row holds a prediction.
func (r ResultRow) OK() bool { return r.Status == StatusOK }

// NewResultRow builds a successful row.
func NewResultRow(index int, m model.Matchup, p model.Prediction) ResultRow {
	row := ResultRow{
		Index:             index,
		Team1:             m.Team1,
		Team2:             m.Team2,
		Seed1:             m.Seed1,
		Seed2:             m.Seed2,
		Status:            StatusOK,
		Team1Rank:         p.Team1.Rank,
		Team2Rank:         p.Team2.Rank,
		Team1Record:       p.Team1.Record,
		Team2Record:       p.Team2.Record,
		Team1WinPct:       p.Team1.WinPct,
		Team2WinPct:       p.Team2.WinPct,
		Team1AdjOE:        p.Team1.AdjOE,
		Team2AdjOE:        p.Team2.AdjOE,
		Team1AdjDE:        p.Team1.AdjDE,
		Team2AdjDE:        p.Team2.AdjDE,
		Team1Barthag:      p.Team1.Barthag,
		Team2Barthag:      p.Team2.Barthag,
		Team1Metrics:      metricsOf(p.Team1.Metrics),
		Team2Metrics:      metricsOf(p.Team2.Metrics),
		Winner:            p.Winner,
		WinnerProbability: p.WinnerProbability,
		Team1Probability:  p.Team1Probability,
		Team1Score:        p.Team1.Score,
		Team2Score:        p.Team2.Score,
		Score:             p.ScoreLine(),
		CloseGame:         p.CloseGame,
	}
	if adv, ok := p.Advantages(); ok {
		row.WorthAdv = &adv.Worth
		row.PrimeAdv = &adv.Prime
		row.RoadAdv = &adv.Road
		row.NerveAdv = &adv.Nerve
	}
	return row
}

func metricsOf(o model.OptionalMetrics) *model.CompositeMetrics {
	m, ok := o.Get()
	if !ok {
		return nil
	}
	return &m
}

// NewErrorRow builds the row for a matchup that could not be predicted.
func NewErrorRow(index int, m model.Matchup, err error) ResultRow {
	return ResultRow{
		Index:  index,
		Team1:  m.Team1,
		Team2:  m.Team2,
		Seed1:  m.Seed1,
		Seed2:  m.Seed2,
		Status: StatusError,
		Error:  err.Error(),
	}
}

// Batch is the outcome of one batch run.
type Batch struct {
	RunID     string      `json:"run_id"`
	StartedAt time.Time   `json:"started_at"`
	Rows      []ResultRow `json:"rows"`
	OK        int         `json:"ok"`
	Failed    int         `json:"failed"`
}

// Append adds a row and updates the summary counts.
func (b *Batch) Append(row ResultRow) {
	b.Rows = append(b.Rows, row)
	if row.OK() {
		b.OK++
	} else {
		b.Failed++
	}
}

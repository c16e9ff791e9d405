package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/types"
)

var csvHeader = []string{
	"index", "team1", "team2", "seed1", "seed2", "status", "error",
	"team1_rank", "team2_rank", "team1_record", "team2_record",
	"winner", "winner_probability", "team1_probability",
	"team1_score", "team2_score", "score", "close_game",
	"worth_adv", "prime_adv", "road_adv", "nerve_adv",
	"team1_win_pct", "team2_win_pct", "team1_adjoe", "team2_adjoe",
	"team1_adjde", "team2_adjde", "team1_barthag", "team2_barthag",
	"team1_worth", "team1_prime", "team1_road", "team1_nerve",
	"team2_worth", "team2_prime", "team2_road", "team2_nerve",
}

// Write renders b in format (text, csv or json).
func Write(w io.Writer, format string, b types.Batch) error {
	switch format {
	case "text", "":
		return WriteText(w, b)
	case "csv":
		return WriteCSV(w, b)
	case "json":
		return WriteJSON(w, b)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteCSV writes the results table, one row per matchup in input order.
// Advantage cells are blank when either team lacked metrics; a team's own
// metric cells are blank when that team lacked them.
func WriteCSV(w io.Writer, b types.Batch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range b.Rows {
		if err := cw.Write(csvRecord(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(r types.ResultRow) []string {
	rec := []string{
		strconv.Itoa(r.Index), r.Team1, r.Team2, seed(r.Seed1), seed(r.Seed2), r.Status, r.Error,
	}
	if !r.OK() {
		return append(rec, make([]string, len(csvHeader)-len(rec))...)
	}
	return append(rec,
		strconv.Itoa(r.Team1Rank), strconv.Itoa(r.Team2Rank), r.Team1Record, r.Team2Record,
		r.Winner, ffmt(r.WinnerProbability), ffmt(r.Team1Probability),
		strconv.Itoa(r.Team1Score), strconv.Itoa(r.Team2Score), r.Score, strconv.FormatBool(r.CloseGame),
		optional(r.WorthAdv), optional(r.PrimeAdv), optional(r.RoadAdv), optional(r.NerveAdv),
		ffmt(r.Team1WinPct), ffmt(r.Team2WinPct), ffmt(r.Team1AdjOE), ffmt(r.Team2AdjOE),
		ffmt(r.Team1AdjDE), ffmt(r.Team2AdjDE), ffmt(r.Team1Barthag), ffmt(r.Team2Barthag),
	)
	rec = append(rec, metricCells(r.Team1Metrics)...)
	return append(rec, metricCells(r.Team2Metrics)...)
}

// metricCells renders one team's metrics, blank when absent.
func metricCells(m *model.CompositeMetrics) []string {
	if m == nil {
		return []string{"", "", "", ""}
	}
	return []string{ffmt(m.Worth), ffmt(m.Prime), ffmt(m.Road), ffmt(m.Nerve)}
}

func seed(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func ffmt(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return ffmt(*v)
}

// WriteJSON writes the batch as an indented JSON document.
func WriteJSON(w io.Writer, b types.Batch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	return nil
}

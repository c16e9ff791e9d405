// Package report renders predictions and batch results as text banners,
// CSV, JSON and an HTML chart.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/types"
)

const rule = "=================================================="

// WriteMatchup prints the banner for one prediction.
func WriteMatchup(w io.Writer, p model.Prediction) error {
	t1, t2 := p.Team1, p.Team2
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "MATCHUP: #%d %s (%s) vs #%d %s (%s)\n", t1.Rank, t1.Team, t1.Record, t2.Rank, t2.Team, t2.Record)
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "\nTeam Stats:\n")
	fmt.Fprintf(&b, "%-20s %-10s %-10s %-10s %-10s\n", "", "Win %", "Adj. OE", "Adj. DE", "Power")
	for _, t := range []model.TeamSnapshot{t1, t2} {
		fmt.Fprintf(&b, "%-20s %-10s %-10.1f %-10.1f %-10.3f\n", t.Team, fmt.Sprintf("%.1f%%", t.WinPct*100), t.AdjOE, t.AdjDE, t.Barthag)
	}
	fmt.Fprintf(&b, "\n%-20s %-10s %-10s %-10s %-10s\n", "", "WORTH", "PRIME", "ROAD", "NERVE")
	for _, t := range []model.TeamSnapshot{t1, t2} {
		m, ok := t.Metrics.Get()
		if !ok {
			fmt.Fprintf(&b, "%-20s %-10s %-10s %-10s %-10s\n", t.Team, "n/a", "n/a", "n/a", "n/a")
			continue
		}
		fmt.Fprintf(&b, "%-20s %-10.3f %-10.3f %-10.3f %-10.3f\n", t.Team, m.Worth, m.Prime, m.Road, m.Nerve)
	}
	fmt.Fprintf(&b, "\nPREDICTION:\n")
	fmt.Fprintf(&b, "Winner: %s (%.1f%% probability)\n", p.Winner, p.WinnerProbability*100)
	fmt.Fprintf(&b, "Predicted Score: %s\n", p.ScoreLine())
	if p.CloseGame {
		fmt.Fprintf(&b, "Close game: adjusted from %.1f%%\n", p.BaseProbability*100)
	}
	fmt.Fprintf(&b, "%s\n\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteError prints a failed matchup the way the banner reports errors.
func WriteError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

// WriteText prints one line per batch row followed by a summary.
func WriteText(w io.Writer, b types.Batch) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s\n", b.RunID)
	for _, r := range b.Rows {
		if !r.OK() {
			fmt.Fprintf(&sb, "%3d. %s vs %s: ERROR %s\n", r.Index+1, r.Team1, r.Team2, r.Error)
			continue
		}
		tag := ""
		if r.CloseGame {
			tag = " (close)"
		}
		fmt.Fprintf(&sb, "%3d. %s vs %s: %s %.1f%% %s%s\n",
			r.Index+1, r.Team1, r.Team2, r.Winner, r.WinnerProbability*100, r.Score, tag)
	}
	fmt.Fprintf(&sb, "%d predicted, %d failed\n", b.OK, b.Failed)
	_, err := io.WriteString(w, sb.String())
	return err
}

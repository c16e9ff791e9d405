package repository

import (
	"fmt"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/teamname"
	"github.com/okian/miya/pkg/metrics"
)

// SeasonTable is the read-only season summary, one row per team, looked up
// case-insensitively.
type SeasonTable struct {
	rows  []model.SeasonSummary
	index map[string]int
}

// NewSeasonTable validates every row and rejects duplicate teams.
func NewSeasonTable(rows []model.SeasonSummary) (*SeasonTable, error) {
	t := &SeasonTable{
		rows:  make([]model.SeasonSummary, 0, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		key := teamname.Key(r.Team)
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("%w: %s", model.ErrDuplicateSeasonID, r.Team)
		}
		t.index[key] = len(t.rows)
		t.rows = append(t.rows, r)
	}
	metrics.UpdateSeasonRows(len(t.rows))
	return t, nil
}

// Lookup implements model.SeasonLookup.
func (t *SeasonTable) Lookup(team string) (model.SeasonSummary, error) {
	i, ok := t.index[teamname.Key(team)]
	if !ok {
		return model.SeasonSummary{}, &model.TeamNotFoundError{Team: team}
	}
	return t.rows[i], nil
}

// Teams returns team names in table order.
func (t *SeasonTable) Teams() []string {
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Team
	}
	return out
}

// Len returns the number of teams.
func (t *SeasonTable) Len() int { return len(t.rows) }

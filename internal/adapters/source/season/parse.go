// Package season loads the per-team season summary table, either from a
// local CSV or from the ratings site.
package season

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/miya/internal/domain/model"
)

var recordPattern = regexp.MustCompile(`(\d+)-(\d+)`)

// required lists the columns a season CSV must carry. "conf" is read when
// present; other columns are ignored.
var required = []string{"rank", "team", "record", "adjoe", "adjde", "barthag"}

// ParseCSV reads season summary rows. Quotes are treated loosely, spaces
// after separators are dropped, and rows may have varying widths.
func ParseCSV(r io.Reader) ([]model.SeasonSummary, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrBadRow, err)
	}
	cols := make(map[string]int, len(header))
	// A repeated name keeps its first column: the ratings file carries a
	// second "rank" for the barthag ranking.
	for i, h := range header {
		key := strings.ToLower(strings.Trim(strings.TrimSpace(h), `"`))
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var rows []model.SeasonSummary
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadRow, line, err)
		}
		if blank(rec) {
			continue
		}
		row, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadRow, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRow(rec []string, cols map[string]int) (model.SeasonSummary, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.Trim(strings.TrimSpace(rec[i]), `"`)
	}
	number := func(name string) (float64, error) {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}

	var s model.SeasonSummary
	s.Team = field("team")
	s.Conference = field("conf")

	rank, err := strconv.Atoi(field("rank"))
	if err != nil {
		return s, fmt.Errorf("rank: %w", err)
	}
	s.Rank = rank

	m := recordPattern.FindStringSubmatch(field("record"))
	if m == nil {
		return s, fmt.Errorf("record %q is not W-L", field("record"))
	}
	if s.Wins, err = strconv.Atoi(m[1]); err != nil {
		return s, fmt.Errorf("wins: %w", err)
	}
	if s.Losses, err = strconv.Atoi(m[2]); err != nil {
		return s, fmt.Errorf("losses: %w", err)
	}

	if s.AdjOE, err = number("adjoe"); err != nil {
		return s, err
	}
	if s.AdjDE, err = number("adjde"); err != nil {
		return s, err
	}
	if s.Barthag, err = number("barthag"); err != nil {
		return s, err
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// LoadFile parses the season CSV at path.
func LoadFile(path string) ([]model.SeasonSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open season file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseCSV(f)
}

// Package gamelog reads per-team game logs from a directory holding one CSV
// or HTML file per team.
package gamelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/miya/internal/domain/model"
)

var columns = []string{"opponent", "opp_rank", "venue", "result", "t_score_t", "t_score_o"}

// ParseCSV reads the games of one team from a CSV with a header row.
func ParseCSV(r io.Reader) ([]model.Game, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrBadRow, err)
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRow, err)
		}
		records = append(records, rec)
	}
	return parseTable(header, records)
}

// ParseHTML reads the games of one team from the first table whose header
// row names the game log columns.
func ParseHTML(r io.Reader) ([]model.Game, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRow, err)
	}

	var (
		games []model.Game
		found bool
		perr  error
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var header []string
		var records [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, c *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(c.Text()))
			})
			if len(cells) == 0 {
				return
			}
			if header == nil {
				header = cells
				return
			}
			records = append(records, cells)
		})
		if _, err := indexColumns(header); err != nil {
			return true
		}
		found = true
		games, perr = parseTable(header, records)
		return false
	})
	if !found {
		return nil, ErrNoTable
	}
	return games, perr
}

func indexColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

func parseTable(header []string, records [][]string) ([]model.Game, error) {
	idx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}
	games := make([]model.Game, 0, len(records))
	for i, rec := range records {
		if blank(rec) {
			continue
		}
		g, err := parseGame(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrBadRow, i+1, err)
		}
		games = append(games, g)
	}
	return games, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseGame(rec []string, idx map[string]int) (model.Game, error) {
	field := func(name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	rank, err := parseRank(field("opp_rank"))
	if err != nil {
		return model.Game{}, err
	}
	venue, err := model.ParseVenue(field("venue"))
	if err != nil {
		return model.Game{}, err
	}
	result, err := model.ParseResult(field("result"))
	if err != nil {
		return model.Game{}, err
	}
	ts, err := parseScore(field("t_score_t"))
	if err != nil {
		return model.Game{}, fmt.Errorf("t_score_t: %w", err)
	}
	oppScore, err := parseScore(field("t_score_o"))
	if err != nil {
		return model.Game{}, fmt.Errorf("t_score_o: %w", err)
	}
	return model.NewGame(field("opponent"), rank, venue, result, ts, oppScore)
}

// parseRank treats blank and NaN as unranked. Whole-number floats such as
// "12.0" are accepted.
func parseRank(s string) (int, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("opp_rank %q is not a whole number", s)
	}
	return int(f), nil
}

func parseScore(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("score %q is not a whole number", s)
	}
	return int(f), nil
}

// Package matchups reads the list of games to predict from CSV or YAML.
package matchups

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/miya/internal/domain/model"
)

// ErrUnknownFormat is returned for files that are neither CSV nor YAML.
var ErrUnknownFormat = errors.New("unknown matchup file format")

// Load reads path, choosing the parser from its extension.
func Load(path string) ([]model.Matchup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matchups: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ParseCSV(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ParseCSV reads team1,team2[,seed1,seed2] rows. A first row starting with
// "team1" is treated as a header. Rows with a blank team are kept so the
// batch can report them; only structurally broken rows fail the parse.
func ParseCSV(r io.Reader) ([]model.Matchup, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	var out []model.Matchup
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("matchups line %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "team1") {
			continue
		}
		m, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("matchups line %d: %w", line, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func fromRecord(rec []string) (model.Matchup, error) {
	if len(rec) < 2 {
		return model.Matchup{}, fmt.Errorf("%w: need two teams, got %d fields", model.ErrInvalidMatchup, len(rec))
	}
	m := model.Matchup{
		Team1: strings.TrimSpace(rec[0]),
		Team2: strings.TrimSpace(rec[1]),
	}
	var err error
	if len(rec) > 2 {
		if m.Seed1, err = seed(rec[2]); err != nil {
			return m, err
		}
	}
	if len(rec) > 3 {
		if m.Seed2, err = seed(rec[3]); err != nil {
			return m, err
		}
	}
	return m, nil
}

func seed(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: seed %q", model.ErrInvalidMatchup, s)
	}
	return n, nil
}

// ParseYAML reads a YAML sequence of matchups.
func ParseYAML(r io.Reader) ([]model.Matchup, error) {
	var out []model.Matchup
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode matchups: %w", err)
	}
	for i := range out {
		out[i].Team1 = strings.TrimSpace(out[i].Team1)
		out[i].Team2 = strings.TrimSpace(out[i].Team2)
	}
	return out, nil
}

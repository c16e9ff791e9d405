package gamelog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/teamname"
	"github.com/okian/miya/pkg/logger"
	"github.com/okian/miya/pkg/metrics"
)

var extensions = []string{".csv", ".html", ".htm"}

// DirSource serves game logs from a directory. Loaded logs are cached and
// concurrent loads of one team share a single read.
type DirSource struct {
	dir    string
	group  singleflight.Group
	mu     sync.RWMutex
	cache  map[string]model.GameLog
	logger logger.Logger
}

// NewDirSource creates a source over dir.
func NewDirSource(dir string, opts ...Option) *DirSource {
	s := &DirSource{
		dir:    dir,
		cache:  make(map[string]model.GameLog),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Teams lists the team names that have a game log file, sorted. Hidden
// files and unknown extensions are skipped.
func (s *DirSource) Teams() ([]string, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	teams := make([]string, 0, len(files))
	for team := range files {
		teams = append(teams, team)
	}
	slices.Sort(teams)
	return teams, nil
}

// files maps team name to file path.
func (s *DirSource) files() (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read game log dir: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(extensions, ext) {
			continue
		}
		team := teamname.FromFileStem(strings.TrimSuffix(name, filepath.Ext(name)))
		if _, dup := out[team]; dup {
			continue
		}
		out[team] = filepath.Join(s.dir, name)
	}
	return out, nil
}

// GameLog returns the games of team, or model.ErrGameLogNotFound.
func (s *DirSource) GameLog(ctx context.Context, team string) (model.GameLog, error) {
	if err := ctx.Err(); err != nil {
		return model.GameLog{}, err
	}
	key := teamname.Key(team)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		metrics.RecordGameLogCacheHit()
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		log, err := s.load(team)
		if err != nil {
			return model.GameLog{}, err
		}
		s.mu.Lock()
		s.cache[key] = log
		s.mu.Unlock()
		return log, nil
	})
	if err != nil {
		return model.GameLog{}, err
	}
	return v.(model.GameLog), nil
}

func (s *DirSource) load(team string) (model.GameLog, error) {
	path, err := s.resolve(team)
	if err != nil {
		return model.GameLog{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.GameLog{}, fmt.Errorf("read game log %s: %w", path, err)
	}

	var games []model.Game
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		games, err = ParseCSV(bytes.NewReader(data))
	default:
		games, err = ParseHTML(bytes.NewReader(data))
	}
	if err != nil {
		metrics.RecordErrorByComponent("gamelog", "parse")
		return model.GameLog{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	metrics.RecordGameLogLoad()
	s.logger.Debug(context.Background(), "game log loaded", logger.Team(team), logger.Int("games", len(games)))
	return model.GameLog{Team: team, Games: games}, nil
}

// resolve finds the file for team: the exact file stem first, then any
// file whose name matches case-insensitively or after normalization.
func (s *DirSource) resolve(team string) (string, error) {
	stem := teamname.FileStem(team)
	for _, ext := range extensions {
		path := filepath.Join(s.dir, stem+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	files, err := s.files()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", model.ErrGameLogNotFound, team)
		}
		return "", err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	if match, ok := teamname.Match(team, names); ok {
		return files[match], nil
	}
	return "", fmt.Errorf("%w: %s", model.ErrGameLogNotFound, team)
}

// NormalizeFileNames renames game log files whose names contain spaces to
// underscore names. It returns old name to new name for every rename.
func NormalizeFileNames(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read game log dir: %w", err)
	}
	renamed := make(map[string]string)
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.Contains(name, " ") {
			continue
		}
		if !slices.Contains(extensions, strings.ToLower(filepath.Ext(name))) {
			continue
		}
		newName := strings.ReplaceAll(name, " ", "_")
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, newName)); err != nil {
			errs = append(errs, fmt.Errorf("rename %q: %w", name, err))
			continue
		}
		renamed[name] = newName
	}
	return renamed, errors.Join(errs...)
}

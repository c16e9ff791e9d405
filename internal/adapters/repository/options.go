package repository

import (
	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/teamname"
	"github.com/okian/miya/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithSeed preloads metrics, e.g. for fixtures. Seeded teams count as written.
func WithSeed(seed map[string]model.CompositeMetrics) Option {
	return func(s *MemoryStore) {
		for team, m := range seed {
			s.byTeam[teamname.Key(team)] = m
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteLogger sets the logger.
func WithSQLiteLogger(l logger.Logger) SQLiteOption {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBusyTimeoutMS sets how long SQLite waits on a locked database file.
func WithBusyTimeoutMS(ms int) SQLiteOption {
	return func(s *SQLiteStore) {
		if ms > 0 {
			s.busyTimeoutMS = ms
		}
	}
}

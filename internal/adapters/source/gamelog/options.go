package gamelog

import "github.com/okian/miya/pkg/logger"

// Option configures a DirSource.
type Option func(*DirSource)

// WithLogger sets the source's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *DirSource) {
		if l != nil {
			s.logger = l.Named("gamelog")
		}
	}
}

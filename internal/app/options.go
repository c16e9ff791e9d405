package service

import (
	"github.com/okian/miya/internal/adapters/repository"
	"github.com/okian/miya/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of metric workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the metric job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the minimum capacity of the team claim set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsStore replaces the in-memory metrics store.
func WithMetricsStore(store repository.MetricsStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPredictionStore persists every batch.
func WithPredictionStore(store repository.PredictionStore) Option {
	return func(s *Service) {
		s.predictions = store
	}
}

// WithQualifyingOpponents overrides the WORTH opponent set, which defaults
// to every team that has a game log.
func WithQualifyingOpponents(teams []string) Option {
	return func(s *Service) {
		if teams != nil {
			s.qualifying = teams
		}
	}
}

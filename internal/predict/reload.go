package predict

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/utakatalp/match-predictor/internal/artifacts"
)

// Open loads the artifact pair from disk and starts a service on it.
func Open(p artifacts.Paths, logger *zap.Logger) (*Service, error) {
	stats, bundle, err := artifacts.Load(p)
	if err != nil {
		return nil, fmt.Errorf("loading artifacts from %s: %w", p.Dir, err)
	}
	return New(stats, bundle, logger)
}

// ReloadFrom reads a fresh artifact pair from disk and installs it with Reload.
func (s *Service) ReloadFrom(p artifacts.Paths) error {
	stats, bundle, err := artifacts.Load(p)
	if err != nil {
		s.logger.Error("reload: loading artifacts failed", zap.String("dir", p.Dir), zap.Error(err))
		return fmt.Errorf("loading artifacts from %s: %w", p.Dir, err)
	}
	return s.Reload(stats, bundle)
}

package predict

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/utakatalp/match-predictor/internal/artifacts"
)

// Watch reloads the artifact pair whenever team_stats.json or model.json in
// p.Dir is replaced. Bursts of events within debounce collapse into one
// reload. It blocks until ctx is done.
func (s *Service) Watch(ctx context.Context, p artifacts.Paths, debounce time.Duration) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating artifact watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// The directory, not the files: artifacts are swapped in by rename.
	if err := watcher.Add(p.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", p.Dir, err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isArtifact(event.Name) || !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("artifact watcher error", zap.Error(werr))
		case <-timer.C:
			if err := s.ReloadFrom(p); err != nil {
				continue
			}
			s.logger.Info("artifacts reloaded after change", zap.String("dir", p.Dir))
		}
	}
}

func isArtifact(name string) bool {
	base := filepath.Base(name)
	return base == artifacts.StatsFile || base == artifacts.ModelFile
}

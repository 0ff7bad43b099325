// Package cleanup removes reply artifacts once they are past retention.
package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/artifact"
)

// Store is the part of the artifact store the sweeper needs.
type Store interface {
	List() ([]artifact.File, error)
	Remove(name string) error
}

type Report struct {
	Scanned    int
	Deleted    []artifact.File
	Failed     []string
	BytesFreed int64
}

type Sweeper struct {
	store     Store
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewSweeper(store Store, retention time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{store: store, retention: retention, logger: logger, now: time.Now}
}

// Expired lists artifacts older than the retention window.
func (s *Sweeper) Expired() ([]artifact.File, int, error) {
	files, err := s.store.List()
	if err != nil {
		return nil, 0, err
	}
	cutoff := s.now().Add(-s.retention)
	var expired []artifact.File
	for _, f := range files {
		if f.ModTime.Before(cutoff) {
			expired = append(expired, f)
		}
	}
	return expired, len(files), nil
}

// Sweep deletes expired artifacts. With dryRun nothing is removed and the
// report lists what would be.
func (s *Sweeper) Sweep(dryRun bool) (*Report, error) {
	expired, scanned, err := s.Expired()
	if err != nil {
		return nil, err
	}

	report := &Report{Scanned: scanned}
	for _, f := range expired {
		if !dryRun {
			if err := s.store.Remove(f.Name); err != nil {
				s.logger.Warn("Failed to delete reply artifact", zap.String("file", f.Name), zap.Error(err))
				report.Failed = append(report.Failed, f.Name)
				continue
			}
		}
		report.Deleted = append(report.Deleted, f)
		report.BytesFreed += f.Size
	}

	s.logger.Info("Reply cleanup finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("scanned", report.Scanned),
		zap.Int("deleted", len(report.Deleted)),
		zap.Int("failed", len(report.Failed)),
		zap.Int64("bytes_freed", report.BytesFreed),
	)
	return report, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(false); err != nil {
				s.logger.Error("Reply cleanup failed", zap.Error(err))
			}
		}
	}
}

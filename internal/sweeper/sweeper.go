// Package sweeper deletes rendered artifacts that no record references.
//
// An artifact becomes unreferenced when its record insert fails after the
// artifact was written. Only artifacts older than the grace period are
// considered so in-flight generations are never touched. Records are never deleted.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qrtist/backend/internal/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ArtifactStore lists and deletes rendered artifacts
type ArtifactStore interface {
	List(olderThan time.Time) ([]string, error)
	Delete(ref string) error
}

// ReferenceChecker reports whether any record points at an artifact
type ReferenceChecker interface {
	ArtifactReferenced(ctx context.Context, artifactRef string) (bool, error)
}

// Result is the outcome of one sweep
type Result struct {
	Scanned int
	Deleted int
	Errors  int
}

// Sweeper removes unreferenced artifacts
type Sweeper struct {
	artifacts   ArtifactStore
	refs        ReferenceChecker
	gracePeriod time.Duration
	logger      *zap.Logger
	now         func() time.Time

	mu sync.Mutex
}

// New creates a new sweeper
func New(artifacts ArtifactStore, refs ReferenceChecker, gracePeriod time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		artifacts:   artifacts,
		refs:        refs,
		gracePeriod: gracePeriod,
		logger:      logger,
		now:         time.Now,
	}
}

// Run performs one sweep. Concurrent calls are serialized.
//
// A failure on a single artifact is logged and counted, the sweep continues.
// The error is only returned when the artifacts cannot be listed.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	metrics.SweepRunsTotal.Inc()
	defer func() {
		metrics.SweepDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	var result Result

	refs, err := s.artifacts.List(s.now().Add(-s.gracePeriod))
	if err != nil {
		return result, fmt.Errorf("failed to list artifacts: %w", err)
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		referenced, err := s.refs.ArtifactReferenced(ctx, ref)
		if err != nil {
			result.Errors++
			s.logger.Error("failed to check artifact reference", zap.Error(err), zap.String("artifact_ref", ref))
			continue
		}
		if referenced {
			continue
		}

		if err := s.artifacts.Delete(ref); err != nil {
			result.Errors++
			s.logger.Error("failed to delete orphaned artifact", zap.Error(err), zap.String("artifact_ref", ref))
			continue
		}
		result.Deleted++
		metrics.SweepDeletedTotal.Inc()
		s.logger.Info("deleted orphaned artifact", zap.String("artifact_ref", ref))
	}

	return result, nil
}

// Schedule registers the sweep on a new cron scheduler using a standard cron spec or descriptor.
// Overlapping runs are skipped. The returned scheduler is not started.
func (s *Sweeper) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	cronLogger := &cronLogger{logger: s.logger}
	c := cron.New(cron.WithLogger(cronLogger), cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	_, err := c.AddFunc(spec, func() {
		result, err := s.Run(ctx)
		if err != nil {
			s.logger.Error("artifact sweep failed", zap.Error(err))
			return
		}
		s.logger.Info("artifact sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("deleted", result.Deleted),
			zap.Int("errors", result.Errors),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	return c, nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

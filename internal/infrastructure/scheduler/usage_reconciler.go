// Package scheduler runs background maintenance jobs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	billingapp "github.com/slotbook/backend/internal/application/billing"
)

// UsageFixer recounts merchant usage and repairs drifted counters
type UsageFixer interface {
	FixUsage(ctx context.Context) (*billingapp.FixUsageReport, error)
}

// UsageReconcilerConfig holds configuration for the usage reconciler
type UsageReconcilerConfig struct {
	Enabled bool
	// Interval between runs. The first run happens one interval after Start.
	Interval time.Duration
	// Timeout bounds a single run
	Timeout time.Duration
}

// DefaultUsageReconcilerConfig returns default configuration
func DefaultUsageReconcilerConfig() UsageReconcilerConfig {
	return UsageReconcilerConfig{
		Enabled:  true,
		Interval: 6 * time.Hour,
		Timeout:  10 * time.Minute,
	}
}

// UsageReconciler periodically runs FixUsage so cached usage counters cannot
// drift for long. FixUsage is idempotent, so overlapping with an admin
// triggered run is harmless.
type UsageReconciler struct {
	fixer     UsageFixer
	logger    *zap.Logger
	config    UsageReconcilerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewUsageReconciler creates a new usage reconciler
func NewUsageReconciler(fixer UsageFixer, logger *zap.Logger, config UsageReconcilerConfig) *UsageReconciler {
	return &UsageReconciler{
		fixer:  fixer,
		logger: logger,
		config: config,
	}
}

// Start starts the reconcile loop
func (s *UsageReconciler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled || s.config.Interval <= 0 {
		s.mu.Unlock()
		s.logger.Info("Usage reconciler is disabled")
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(ctx)

	s.logger.Info("Usage reconciler started", zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop cancels the loop and waits for an in-flight run, bounded by ctx
func (s *UsageReconciler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Usage reconciler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Usage reconciler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow runs a reconciliation in the background without waiting for the interval
func (s *UsageReconciler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.execute(ctx)
	}()
	return nil
}

// IsRunning returns whether the reconciler is running
func (s *UsageReconciler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *UsageReconciler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Usage reconcile loop stopping")
			return
		case <-ticker.C:
			s.execute(ctx)
		}
	}
}

func (s *UsageReconciler) execute(ctx context.Context) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	started := time.Now()
	report, err := s.fixer.FixUsage(ctx)
	duration := time.Since(started)
	if err != nil {
		s.logger.Error("Usage reconciliation failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Usage reconciliation completed",
		zap.Duration("duration", duration),
		zap.Int("merchants_processed", report.MerchantsProcessed),
		zap.Int("drifted", len(report.Drifted)),
	)
}

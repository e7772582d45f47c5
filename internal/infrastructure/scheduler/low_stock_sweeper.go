package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hms/backend/internal/domain/inventory"
)

// LowStockLister lists items at or under a threshold
type LowStockLister interface {
	LowStockItems(ctx context.Context, policy inventory.ThresholdPolicy) ([]inventory.LowStockItem, error)
}

// LowStockRecorder receives the per-department count of each sweep
type LowStockRecorder interface {
	SetLowStockItems(department inventory.Department, count int)
}

// LowStockSweeperConfig holds the sweep settings
type LowStockSweeperConfig struct {
	Interval    time.Duration
	Departments []inventory.Department
	// Timeout bounds one sweep; zero means Interval
	Timeout time.Duration
}

// DefaultLowStockSweeperConfig sweeps both departments every 15 minutes
func DefaultLowStockSweeperConfig() LowStockSweeperConfig {
	return LowStockSweeperConfig{
		Interval:    15 * time.Minute,
		Departments: []inventory.Department{inventory.DepartmentPharmacy, inventory.DepartmentLab},
	}
}

// LowStockSweeper periodically re-counts items under their reorder level.
// Crossing events only fire on the movement that crosses the level, so the
// sweep keeps the gauge right after restarts and manual reorder level changes.
type LowStockSweeper struct {
	config   LowStockSweeperConfig
	lister   LowStockLister
	recorder LowStockRecorder
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastRun time.Time
}

// NewLowStockSweeper creates a sweeper. recorder may be nil.
func NewLowStockSweeper(config LowStockSweeperConfig, lister LowStockLister, recorder LowStockRecorder, logger *zap.Logger) (*LowStockSweeper, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if len(config.Departments) == 0 {
		return nil, fmt.Errorf("%w: no departments", ErrInvalidConfig)
	}
	for _, d := range config.Departments {
		if !d.IsValid() {
			return nil, fmt.Errorf("%w: unknown department %q", ErrInvalidConfig, d)
		}
	}
	if config.Timeout <= 0 {
		config.Timeout = config.Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockSweeper{
		config:   config,
		lister:   lister,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// Start runs one sweep immediately and then one per interval until Stop
func (s *LowStockSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("low stock sweeper started", zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop cancels the loop and waits for a running sweep to finish or ctx to expire
func (s *LowStockSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("low stock sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRun returns when the last sweep finished
func (s *LowStockSweeper) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *LowStockSweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		s.sweepWithTimeout(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *LowStockSweeper) sweepWithTimeout(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("low stock sweep failed", zap.Error(err))
	}
}

// Sweep counts low stock items per department once. A failing department is
// logged and skipped; the first error is returned after all departments ran.
func (s *LowStockSweeper) Sweep(ctx context.Context) (map[inventory.Department][]inventory.LowStockItem, error) {
	result := make(map[inventory.Department][]inventory.LowStockItem, len(s.config.Departments))
	var firstErr error
	for _, dept := range s.config.Departments {
		items, err := s.lister.LowStockItems(ctx, inventory.ThresholdPolicy{Department: dept})
		if err != nil {
			s.logger.Warn("low stock listing failed", zap.String("department", string(dept)), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", dept, err)
			}
			continue
		}
		result[dept] = items
		if s.recorder != nil {
			s.recorder.SetLowStockItems(dept, len(items))
		}
		if len(items) > 0 {
			s.logger.Info("items at or under reorder level",
				zap.String("department", string(dept)),
				zap.Int("count", len(items)),
				zap.Strings("items", itemNames(items, 10)),
			)
		}
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()
	return result, firstErr
}

func itemNames(items []inventory.LowStockItem, limit int) []string {
	n := min(len(items), limit)
	names := make([]string, n)
	for i := range n {
		names[i] = items[i].Key.Name
	}
	return names
}

// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns a driver and the fixed set of pages every step is replayed on.
type Manager struct {
	driver Driver
	logger *zap.Logger

	mu      sync.RWMutex
	pages   []Page
	started bool
}

// NewManager creates a manager for driver. Nothing is launched until Open.
func NewManager(driver Driver, logger *zap.Logger) *Manager {
	return &Manager{
		driver: driver,
		logger: logger.Named("browser_manager").With(zap.String("driver", driver.Name())),
	}
}

// Open starts the driver and opens n pages concurrently. Pages are returned
// in a stable order (page-1, page-2, ...).
func (m *Manager) Open(ctx context.Context, n int) ([]Page, error) {
	if n <= 0 {
		return nil, fmt.Errorf("page count must be positive, got %d", n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil, errors.New("browser manager already opened")
	}

	m.logger.Info("Starting browser driver.", zap.Int("pages", n))
	if err := m.driver.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start %s driver: %w", m.driver.Name(), err)
	}
	m.started = true

	pages := make([]Page, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range pages {
		g.Go(func() error {
			p, err := m.driver.NewPage(gctx, fmt.Sprintf("page-%d", i+1))
			if err != nil {
				return fmt.Errorf("failed to open page %d: %w", i+1, err)
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.closePages(ctx, pages)
		if stopErr := m.driver.Stop(ctx); stopErr != nil {
			m.logger.Warn("Failed to stop driver after open failure.", zap.Error(stopErr))
		}
		m.started = false
		return nil, err
	}

	m.pages = pages
	m.logger.Info("Browser pages ready.", zap.Int("pages", len(pages)))
	return append([]Page(nil), pages...), nil
}

// Pages returns the open pages.
func (m *Manager) Pages() []Page {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Page(nil), m.pages...)
}

// Shutdown closes every page and stops the driver. It is safe to call more
// than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.logger.Info("Shutting down browser manager.")

	// The caller's context may already be cancelled by the time the suite ends.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGracePeriod)
	defer cancel()

	m.closePages(cleanupCtx, m.pages)
	m.pages = nil
	m.started = false

	if err := m.driver.Stop(cleanupCtx); err != nil {
		return fmt.Errorf("failed to stop %s driver: %w", m.driver.Name(), err)
	}
	m.logger.Info("Browser manager shutdown complete.")
	return nil
}

func (m *Manager) closePages(ctx context.Context, pages []Page) {
	var wg sync.WaitGroup
	for _, p := range pages {
		if p == nil {
			continue
		}
		wg.Add(1)
		go func(p Page) {
			defer wg.Done()
			if err := p.Close(ctx); err != nil {
				m.logger.Warn("Error closing page.", zap.String("page", p.ID()), zap.Error(err))
			}
		}(p)
	}
	wg.Wait()
}

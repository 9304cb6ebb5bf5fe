// Package pw drives Chromium through playwright-go.
package pw

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/config"
)

// Driver implements browser.Driver on a single Chromium instance. Every page
// gets its own browser context so cookies and storage are not shared.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

var _ browser.Driver = (*Driver)(nil)

// NewDriver creates a playwright driver. Nothing is launched until Start.
func NewDriver(cfg config.BrowserConfig, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger.Named("driver.playwright")}
}

func (d *Driver) Name() string { return config.DriverPlaywright }

// Start optionally installs the playwright driver and Chromium, then
// launches the browser.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.browser != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if d.cfg.InstallPlaywright {
		d.logger.Info("Installing playwright driver and chromium.")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright (set browser.install_playwright to fetch it): %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.cfg.Headless),
		Args:     d.cfg.Args,
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch chromium: %w", err)
	}

	d.pw, d.browser = pw, b
	d.logger.Info("Chromium launched.", zap.String("version", b.Version()), zap.Bool("headless", d.cfg.Headless))
	return nil
}

func (d *Driver) NewPage(ctx context.Context, id string) (browser.Page, error) {
	d.mu.Lock()
	b := d.browser
	d.mu.Unlock()
	if b == nil {
		return nil, errors.New("playwright driver is not started")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(d.cfg.IgnoreTLSErrors),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page.SetDefaultTimeout(millis(d.cfg.ActionTimeout, 5*time.Second))
	page.SetDefaultNavigationTimeout(millis(d.cfg.NavigationTimeout, 30*time.Second))

	return &Page{id: id, page: page, bctx: bctx, logger: d.logger.With(zap.String("page", id))}, nil
}

// Stop closes the browser and the playwright driver process.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.browser == nil {
		return nil
	}

	var errs []error
	if err := d.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close chromium: %w", err))
	}
	if err := d.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	d.browser, d.pw = nil, nil
	return errors.Join(errs...)
}

// millis converts d to the float milliseconds playwright expects.
func millis(d, fallback time.Duration) float64 {
	if d <= 0 {
		d = fallback
	}
	return float64(d.Milliseconds())
}

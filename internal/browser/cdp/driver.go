// Package cdp drives Chrome over the DevTools protocol with chromedp.
// Lookups run as JavaScript finders that tag their match with a
// data-formprobe-id attribute; actions then target that attribute.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/config"
)

// Driver implements browser.Driver on one Chrome process; each page is a tab.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

var _ browser.Driver = (*Driver)(nil)

// NewDriver creates a chromedp driver. Nothing is launched until Start.
func NewDriver(cfg config.BrowserConfig, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger.Named("driver.chromedp")}
}

func (d *Driver) Name() string { return config.DriverChromedp }

// ExecAllocatorOptions translates the browser config into chromedp allocator options.
func ExecAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	// Required on hardened hosts and in containers.
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.IgnoreCertErrors)
	}

	for _, arg := range cfg.Args {
		arg = strings.TrimPrefix(arg, "--")
		if key, value, ok := strings.Cut(arg, "="); ok {
			opts = append(opts, chromedp.Flag(key, value))
			continue
		}
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// Start launches Chrome. The process outlives ctx and is stopped by Stop.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.browserCtx != nil {
		return nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), ExecAllocatorOptions(d.cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(d.logger.Sugar().Debugf),
		chromedp.WithErrorf(d.logger.Sugar().Errorf),
	)

	startCtx, cancel := combineContext(browserCtx, ctx)
	defer cancel()
	// An empty Run allocates the browser.
	if err := chromedp.Run(startCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("failed to launch chrome: %w", err)
	}

	d.allocCancel, d.browserCtx, d.browserCancel = allocCancel, browserCtx, browserCancel
	d.logger.Info("Chrome launched.", zap.Bool("headless", d.cfg.Headless))
	return nil
}

func (d *Driver) NewPage(ctx context.Context, id string) (browser.Page, error) {
	d.mu.Lock()
	browserCtx := d.browserCtx
	d.mu.Unlock()
	if browserCtx == nil {
		return nil, errors.New("chromedp driver is not started")
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	runCtx, cancel := combineContext(tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	return &Page{
		id:            id,
		tabCtx:        tabCtx,
		cancel:        tabCancel,
		navTimeout:    d.cfg.NavigationTimeout,
		actionTimeout: d.cfg.ActionTimeout,
		logger:        d.logger.With(zap.String("page", id)),
	}, nil
}

// Stop closes the browser gracefully, then the allocator.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.browserCtx == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(d.browserCtx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	d.browserCancel()
	d.allocCancel()
	d.browserCtx, d.browserCancel, d.allocCancel = nil, nil, nil

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}

// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/form"
	"github.com/xkilldash9x/formprobe/internal/resolver"
	"github.com/xkilldash9x/formprobe/internal/steps"
)

// ComponentFactory creates the components of a run. The abstraction lets
// the commands be tested without a browser.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error)
}

type concreteFactory struct {
	newDriver DriverFunc
}

// NewComponentFactory creates the production factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{newDriver: NewDriver}
}

// NewComponentFactoryWithDriver creates a factory with a custom driver constructor.
func NewComponentFactoryWithDriver(fn DriverFunc) ComponentFactory {
	return &concreteFactory{newDriver: fn}
}

// Create starts the browser, opens the configured pages and wires the
// resolver, filler, asserter and step definitions on top.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driver, err := f.newDriver(cfg.Browser, logger)
	if err != nil {
		return nil, err
	}
	manager := browser.NewManager(driver, logger)
	if _, err := manager.Open(ctx, cfg.Browser.Pages); err != nil {
		return nil, fmt.Errorf("failed to open browser pages: %w", err)
	}

	c := &Components{
		Manager:  manager,
		Resolver: resolver.New(logger, cfg.Resolver.AttemptTimeout),
		Defects:  diagnostics.NewRecorder(logger),
		logger:   logger,
	}
	c.Filler = form.NewFiller(c.Resolver, c.Defects, logger)
	c.Asserter = form.NewAsserter(c.Resolver, c.Defects, logger)
	c.Steps = steps.NewSuite(steps.Deps{
		BaseURL:          cfg.Target.BaseURL,
		Pages:            manager,
		Filler:           c.Filler,
		Asserter:         c.Asserter,
		ActionsPerSecond: cfg.Browser.ActionsPerSecond,
		Logger:           logger,
	})

	logger.Debug("Components initialized.",
		zap.String("driver", driver.Name()),
		zap.Int("pages", cfg.Browser.Pages),
		zap.Duration("attempt_timeout", cfg.Resolver.AttemptTimeout),
	)
	return c, nil
}

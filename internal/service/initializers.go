// File: internal/service/initializers.go
package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/browser/cdp"
	"github.com/xkilldash9x/formprobe/internal/browser/pw"
	"github.com/xkilldash9x/formprobe/internal/browser/static"
	"github.com/xkilldash9x/formprobe/internal/config"
)

// DriverFunc builds the browser driver for a configuration.
type DriverFunc func(cfg config.BrowserConfig, logger *zap.Logger) (browser.Driver, error)

// NewDriver selects the driver named by cfg.Driver.
func NewDriver(cfg config.BrowserConfig, logger *zap.Logger) (browser.Driver, error) {
	switch cfg.Driver {
	case config.DriverPlaywright:
		return pw.NewDriver(cfg, logger), nil
	case config.DriverChromedp:
		return cdp.NewDriver(cfg, logger), nil
	case config.DriverStatic:
		return static.NewDriver(cfg, nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
}

// File: internal/service/components.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/form"
	"github.com/xkilldash9x/formprobe/internal/resolver"
	"github.com/xkilldash9x/formprobe/internal/steps"
)

const shutdownTimeout = 30 * time.Second

// Components holds everything a suite run needs and owns its lifecycle.
type Components struct {
	Manager  *browser.Manager
	Resolver *resolver.Resolver
	Defects  *diagnostics.Recorder
	Filler   *form.Filler
	Asserter *form.Asserter
	Steps    *steps.Suite

	logger *zap.Logger
}

// Shutdown closes the pages and stops the browser. It uses its own timeout
// so it completes even when the run context was cancelled.
func (c *Components) Shutdown() {
	if c.Manager == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Manager.Shutdown(ctx); err != nil {
		c.logger.Warn("Error during browser manager shutdown.", zap.Error(err))
		return
	}
	c.logger.Debug("Browser manager shut down.")
}

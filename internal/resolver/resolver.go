// Package resolver locates a form control from its semantic description,
// degrading through progressively looser lookups so that broken label markup
// does not stop a scenario.
package resolver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/field"
)

// DefaultAttemptTimeout bounds the visibility wait of each strategy.
const DefaultAttemptTimeout = 800 * time.Millisecond

// Strategy names the lookup that produced a control.
type Strategy string

const (
	StrategyLabel       Strategy = "label"
	StrategyAdjacency   Strategy = "adjacency"
	StrategyPlaceholder Strategy = "placeholder"
	StrategyFallback    Strategy = "fallback"
)

var (
	errNoAdjacentControl = errors.New("no control follows a matching label")
	errNoPattern         = errors.New("field has no pattern for this strategy")
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Control  browser.Control
	Strategy Strategy
}

// attemptFunc is one link of the chain. An error means "try the next one".
type attemptFunc func(ctx context.Context, page browser.Page, f field.Field) (browser.Control, error)

type strategy struct {
	name Strategy
	try  attemptFunc
}

// Resolver runs the strategy chain. It is safe for concurrent use.
type Resolver struct {
	logger  *zap.Logger
	timeout time.Duration
	chain   []strategy
}

// New creates a resolver. A non-positive timeout selects DefaultAttemptTimeout.
func New(logger *zap.Logger, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	r := &Resolver{
		logger:  logger.Named("resolver"),
		timeout: timeout,
	}
	// The last entry never fails.
	r.chain = []strategy{
		{StrategyLabel, r.byLabel},
		{StrategyAdjacency, r.byAdjacency},
		{StrategyPlaceholder, r.byPlaceholder},
		{StrategyFallback, r.fallback},
	}
	return r
}

// Resolve returns the control for f on page. It never fails: when every
// strategy misses, the first control of the form is returned, which may
// match nothing. Operations on such a control fail later with a driver error.
// A cancelled ctx skips straight to the fallback.
func (r *Resolver) Resolve(ctx context.Context, page browser.Page, f field.Field) Resolution {
	logger := r.logger.With(zap.String("field", f.Name), zap.String("page", page.ID()))
	last := len(r.chain) - 1

	for _, s := range r.chain[:last] {
		if ctx.Err() != nil {
			logger.Debug("Context done, skipping to fallback.", zap.Error(ctx.Err()))
			break
		}
		ctl, err := s.try(ctx, page, f)
		if err != nil {
			logger.Debug("Strategy missed.", zap.String("strategy", string(s.name)), zap.Error(err))
			continue
		}
		logger.Debug("Field resolved.", zap.String("strategy", string(s.name)), zap.String("locator", ctl.Description()))
		return Resolution{Control: ctl, Strategy: s.name}
	}

	ctl, _ := r.chain[last].try(ctx, page, f)
	logger.Warn("Every strategy missed; using the first form control.", zap.String("locator", ctl.Description()))
	return Resolution{Control: ctl, Strategy: StrategyFallback}
}

func (r *Resolver) byLabel(ctx context.Context, page browser.Page, f field.Field) (browser.Control, error) {
	if f.LabelPattern == nil {
		return nil, errNoPattern
	}
	ctl := page.ByLabel(f.LabelPattern)
	if err := ctl.WaitVisible(ctx, r.timeout); err != nil {
		return nil, err
	}
	return ctl, nil
}

func (r *Resolver) byAdjacency(ctx context.Context, page browser.Page, f field.Field) (browser.Control, error) {
	if f.LabelText == "" {
		return nil, errNoPattern
	}
	near := page.NearLabel(f.LabelText)
	n, err := near.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errNoAdjacentControl
	}
	first := near.First()
	if err := first.WaitVisible(ctx, r.timeout); err != nil {
		return nil, err
	}
	return first, nil
}

func (r *Resolver) byPlaceholder(ctx context.Context, page browser.Page, f field.Field) (browser.Control, error) {
	if f.PlaceholderPattern == nil {
		return nil, errNoPattern
	}
	ctl := page.ByPlaceholder(f.PlaceholderPattern)
	if err := ctl.WaitVisible(ctx, r.timeout); err != nil {
		return nil, err
	}
	return ctl, nil
}

func (r *Resolver) fallback(_ context.Context, page browser.Page, _ field.Field) (browser.Control, error) {
	return page.Query(browser.FormControls).First(), nil
}

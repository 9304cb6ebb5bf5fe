package cdp

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
)

// Page is one Chrome tab.
type Page struct {
	id            string
	tabCtx        context.Context
	cancel        context.CancelFunc
	navTimeout    time.Duration
	actionTimeout time.Duration
	logger        *zap.Logger
}

var _ browser.Page = (*Page)(nil)

// evalResult is what every generated script returns.
type evalResult struct {
	N     int                 `json:"n"`
	Value jsoniter.RawMessage `json:"value"`
	Err   string              `json:"err"`
}

func (p *Page) ID() string { return p.id }

func (p *Page) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := p.opContext(ctx, p.navTimeout, 30*time.Second)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if resp != nil && resp.Status >= 400 {
		return fmt.Errorf("navigation to %s returned HTTP %d", url, resp.Status)
	}
	p.logger.Debug("Navigated.", zap.String("url", url))
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	runCtx, cancel := p.opContext(ctx, p.navTimeout, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Reload()); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return nil
}

func (p *Page) ByLabel(pattern *regexp.Regexp) browser.Control {
	return p.control(fmt.Sprintf("label=/%s/", pattern), findByLabel(pattern))
}

func (p *Page) NearLabel(text string) browser.Control {
	return p.control(fmt.Sprintf("label:has-text(%q) >> following control", text), findNearLabel(text))
}

func (p *Page) ByPlaceholder(pattern *regexp.Regexp) browser.Control {
	return p.control(fmt.Sprintf("placeholder=/%s/", pattern), findByPlaceholder(pattern))
}

func (p *Page) Query(selector string) browser.Control {
	return p.control(selector, findQuery(selector))
}

func (p *Page) ButtonByName(pattern *regexp.Regexp) browser.Control {
	return p.control(fmt.Sprintf("button name=/%s/", pattern), findButton(pattern))
}

// Close closes the tab.
func (p *Page) Close(ctx context.Context) error {
	err := chromedp.Cancel(p.tabCtx)
	p.cancel()
	if err != nil && ctx.Err() == nil && p.tabCtx.Err() == nil {
		return fmt.Errorf("failed to close tab %s: %w", p.id, err)
	}
	return nil
}

func (p *Page) control(desc string, f finder) *control {
	return &control{page: p, desc: desc, find: f}
}

// opContext bounds one CDP round trip by ctx and timeout while keeping the
// tab's values.
func (p *Page) opContext(ctx context.Context, timeout, fallback time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = fallback
	}
	opCtx, cancelOp := context.WithTimeout(ctx, timeout)
	runCtx, cancelRun := combineContext(p.tabCtx, opCtx)
	return runCtx, func() {
		cancelRun()
		cancelOp()
	}
}

func (p *Page) actionWait() time.Duration {
	if p.actionTimeout <= 0 {
		return 5 * time.Second
	}
	return p.actionTimeout
}

func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := p.opContext(ctx, p.actionWait(), 0)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func byValue(params *runtime.EvaluateParams) *runtime.EvaluateParams {
	return params.WithReturnByValue(true)
}

func (p *Page) eval(ctx context.Context, js string) (evalResult, error) {
	var raw []byte
	if err := p.run(ctx, chromedp.Evaluate(js, &raw, byValue)); err != nil {
		return evalResult{}, err
	}
	var res evalResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return evalResult{}, fmt.Errorf("failed to decode script result: %w", err)
	}
	return res, nil
}

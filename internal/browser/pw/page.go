package pw

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
)

// Page wraps one playwright page.
type Page struct {
	id     string
	page   playwright.Page
	bctx   playwright.BrowserContext
	logger *zap.Logger
}

var _ browser.Page = (*Page)(nil)

func (p *Page) ID() string { return p.id }

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := p.page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("navigation to %s returned HTTP %d", url, resp.Status())
	}
	p.logger.Debug("Navigated.", zap.String("url", url))
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Reload(playwright.PageReloadOptions{WaitUntil: playwright.WaitUntilStateLoad}); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return nil
}

func (p *Page) ByLabel(pattern *regexp.Regexp) browser.Control {
	return p.control(fmt.Sprintf("getByLabel(/%s/)", pattern), p.page.GetByLabel(pattern))
}

func (p *Page) NearLabel(text string) browser.Control {
	sel := NearLabelSelector(text)
	return p.control(sel, p.page.Locator(sel))
}

func (p *Page) ByPlaceholder(pattern *regexp.Regexp) browser.Control {
	return p.control(fmt.Sprintf("getByPlaceholder(/%s/)", pattern), p.page.GetByPlaceholder(pattern))
}

func (p *Page) Query(selector string) browser.Control {
	return p.control(selector, p.page.Locator(selector))
}

func (p *Page) ButtonByName(pattern *regexp.Regexp) browser.Control {
	loc := p.page.GetByRole(playwright.AriaRole("button"), playwright.PageGetByRoleOptions{Name: pattern})
	return p.control(fmt.Sprintf("getByRole(button, /%s/)", pattern), loc)
}

func (p *Page) Close(ctx context.Context) error {
	if err := p.page.Close(); err != nil {
		return fmt.Errorf("failed to close page %s: %w", p.id, err)
	}
	return p.bctx.Close()
}

func (p *Page) control(desc string, loc playwright.Locator) *control {
	return &control{desc: desc, loc: loc, logger: p.logger}
}

// NearLabelSelector builds the selector of the first form control that
// follows a visible label containing text.
func NearLabelSelector(text string) string {
	return fmt.Sprintf(`label:visible:has-text(%s) >> xpath=following::*[self::input or self::select or self::textarea][1]`,
		quote(text))
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

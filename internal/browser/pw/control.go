package pw

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
)

const (
	jsTagName  = `el => el.tagName.toLowerCase()`
	jsRequired = `el => !!el.required`
	jsValidity = `el => typeof el.checkValidity === 'function' ? el.checkValidity() : true`
)

// control adapts a playwright locator. Locators are lazy, so nothing is
// cached between calls.
type control struct {
	desc   string
	loc    playwright.Locator
	logger *zap.Logger
}

var _ browser.Control = (*control)(nil)

func (c *control) Description() string { return c.desc }

func (c *control) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.loc.Count()
}

func (c *control) First() browser.Control {
	return &control{desc: c.desc + " >> nth=0", loc: c.loc.First(), logger: c.logger}
}

// WaitVisible waits up to timeout, shortened to the context deadline.
func (c *control) WaitVisible(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wait, err := waitMillis(ctx, timeout)
	if err != nil {
		return fmt.Errorf("%s: %w", c.desc, err)
	}
	err = c.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(wait),
	})
	if err != nil {
		return fmt.Errorf("%s: %w: %v", c.desc, browser.ErrNotVisible, err)
	}
	return nil
}

// waitMillis converts timeout, capped by the context deadline, into a
// playwright timeout. Playwright reads 0 as "wait forever", so the result is
// at least one millisecond; an expired deadline is an error instead.
func waitMillis(ctx context.Context, timeout time.Duration) (float64, error) {
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return 0, fmt.Errorf("%w: %w", browser.ErrNotVisible, context.DeadlineExceeded)
		}
		if left < timeout {
			timeout = left
		}
	}
	if timeout < time.Millisecond {
		timeout = time.Millisecond
	}
	return float64(timeout.Milliseconds()), nil
}

func (c *control) Fill(ctx context.Context, value string) error {
	return c.act(ctx, "fill", func() error { return c.loc.Fill(value) })
}

func (c *control) SelectByLabel(ctx context.Context, label string) error {
	return c.act(ctx, "select by label", func() error {
		_, err := c.loc.SelectOption(playwright.SelectOptionValues{Labels: &[]string{label}})
		return err
	})
}

func (c *control) SelectByValue(ctx context.Context, value string) error {
	return c.act(ctx, "select by value", func() error {
		_, err := c.loc.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
		return err
	})
}

func (c *control) SetChecked(ctx context.Context, checked, force bool) error {
	return c.act(ctx, "set checked", func() error {
		return c.loc.SetChecked(checked, playwright.LocatorSetCheckedOptions{Force: playwright.Bool(force)})
	})
}

func (c *control) Click(ctx context.Context) error {
	return c.act(ctx, "click", func() error { return c.loc.Click() })
}

func (c *control) TagName(ctx context.Context) (string, error) {
	v, err := c.evaluate(ctx, jsTagName)
	if err != nil {
		return "", err
	}
	tag, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected tag name %T", c.desc, v)
	}
	return tag, nil
}

func (c *control) IsDisabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.loc.IsDisabled()
}

func (c *control) IsChecked(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.loc.IsChecked()
}

func (c *control) IsRequired(ctx context.Context) (bool, error) {
	return c.evaluateBool(ctx, jsRequired)
}

func (c *control) CheckValidity(ctx context.Context) (bool, error) {
	return c.evaluateBool(ctx, jsValidity)
}

func (c *control) act(ctx context.Context, what string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return fmt.Errorf("%s %s: %w", what, c.desc, err)
	}
	return nil
}

func (c *control) evaluate(ctx context.Context, js string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := c.loc.Evaluate(js, nil)
	if err != nil {
		return nil, fmt.Errorf("evaluate on %s: %w", c.desc, err)
	}
	return v, nil
}

func (c *control) evaluateBool(ctx context.Context, js string) (bool, error) {
	v, err := c.evaluate(ctx, js)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected a boolean, got %T", c.desc, v)
	}
	return b, nil
}

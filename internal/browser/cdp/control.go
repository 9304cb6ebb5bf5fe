package cdp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/xkilldash9x/formprobe/internal/browser"
)

var (
	errDisabled       = errors.New("element is disabled")
	errNotEditable    = errors.New("element is not editable")
	errNoOption       = errors.New("no matching option")
	errStateUnchanged = errors.New("clicking the checkbox did not change its state")
)

const pollInterval = 50 * time.Millisecond

type control struct {
	page  *Page
	desc  string
	find  finder
	first bool
}

var _ browser.Control = (*control)(nil)

func (c *control) Description() string {
	if c.first {
		return c.desc + " >> nth=0"
	}
	return c.desc
}

func (c *control) First() browser.Control {
	return &control{page: c.page, desc: c.desc, find: c.find, first: true}
}

func (c *control) Count(ctx context.Context) (int, error) {
	res, err := c.eval(ctx, opCount)
	if err != nil {
		return 0, err
	}
	return res.N, nil
}

// WaitVisible polls until exactly one match is visible.
func (c *control) WaitVisible(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		res, err := c.eval(waitCtx, opVisible)
		if err == nil {
			if res.N > 1 {
				return fmt.Errorf("%s resolved to %d elements: %w", c.Description(), res.N, browser.ErrAmbiguous)
			}
			var visible bool
			if json.Unmarshal(res.Value, &visible) == nil && visible {
				return nil
			}
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s: %w within %s", c.Description(), browser.ErrNotVisible, timeout)
		case <-ticker.C:
		}
	}
}

func (c *control) Fill(ctx context.Context, value string) error {
	if err := c.ensureActionable(ctx, true); err != nil {
		return err
	}
	sel, err := c.tag(ctx)
	if err != nil {
		return err
	}
	if err := c.page.run(ctx,
		chromedp.Focus(sel, chromedp.ByQuery),
		chromedp.SetValue(sel, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("fill %s: %w", c.Description(), err)
	}
	return c.dispatch(ctx, sel, "input", "change")
}

func (c *control) SelectByLabel(ctx context.Context, label string) error {
	return c.selectOption(ctx, label, true)
}

func (c *control) SelectByValue(ctx context.Context, value string) error {
	return c.selectOption(ctx, value, false)
}

func (c *control) selectOption(ctx context.Context, want string, byLabel bool) error {
	if err := c.ensureActionable(ctx, false); err != nil {
		return err
	}
	var value *string
	if err := c.read(ctx, opOptionValue(want, byLabel), &value); err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("select %q on %s: %w", want, c.Description(), errNoOption)
	}
	sel, err := c.tag(ctx)
	if err != nil {
		return err
	}
	if err := c.page.run(ctx, chromedp.SetValue(sel, *value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("select %q on %s: %w", want, c.Description(), err)
	}
	return c.dispatch(ctx, sel, "input", "change")
}

// SetChecked clicks the control when its state differs from checked. With
// force the click is dispatched from script, skipping visibility and
// enabled checks; a disabled control still does not change.
func (c *control) SetChecked(ctx context.Context, checked, force bool) error {
	current, err := c.IsChecked(ctx)
	if err != nil {
		return err
	}
	if current == checked {
		return nil
	}

	if force {
		if err := c.read(ctx, single("el.click(); return true;"), nil); err != nil {
			return err
		}
	} else {
		if err := c.ensureActionable(ctx, false); err != nil {
			return err
		}
		sel, err := c.tag(ctx)
		if err != nil {
			return err
		}
		if err := c.page.run(ctx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("click %s: %w", c.Description(), err)
		}
	}

	after, err := c.IsChecked(ctx)
	if err != nil {
		return err
	}
	if after != checked {
		return fmt.Errorf("%s: %w", c.Description(), errStateUnchanged)
	}
	return nil
}

func (c *control) Click(ctx context.Context) error {
	if err := c.ensureActionable(ctx, false); err != nil {
		return err
	}
	sel, err := c.tag(ctx)
	if err != nil {
		return err
	}
	if err := c.page.run(ctx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", c.Description(), err)
	}
	return nil
}

func (c *control) TagName(ctx context.Context) (string, error) {
	var tag string
	err := c.read(ctx, opRead(opTagName), &tag)
	return tag, err
}

func (c *control) IsDisabled(ctx context.Context) (bool, error) {
	return c.readBool(ctx, opDisabled)
}

func (c *control) IsChecked(ctx context.Context) (bool, error) {
	return c.readBool(ctx, opChecked)
}

func (c *control) IsRequired(ctx context.Context) (bool, error) {
	return c.readBool(ctx, opRequired)
}

func (c *control) CheckValidity(ctx context.Context) (bool, error) {
	return c.readBool(ctx, opValidity)
}

func (c *control) eval(ctx context.Context, op string) (evalResult, error) {
	res, err := c.page.eval(ctx, script(c.find, c.first, op))
	if err != nil {
		return evalResult{}, fmt.Errorf("%s: %w", c.Description(), err)
	}
	if res.Err != "" {
		return evalResult{}, fmt.Errorf("%s: %s", c.Description(), res.Err)
	}
	return res, nil
}

// read runs a single-element operation and decodes its value into out,
// which may be nil.
func (c *control) read(ctx context.Context, op string, out interface{}) error {
	res, err := c.eval(ctx, op)
	if err != nil {
		return err
	}
	if err := c.cardinality(res.N); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		return fmt.Errorf("%s: failed to decode value: %w", c.Description(), err)
	}
	return nil
}

func (c *control) readBool(ctx context.Context, fn string) (bool, error) {
	var b bool
	err := c.read(ctx, opRead(fn), &b)
	return b, err
}

func (c *control) cardinality(n int) error {
	switch {
	case n == 0:
		return fmt.Errorf("%s: %w", c.Description(), browser.ErrNoMatch)
	case n > 1:
		return fmt.Errorf("%s resolved to %d elements: %w", c.Description(), n, browser.ErrAmbiguous)
	}
	return nil
}

// tag marks the single match with a fresh token and returns a selector for it.
func (c *control) tag(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := c.read(ctx, opTag(token), nil); err != nil {
		return "", err
	}
	return fmt.Sprintf(`[%s=%q]`, Attribute, token), nil
}

func (c *control) dispatch(ctx context.Context, sel string, events ...string) error {
	res, err := c.page.eval(ctx, script(findQuery(sel), true, opDispatch(events...)))
	if err != nil {
		return fmt.Errorf("%s: %w", c.Description(), err)
	}
	if res.Err != "" {
		return fmt.Errorf("%s: %s", c.Description(), res.Err)
	}
	return nil
}

// ensureActionable waits for visibility and rejects disabled (and, for
// text entry, read-only) controls.
func (c *control) ensureActionable(ctx context.Context, editable bool) error {
	if err := c.WaitVisible(ctx, c.page.actionWait()); err != nil {
		return err
	}
	var state struct {
		Visible  bool `json:"visible"`
		Disabled bool `json:"disabled"`
		Editable bool `json:"editable"`
	}
	if err := c.read(ctx, opRead(opActionable), &state); err != nil {
		return err
	}
	if state.Disabled {
		return fmt.Errorf("%s: %w", c.Description(), errDisabled)
	}
	if editable && !state.Editable {
		return fmt.Errorf("%s: %w", c.Description(), errNotEditable)
	}
	return nil
}

package static

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/formprobe/internal/browser"
)

var (
	errDisabled        = errors.New("element is disabled")
	errNotEditable     = errors.New("element is not editable")
	errNotCheckable    = errors.New("not a checkbox or radio button")
	errNotSelect       = errors.New("element is not a <select> element")
	errStateUnchanged  = errors.New("clicking the checkbox did not change its state")
	errCannotUncheckRB = errors.New("cannot uncheck a radio button")
)

// control is a lazy lookup; every call re-runs find against the live document.
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

// resolveLocked runs the lookup. The page lock must be held.
func (c *control) resolveLocked() ([]*html.Node, error) {
	if c.page.doc == nil {
		return nil, errNotNavigated
	}
	nodes, err := c.find(c.page.doc)
	if err != nil {
		return nil, err
	}
	if c.first && len(nodes) > 1 {
		nodes = nodes[:1]
	}
	return nodes, nil
}

// withElement runs fn on the single element the control resolves to.
func (c *control) withElement(ctx context.Context, fn func(doc, n *html.Node) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.page.mu.Lock()
	defer c.page.mu.Unlock()

	nodes, err := c.resolveLocked()
	if err != nil {
		return fmt.Errorf("%s: %w", c.Description(), err)
	}
	switch len(nodes) {
	case 0:
		return fmt.Errorf("%s: %w", c.Description(), browser.ErrNoMatch)
	case 1:
		return fn(c.page.doc, nodes[0])
	default:
		return fmt.Errorf("%s resolved to %d elements: %w", c.Description(), len(nodes), browser.ErrAmbiguous)
	}
}

func (c *control) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	nodes, err := c.resolveLocked()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.Description(), err)
	}
	return len(nodes), nil
}

// WaitVisible evaluates visibility once. The document only changes through
// this page's own actions, so waiting cannot change the answer.
func (c *control) WaitVisible(ctx context.Context, _ time.Duration) error {
	return c.withElement(ctx, func(_, n *html.Node) error {
		if !isVisible(n) {
			return fmt.Errorf("%s: %w", c.Description(), browser.ErrNotVisible)
		}
		return nil
	})
}

// actionable applies the checks a browser runs before acting on an element.
func (c *control) actionable(n *html.Node) error {
	if !isVisible(n) {
		return fmt.Errorf("%s: %w", c.Description(), browser.ErrNotVisible)
	}
	if isDisabled(n) {
		return fmt.Errorf("%s: %w", c.Description(), errDisabled)
	}
	return nil
}

func (c *control) Fill(ctx context.Context, value string) error {
	return c.withElement(ctx, func(_, n *html.Node) error {
		if err := c.actionable(n); err != nil {
			return err
		}
		switch tagName(n) {
		case "input":
			switch t := inputType(n); t {
			case "checkbox", "radio", "submit", "button", "reset", "image", "file", "hidden", "range", "color":
				return fmt.Errorf("%s: input of type %q cannot be filled", c.Description(), t)
			}
			if hasAttr(n, "readonly") {
				return fmt.Errorf("%s: %w", c.Description(), errNotEditable)
			}
			setAttr(n, "value", value)
		case "textarea":
			if hasAttr(n, "readonly") {
				return fmt.Errorf("%s: %w", c.Description(), errNotEditable)
			}
			setTextareaValue(n, value)
		default:
			return fmt.Errorf("%s: element is not an <input>, <textarea> or [contenteditable] element", c.Description())
		}
		return nil
	})
}

func (c *control) SelectByLabel(ctx context.Context, label string) error {
	return c.selectOption(ctx, "label", label, optionLabel)
}

func (c *control) SelectByValue(ctx context.Context, value string) error {
	return c.selectOption(ctx, "value", value, optionValue)
}

func (c *control) selectOption(ctx context.Context, kind, want string, key func(*html.Node) string) error {
	return c.withElement(ctx, func(_, n *html.Node) error {
		if !isElement(n, "select") {
			return fmt.Errorf("%s: %w", c.Description(), errNotSelect)
		}
		if err := c.actionable(n); err != nil {
			return err
		}
		var match *html.Node
		for _, opt := range options(n) {
			if key(opt) == want && !hasAttr(opt, "disabled") {
				match = opt
				break
			}
		}
		if match == nil {
			return fmt.Errorf("%s: no option with %s %q", c.Description(), kind, want)
		}
		if !hasAttr(n, "multiple") {
			for _, opt := range options(n) {
				removeAttr(opt, "selected")
			}
		}
		setAttr(match, "selected", "")
		return nil
	})
}

func (c *control) SetChecked(ctx context.Context, checked, force bool) error {
	return c.withElement(ctx, func(doc, n *html.Node) error {
		t := inputType(n)
		if !isElement(n, "input") || (t != "checkbox" && t != "radio") {
			return fmt.Errorf("%s: %w", c.Description(), errNotCheckable)
		}
		if hasAttr(n, "checked") == checked {
			return nil
		}
		if !force {
			if err := c.actionable(n); err != nil {
				return err
			}
		}
		// Forcing skips the actionability checks, but a click on a disabled
		// control still does nothing.
		if isDisabled(n) {
			return fmt.Errorf("%s: %w", c.Description(), errStateUnchanged)
		}
		if t == "radio" && !checked {
			return fmt.Errorf("%s: %w", c.Description(), errCannotUncheckRB)
		}
		setChecked(doc, n, checked)
		return nil
	})
}

func (c *control) Click(ctx context.Context) error {
	return c.withElement(ctx, func(doc, n *html.Node) error {
		if err := c.actionable(n); err != nil {
			return err
		}
		if isElement(n, "input") {
			switch inputType(n) {
			case "checkbox":
				setChecked(doc, n, !hasAttr(n, "checked"))
				return nil
			case "radio":
				setChecked(doc, n, true)
				return nil
			}
		}
		if isSubmitButton(n) {
			c.page.submitLocked(doc, n)
		}
		return nil
	})
}

func (c *control) TagName(ctx context.Context) (tag string, err error) {
	err = c.withElement(ctx, func(_, n *html.Node) error {
		tag = tagName(n)
		return nil
	})
	return tag, err
}

func (c *control) IsDisabled(ctx context.Context) (disabled bool, err error) {
	err = c.withElement(ctx, func(_, n *html.Node) error {
		disabled = isDisabled(n)
		return nil
	})
	return disabled, err
}

func (c *control) IsChecked(ctx context.Context) (checked bool, err error) {
	err = c.withElement(ctx, func(_, n *html.Node) error {
		t := inputType(n)
		if !isElement(n, "input") || (t != "checkbox" && t != "radio") {
			return fmt.Errorf("%s: %w", c.Description(), errNotCheckable)
		}
		checked = hasAttr(n, "checked")
		return nil
	})
	return checked, err
}

func (c *control) IsRequired(ctx context.Context) (required bool, err error) {
	err = c.withElement(ctx, func(_, n *html.Node) error {
		required = isFormControl(n) && hasAttr(n, "required")
		return nil
	})
	return required, err
}

func (c *control) CheckValidity(ctx context.Context) (valid bool, err error) {
	err = c.withElement(ctx, func(doc, n *html.Node) error {
		valid = checkValidity(doc, n)
		return nil
	})
	return valid, err
}

// submitLocked emulates form submission: it only goes through when every
// control of the owning form satisfies its constraints.
func (p *Page) submitLocked(doc, button *html.Node) {
	form := formOf(doc, button)
	if form == nil || hasAttr(button, "formnovalidate") {
		p.submissions++
		return
	}
	if !hasAttr(form, "novalidate") {
		for _, n := range htmlquery.Find(form, ".//*[self::input or self::select or self::textarea]") {
			if !checkValidity(doc, n) {
				p.logger.Debug("Submission blocked by constraint validation.",
					zap.String("element", describeNode(n)))
				return
			}
		}
	}
	p.submissions++
}

func isSubmitButton(n *html.Node) bool {
	switch {
	case isElement(n, "button"):
		t := inputType(n)
		return t != "button" && t != "reset"
	case isElement(n, "input"):
		t := inputType(n)
		return t == "submit" || t == "image"
	}
	return false
}

func setChecked(doc, n *html.Node, checked bool) {
	if !checked {
		removeAttr(n, "checked")
		return
	}
	if inputType(n) == "radio" {
		for _, other := range radioGroup(doc, n) {
			removeAttr(other, "checked")
		}
	}
	setAttr(n, "checked", "")
}

func setTextareaValue(n *html.Node, value string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
}

// internal/browser/browser.go
package browser

import (
	"context"
	"errors"
	"regexp"
	"time"
)

// CSS selectors the form steps query directly.
const (
	// FormControls matches every input-like control inside a form, in document order.
	FormControls = "form input, form select, form textarea"
	// Checkboxes matches every checkbox on the page.
	Checkboxes = `input[type="checkbox"]`
)

var (
	// ErrNoMatch is returned when a control matches no element.
	ErrNoMatch = errors.New("no element matches")
	// ErrAmbiguous is returned when a single-element operation matches more
	// than one element. Call First to pick one.
	ErrAmbiguous = errors.New("more than one element matches")
	// ErrNotVisible is returned by WaitVisible when the element stays hidden.
	ErrNotVisible = errors.New("element is not visible")
	// ErrUnsupported is returned for operations a driver cannot emulate.
	ErrUnsupported = errors.New("operation not supported by driver")
)

// Control is a lazily evaluated handle on zero or more page elements. Every
// call re-queries the page; nothing is cached between calls.
type Control interface {
	// Description names the lookup for logs.
	Description() string
	Count(ctx context.Context) (int, error)
	// First narrows the control to its first match.
	First() Control
	// WaitVisible blocks until exactly one matching element is visible.
	WaitVisible(ctx context.Context, timeout time.Duration) error

	Fill(ctx context.Context, value string) error
	SelectByLabel(ctx context.Context, label string) error
	SelectByValue(ctx context.Context, value string) error
	SetChecked(ctx context.Context, checked, force bool) error
	Click(ctx context.Context) error

	TagName(ctx context.Context) (string, error)
	IsDisabled(ctx context.Context) (bool, error)
	IsChecked(ctx context.Context) (bool, error)
	IsRequired(ctx context.Context) (bool, error)
	// CheckValidity runs the element's native constraint validation.
	CheckValidity(ctx context.Context) (bool, error)
}

// Page is one browser tab (or its emulation) the steps drive.
type Page interface {
	ID() string
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error

	// ByLabel matches controls whose accessible label matches pattern.
	ByLabel(pattern *regexp.Regexp) Control
	// NearLabel matches the first input, select or textarea that follows,
	// in document order, a visible label containing text.
	NearLabel(text string) Control
	ByPlaceholder(pattern *regexp.Regexp) Control
	// Query matches a CSS selector. Drivers are only required to support
	// FormControls and Checkboxes.
	Query(selector string) Control
	// ButtonByName matches buttons whose accessible name matches pattern.
	ButtonByName(pattern *regexp.Regexp) Control

	Close(ctx context.Context) error
}

// Driver starts a browser backend and hands out pages.
type Driver interface {
	Name() string
	Start(ctx context.Context) error
	NewPage(ctx context.Context, id string) (Page, error)
	Stop(ctx context.Context) error
}

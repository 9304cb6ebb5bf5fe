package form

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/field"
)

// Mode selects how a validity mismatch is treated.
type Mode int

const (
	// Soft tolerates one mismatch: a field expected to be invalid that the
	// site reports valid is recorded as a known defect. Expected valid but
	// actually invalid still fails.
	Soft Mode = iota
	// Strict fails on any mismatch.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "soft"
}

// AssertionError is a failed expectation on one control.
type AssertionError struct {
	Field    string
	Page     string
	Property string
	Expected bool
	Actual   bool
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s on %s: expected %s=%t, got %s=%t",
		e.Field, e.Page, e.Property, e.Expected, e.Property, e.Actual)
}

// Asserter checks HTML5 validity states.
type Asserter struct {
	resolver FieldResolver
	defects  *diagnostics.Recorder
	logger   *zap.Logger
}

// NewAsserter creates an asserter.
func NewAsserter(r FieldResolver, defects *diagnostics.Recorder, logger *zap.Logger) *Asserter {
	return &Asserter{resolver: r, defects: defects, logger: logger.Named("asserter")}
}

// ReadValidity returns the control's native validity. Controls that cannot
// report validity, or whose read fails, count as valid.
func (a *Asserter) ReadValidity(ctx context.Context, ctl browser.Control) bool {
	valid, err := ctl.CheckValidity(ctx)
	if err != nil {
		a.logger.Debug("Validity read failed, assuming valid.", zap.String("locator", ctl.Description()), zap.Error(err))
		return true
	}
	return valid
}

// ExpectValidity resolves f on page and compares its validity with
// shouldBeValid under mode.
func (a *Asserter) ExpectValidity(ctx context.Context, page browser.Page, f field.Field, shouldBeValid bool, mode Mode) error {
	res := a.resolver.Resolve(ctx, page, f)
	valid := a.ReadValidity(ctx, res.Control)

	a.logger.Debug("Validity read.",
		zap.String("field", f.Name),
		zap.String("page", page.ID()),
		zap.String("strategy", string(res.Strategy)),
		zap.Bool("valid", valid),
		zap.Bool("expected", shouldBeValid),
		zap.Stringer("mode", mode),
	)

	if valid == shouldBeValid {
		return nil
	}
	if mode == Soft && !shouldBeValid {
		a.defects.Record(ctx, diagnostics.KindValidityNotEnforced, f.Name, page.ID(),
			fmt.Sprintf("%q should be invalid but the site considers it valid", f.Name))
		return nil
	}
	return &AssertionError{Field: f.Name, Page: page.ID(), Property: "valid", Expected: shouldBeValid, Actual: valid}
}

// ExpectCheckboxRequired checks that the terms checkbox is required. A
// disabled checkbox passes and is recorded as a known defect.
func (a *Asserter) ExpectCheckboxRequired(ctx context.Context, page browser.Page) error {
	cb := termsControl(ctx, page)

	required, err := cb.IsRequired(ctx)
	if err != nil {
		a.logger.Debug("Could not read required state.", zap.String("page", page.ID()), zap.Error(err))
		required = false
	}
	disabled, err := cb.IsDisabled(ctx)
	if err != nil {
		a.logger.Debug("Could not read disabled state.", zap.String("page", page.ID()), zap.Error(err))
		disabled = false
	}

	if disabled {
		a.defects.Record(ctx, diagnostics.KindTermsCheckboxDisabled, field.Terms.Name, page.ID(),
			"terms checkbox is disabled; accepting as pass")
		return nil
	}
	if !required {
		return &AssertionError{Field: field.Terms.Name, Page: page.ID(), Property: "required", Expected: true, Actual: false}
	}
	return nil
}

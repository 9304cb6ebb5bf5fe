// Package form fills the registration form and asserts its validity states
// on top of the field resolver.
package form

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/field"
	"github.com/xkilldash9x/formprobe/internal/resolver"
)

// FieldResolver locates the control for a field.
type FieldResolver interface {
	Resolve(ctx context.Context, page browser.Page, f field.Field) resolver.Resolution
}

// Filler types a Data record into the form.
type Filler struct {
	resolver FieldResolver
	defects  *diagnostics.Recorder
	logger   *zap.Logger
}

// NewFiller creates a filler.
func NewFiller(r FieldResolver, defects *diagnostics.Recorder, logger *zap.Logger) *Filler {
	return &Filler{resolver: r, defects: defects, logger: logger.Named("filler")}
}

// Fill populates every field of page with data, in form order. Controls are
// resolved afresh for each field.
func (f *Filler) Fill(ctx context.Context, page browser.Page, data Data) error {
	text := []struct {
		field field.Field
		value string
	}{
		{field.FirstName, data.FirstName},
		{field.LastName, data.LastName},
		{field.Phone, data.Phone},
	}
	for _, t := range text {
		if err := f.fillText(ctx, page, t.field, t.value); err != nil {
			return err
		}
	}

	if err := f.fillCountry(ctx, page, data.Country); err != nil {
		return err
	}

	if err := f.fillText(ctx, page, field.Email, data.Email); err != nil {
		return err
	}
	if err := f.fillText(ctx, page, field.Password, data.Password); err != nil {
		return err
	}

	return f.setTerms(ctx, page, data.AcceptTerms)
}

func (f *Filler) fillText(ctx context.Context, page browser.Page, fd field.Field, value string) error {
	res := f.resolver.Resolve(ctx, page, fd)
	if err := res.Control.Fill(ctx, value); err != nil {
		return fmt.Errorf("failed to fill %s on %s (%s): %w", fd.Name, page.ID(), res.Strategy, err)
	}
	return nil
}

// fillCountry selects by visible label when the control is a <select>,
// retrying by option value, and types the value otherwise.
func (f *Filler) fillCountry(ctx context.Context, page browser.Page, country string) error {
	res := f.resolver.Resolve(ctx, page, field.Country)
	ctl := res.Control

	tag, err := ctl.TagName(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect %s on %s: %w", field.Country.Name, page.ID(), err)
	}
	if !strings.EqualFold(tag, "select") {
		if err := ctl.Fill(ctx, country); err != nil {
			return fmt.Errorf("failed to fill %s on %s: %w", field.Country.Name, page.ID(), err)
		}
		return nil
	}

	if err := ctl.SelectByLabel(ctx, country); err != nil {
		f.logger.Debug("Select by label failed, trying by value.",
			zap.String("page", page.ID()), zap.String("country", country), zap.Error(err))
		if err := ctl.SelectByValue(ctx, country); err != nil {
			return fmt.Errorf("failed to select %s %q on %s: %w", field.Country.Name, country, page.ID(), err)
		}
	}
	return nil
}

// setTerms brings the terms checkbox to the wanted state. A disabled
// checkbox is left untouched and reported as a known defect.
func (f *Filler) setTerms(ctx context.Context, page browser.Page, accept bool) error {
	terms := termsControl(ctx, page)

	disabled, err := terms.IsDisabled(ctx)
	if err != nil {
		f.logger.Debug("Could not read terms disabled state.", zap.String("page", page.ID()), zap.Error(err))
		disabled = false
	}
	checked, err := terms.IsChecked(ctx)
	if err != nil {
		f.logger.Debug("Could not read terms checked state.", zap.String("page", page.ID()), zap.Error(err))
		checked = false
	}

	if disabled {
		f.defects.Record(ctx, diagnostics.KindTermsCheckboxDisabled, field.Terms.Name, page.ID(),
			"terms checkbox is disabled; leaving it unchanged")
		return nil
	}
	if accept == checked {
		return nil
	}
	if err := terms.SetChecked(ctx, accept, true); err != nil {
		return fmt.Errorf("failed to set %s to %t on %s: %w", field.Terms.Name, accept, page.ID(), err)
	}
	return nil
}

// termsControl prefers the checkbox labelled as the terms, then any checkbox.
func termsControl(ctx context.Context, page browser.Page) browser.Control {
	byLabel := page.ByLabel(field.Terms.LabelPattern).First()
	if n, err := byLabel.Count(ctx); err == nil && n > 0 {
		return byLabel
	}
	return page.Query(browser.Checkboxes).First()
}

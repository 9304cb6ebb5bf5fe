package form_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/browser/static"
	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/field"
	"github.com/xkilldash9x/formprobe/internal/form"
	"github.com/xkilldash9x/formprobe/internal/resolver"
	"github.com/xkilldash9x/formprobe/internal/testing/bugsform"
)

type replica struct {
	page     *static.Page
	filler   *form.Filler
	asserter *form.Asserter
	defects  *diagnostics.Recorder
}

func newReplica(t *testing.T) *replica {
	t.Helper()
	logger := zaptest.NewLogger(t)
	server := bugsform.NewServer(t)
	ctx := context.Background()

	driver := static.NewDriver(config.NewDefaultConfig().Browser, nil, logger)
	require.NoError(t, driver.Start(ctx))
	t.Cleanup(func() { _ = driver.Stop(context.Background()) })
	p, err := driver.NewPage(ctx, "page-1")
	require.NoError(t, err)
	require.NoError(t, p.Navigate(ctx, server.FormURL()))

	r := resolver.New(logger, resolver.DefaultAttemptTimeout)
	defects := diagnostics.NewRecorder(logger)
	return &replica{
		page:     p.(*static.Page),
		filler:   form.NewFiller(r, defects, logger),
		asserter: form.NewAsserter(r, defects, logger),
		defects:  defects,
	}
}

func TestDefaultsSubmitAndPhoneIsValid(t *testing.T) {
	rp := newReplica(t)
	ctx := context.Background()

	require.NoError(t, rp.filler.Fill(ctx, rp.page, form.Defaults()))
	require.NoError(t, rp.page.ButtonByName(field.RegisterButton).Click(ctx))

	assert.Equal(t, 1, rp.page.Submissions())
	assert.NoError(t, rp.asserter.ExpectValidity(ctx, rp.page, field.Phone, true, form.Soft))

	defects := rp.defects.Defects()
	require.Len(t, defects, 1, "the replica's terms checkbox is disabled")
	assert.Equal(t, diagnostics.KindTermsCheckboxDisabled, defects[0].Kind)
}

func TestMissingLastNameIsInvalid(t *testing.T) {
	rp := newReplica(t)
	ctx := context.Background()

	data := form.Merge(form.Defaults(), form.Overrides{LastName: form.String("")})
	require.NoError(t, rp.filler.Fill(ctx, rp.page, data))
	require.NoError(t, rp.page.ButtonByName(field.RegisterButton).Click(ctx))

	assert.Zero(t, rp.page.Submissions())
	assert.NoError(t, rp.asserter.ExpectValidity(ctx, rp.page, field.LastName, false, form.Soft))
	assert.NoError(t, rp.asserter.ExpectValidity(ctx, rp.page, field.LastName, false, form.Strict))
}

func TestShortPhoneIsAKnownDefect(t *testing.T) {
	rp := newReplica(t)
	ctx := diagnostics.WithScenario(context.Background(), "short phone")

	data := form.Merge(form.Defaults(), form.Overrides{Phone: form.String("123")})
	require.NoError(t, rp.filler.Fill(ctx, rp.page, data))

	require.NoError(t, rp.asserter.ExpectValidity(ctx, rp.page, field.Phone, false, form.Soft))
	var kinds []diagnostics.Kind
	for _, d := range rp.defects.Defects() {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, diagnostics.KindValidityNotEnforced)

	err := rp.asserter.ExpectValidity(ctx, rp.page, field.Phone, false, form.Strict)
	var ae *form.AssertionError
	assert.ErrorAs(t, err, &ae)
}

func TestCountrySelectionAndTerms(t *testing.T) {
	rp := newReplica(t)
	ctx := context.Background()

	data := form.Merge(form.Defaults(), form.Overrides{Country: form.String("Brazil"), AcceptTerms: form.Bool(true)})
	require.NoError(t, rp.filler.Fill(ctx, rp.page, data))

	assert.NoError(t, rp.asserter.ExpectValidity(ctx, rp.page, field.Country, true, form.Strict))
	assert.NoError(t, rp.asserter.ExpectCheckboxRequired(ctx, rp.page))

	checked, err := rp.page.Query(browser.Checkboxes).First().IsChecked(ctx)
	require.NoError(t, err)
	assert.False(t, checked, "a disabled checkbox is never toggled")
	assert.Equal(t, 2, rp.defects.Len())
}

func TestEmailFoundByPlaceholder(t *testing.T) {
	rp := newReplica(t)
	ctx := context.Background()

	data := form.Merge(form.Defaults(), form.Overrides{Email: form.String("abel.diaz")})
	require.NoError(t, rp.filler.Fill(ctx, rp.page, data))
	assert.NoError(t, rp.asserter.ExpectValidity(ctx, rp.page, field.Email, false, form.Strict))
}

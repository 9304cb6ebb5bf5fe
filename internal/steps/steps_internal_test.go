package steps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/field"
	"github.com/xkilldash9x/formprobe/internal/form"
	"github.com/xkilldash9x/formprobe/internal/mocks"
	"github.com/xkilldash9x/formprobe/internal/resolver"
)

type fixedPages []browser.Page

func (f fixedPages) Pages() []browser.Page { return f }

func mockPage(id string) *mocks.MockPage {
	p := new(mocks.MockPage)
	p.On("ID").Return(id).Maybe()
	return p
}

func newTestSuite(t *testing.T, baseURL string, pages ...browser.Page) *Suite {
	return NewSuite(Deps{
		BaseURL: baseURL,
		Pages:   fixedPages(pages),
		Logger:  zaptest.NewLogger(t),
	})
}

func TestOpenForm_MissingBaseURL(t *testing.T) {
	p := mockPage("page-1")
	s := newTestSuite(t, "", p)

	err := s.openForm(context.Background())
	assert.ErrorIs(t, err, config.ErrMissingBaseURL)
	p.AssertNotCalled(t, "Navigate", mock.Anything, mock.Anything)
}

func TestEachPage_StopsAtFirstFailure(t *testing.T) {
	p1, p2 := mockPage("page-1"), mockPage("page-2")
	p1.On("Navigate", mock.Anything, "http://form.test").Return(errors.New("net down")).Once()
	s := newTestSuite(t, "http://form.test", p1, p2)

	err := s.openForm(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "navigate on page-1")
	assert.Contains(t, err.Error(), "net down")
	p1.AssertExpectations(t)
	p2.AssertNotCalled(t, "Navigate", mock.Anything, mock.Anything)
}

func TestEachPage_NoPages(t *testing.T) {
	s := newTestSuite(t, "http://form.test")
	assert.EqualError(t, s.refresh(context.Background()), "no browser pages are open")
}

func TestClickRegister_EveryPage(t *testing.T) {
	var pages []browser.Page
	var buttons []*mocks.MockControl
	for _, id := range []string{"page-1", "page-2"} {
		btn := new(mocks.MockControl)
		btn.On("Click", mock.Anything).Return(nil).Once()
		p := mockPage(id)
		p.On("ButtonByName", field.RegisterButton).Return(btn).Once()
		pages = append(pages, p)
		buttons = append(buttons, btn)
	}
	s := newTestSuite(t, "http://form.test", pages...)

	require.NoError(t, s.clickRegister(context.Background()))
	for _, b := range buttons {
		b.AssertExpectations(t)
	}
}

func TestFieldShouldBe_UnknownNames(t *testing.T) {
	s := newTestSuite(t, "http://form.test", mockPage("page-1"))
	assert.ErrorContains(t, s.fieldShouldBe(context.Background(), "Zip", "valid"), "unknown field")
	assert.ErrorContains(t, s.fieldShouldBe(context.Background(), "Phone", "maybe"), "unknown validity")
}

func TestFieldNames_CoverBothLanguages(t *testing.T) {
	assert.Equal(t, field.Phone, fieldNames["Teléfono"])
	assert.Equal(t, field.Password, fieldNames["Contraseña"])
	assert.Equal(t, field.Country, fieldNames["País"])
	assert.Equal(t, field.FirstName, fieldNames["Nombre"])
	assert.Equal(t, fieldNames["Apellido"], fieldNames["Last Name"])
	assert.True(t, validityWords["válido"])
	assert.False(t, validityWords["inválido"])
}

func TestNewPacer(t *testing.T) {
	unlimited := NewPacer(0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 100; i++ {
		require.NoError(t, unlimited.Wait(ctx))
	}

	paced := NewPacer(2)
	require.NoError(t, paced.Wait(ctx), "the first action uses the burst")
	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	assert.Error(t, paced.Wait(short), "the next action must wait about 500ms")
}

func TestWorldFrom(t *testing.T) {
	fresh := WorldFrom(context.Background())
	require.NotNil(t, fresh)
	assert.False(t, fresh.Filled)

	w := &World{Scenario: "s"}
	assert.Same(t, w, WorldFrom(withWorld(context.Background(), w)))
}

type fixedResolver struct{ ctl browser.Control }

func (r fixedResolver) Resolve(context.Context, browser.Page, field.Field) resolver.Resolution {
	return resolver.Resolution{Control: r.ctl, Strategy: resolver.StrategyLabel}
}

func TestFieldShouldBe_LogsLastFilledValue(t *testing.T) {
	ctl := new(mocks.MockControl)
	ctl.On("CheckValidity", mock.Anything).Return(false, nil)
	page := mockPage("page-1")

	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	s := NewSuite(Deps{
		BaseURL:  "http://form.test",
		Pages:    fixedPages{page},
		Asserter: form.NewAsserter(fixedResolver{ctl}, diagnostics.NewRecorder(logger), logger),
		Logger:   logger,
	})

	w := &World{Scenario: "Short phone", Last: form.Merge(form.Defaults(), form.Overrides{Phone: form.String("12")}), Filled: true}
	ctx := withWorld(context.Background(), w)

	err := s.fieldShouldBe(ctx, "Phone", "valid")
	var assertErr *form.AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "Phone", assertErr.Field)

	entries := logs.FilterMessage("Validity expectation failed.").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Short phone", fields["scenario"])
	assert.Equal(t, "12", fields["filled_value"])
	assert.Equal(t, "page-1", fields["page"])
}

func TestFieldShouldBe_NothingFilledYet(t *testing.T) {
	ctl := new(mocks.MockControl)
	ctl.On("CheckValidity", mock.Anything).Return(false, nil)

	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	s := NewSuite(Deps{
		Pages:    fixedPages{mockPage("page-1")},
		Asserter: form.NewAsserter(fixedResolver{ctl}, diagnostics.NewRecorder(logger), logger),
		Logger:   logger,
	})

	ctx := withWorld(context.Background(), &World{Scenario: "Untouched"})
	require.Error(t, s.fieldShouldBe(ctx, "Email", "valid"))

	entries := logs.FilterMessage("Validity expectation failed.").All()
	require.Len(t, entries, 1)
	assert.Equal(t, false, entries[0].ContextMap()["filled"])
	assert.NotContains(t, entries[0].ContextMap(), "filled_value")
}

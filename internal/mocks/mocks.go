// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"regexp"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/formprobe/internal/browser"
)

var (
	_ browser.Control = (*MockControl)(nil)
	_ browser.Page    = (*MockPage)(nil)
	_ browser.Driver  = (*MockDriver)(nil)
)

// -- Control Mock --

// MockControl mocks browser.Control.
type MockControl struct {
	mock.Mock
}

func (m *MockControl) Description() string { return m.Called().String(0) }
func (m *MockControl) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *MockControl) First() browser.Control {
	return m.Called().Get(0).(browser.Control)
}
func (m *MockControl) WaitVisible(ctx context.Context, timeout time.Duration) error {
	return m.Called(ctx, timeout).Error(0)
}
func (m *MockControl) Fill(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}
func (m *MockControl) SelectByLabel(ctx context.Context, label string) error {
	return m.Called(ctx, label).Error(0)
}
func (m *MockControl) SelectByValue(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}
func (m *MockControl) SetChecked(ctx context.Context, checked, force bool) error {
	return m.Called(ctx, checked, force).Error(0)
}
func (m *MockControl) Click(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockControl) TagName(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockControl) IsDisabled(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
func (m *MockControl) IsChecked(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
func (m *MockControl) IsRequired(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
func (m *MockControl) CheckValidity(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// -- Page Mock --

// MockPage mocks browser.Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) ID() string { return m.Called().String(0) }
func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}
func (m *MockPage) Reload(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockPage) ByLabel(pattern *regexp.Regexp) browser.Control {
	return m.Called(pattern).Get(0).(browser.Control)
}
func (m *MockPage) NearLabel(text string) browser.Control {
	return m.Called(text).Get(0).(browser.Control)
}
func (m *MockPage) ByPlaceholder(pattern *regexp.Regexp) browser.Control {
	return m.Called(pattern).Get(0).(browser.Control)
}
func (m *MockPage) Query(selector string) browser.Control {
	return m.Called(selector).Get(0).(browser.Control)
}
func (m *MockPage) ButtonByName(pattern *regexp.Regexp) browser.Control {
	return m.Called(pattern).Get(0).(browser.Control)
}
func (m *MockPage) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }

// -- Driver Mock --

// MockDriver mocks browser.Driver.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Name() string                    { return m.Called().String(0) }
func (m *MockDriver) Start(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockDriver) NewPage(ctx context.Context, id string) (browser.Page, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(browser.Page), args.Error(1)
}
func (m *MockDriver) Stop(ctx context.Context) error { return m.Called(ctx).Error(0) }

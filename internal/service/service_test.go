package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/browser/cdp"
	"github.com/xkilldash9x/formprobe/internal/browser/pw"
	"github.com/xkilldash9x/formprobe/internal/browser/static"
	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/field"
	"github.com/xkilldash9x/formprobe/internal/mocks"
	"github.com/xkilldash9x/formprobe/internal/resolver"
	"github.com/xkilldash9x/formprobe/internal/testing/bugsform"
)

func TestNewDriver(t *testing.T) {
	logger := zap.NewNop()
	cfg := config.NewDefaultConfig().Browser

	tests := []struct {
		driver string
		want   interface{}
	}{
		{config.DriverPlaywright, &pw.Driver{}},
		{config.DriverChromedp, &cdp.Driver{}},
		{config.DriverStatic, &static.Driver{}},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg.Driver = tt.driver
			d, err := NewDriver(cfg, logger)
			require.NoError(t, err)
			assert.IsType(t, tt.want, d)
			assert.Equal(t, tt.driver, d.Name())
		})
	}

	cfg.Driver = "selenium"
	_, err := NewDriver(cfg, logger)
	assert.ErrorContains(t, err, "unknown browser driver")
}

func testConfig(baseURL string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Target.BaseURL = baseURL
	cfg.Browser.Driver = config.DriverStatic
	cfg.Browser.Pages = 2
	return cfg
}

func TestCreate_StaticDriver(t *testing.T) {
	server := bugsform.NewServer(t)
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	c, err := NewComponentFactory().Create(ctx, testConfig(server.FormURL()), logger)
	require.NoError(t, err)
	defer c.Shutdown()

	pages := c.Manager.Pages()
	require.Len(t, pages, 2)
	require.NoError(t, pages[1].Navigate(ctx, server.FormURL()))

	res := c.Resolver.Resolve(ctx, pages[1], field.LastName)
	assert.Equal(t, resolver.StrategyAdjacency, res.Strategy)
	assert.NotNil(t, c.Steps)
	assert.Zero(t, c.Defects.Len())
}

func TestCreate_InvalidConfig(t *testing.T) {
	_, err := NewComponentFactory().Create(context.Background(), testConfig(""), zap.NewNop())
	assert.ErrorIs(t, err, config.ErrMissingBaseURL)
}

func TestCreate_DriverStartFailure(t *testing.T) {
	driver := new(mocks.MockDriver)
	driver.On("Name").Return("fake")
	driver.On("Start", mock.Anything).Return(errors.New("no chrome"))

	factory := NewComponentFactoryWithDriver(func(config.BrowserConfig, *zap.Logger) (browser.Driver, error) {
		return driver, nil
	})
	_, err := factory.Create(context.Background(), testConfig("http://form.test"), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chrome")
	driver.AssertExpectations(t)
}

func TestComponents_ShutdownWithoutManager(t *testing.T) {
	assert.NotPanics(t, func() { (&Components{logger: zap.NewNop()}).Shutdown() })
}

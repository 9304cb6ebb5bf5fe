package steps_test

import (
	"context"
	"io"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/browser/static"
	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/form"
	"github.com/xkilldash9x/formprobe/internal/resolver"
	"github.com/xkilldash9x/formprobe/internal/steps"
	"github.com/xkilldash9x/formprobe/internal/testing/bugsform"
)

// TestFeatures runs every feature file against the local replica with the
// static driver.
func TestFeatures(t *testing.T) {
	logger := zaptest.NewLogger(t)
	server := bugsform.NewServer(t)
	cfg := config.NewDefaultConfig()

	manager := browser.NewManager(static.NewDriver(cfg.Browser, nil, logger), logger)
	_, err := manager.Open(context.Background(), 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	r := resolver.New(logger, cfg.Resolver.AttemptTimeout)
	defects := diagnostics.NewRecorder(logger)
	suite := steps.NewSuite(steps.Deps{
		BaseURL:  server.FormURL(),
		Pages:    manager,
		Filler:   form.NewFiller(r, defects, logger),
		Asserter: form.NewAsserter(r, defects, logger),
		Logger:   logger,
	})

	status := godog.TestSuite{
		Name:                "bugs-form",
		ScenarioInitializer: suite.InitializeScenario,
		Options: &godog.Options{
			Format:   "progress",
			Output:   io.Discard,
			Paths:    []string{"../../features"},
			Strict:   true,
			TestingT: t,
		},
	}.Run()
	require.Zero(t, status, "feature run failed")

	var phone []diagnostics.Defect
	kinds := map[diagnostics.Kind]int{}
	for _, d := range defects.Defects() {
		kinds[d.Kind]++
		assert.NotEmpty(t, d.Scenario)
		if d.Kind == diagnostics.KindValidityNotEnforced {
			phone = append(phone, d)
		}
	}
	assert.Positive(t, kinds[diagnostics.KindTermsCheckboxDisabled])

	// The short phone scenarios (one per language) are the only tolerated
	// validation gaps, observed on both pages.
	require.Len(t, phone, 4)
	for _, d := range phone {
		assert.Equal(t, "Phone", d.Field)
	}
	assert.Positive(t, server.Hits())
}

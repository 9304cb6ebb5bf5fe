package resolver_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/formprobe/internal/browser/static"
	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/field"
	"github.com/xkilldash9x/formprobe/internal/resolver"
	"github.com/xkilldash9x/formprobe/internal/testing/bugsform"
)

func TestResolveAgainstReplica(t *testing.T) {
	server := bugsform.NewServer(t)
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	driver := static.NewDriver(config.NewDefaultConfig().Browser, nil, logger)
	require.NoError(t, driver.Start(ctx))
	t.Cleanup(func() { _ = driver.Stop(context.Background()) })
	page, err := driver.NewPage(ctx, "page-1")
	require.NoError(t, err)
	require.NoError(t, page.Navigate(ctx, server.FormURL()))

	r := resolver.New(logger, resolver.DefaultAttemptTimeout)

	tests := []struct {
		field    field.Field
		strategy resolver.Strategy
		tag      string
	}{
		{field.FirstName, resolver.StrategyLabel, "input"},
		{field.LastName, resolver.StrategyAdjacency, "input"},
		{field.Phone, resolver.StrategyLabel, "input"},
		{field.Country, resolver.StrategyLabel, "select"},
		{field.Email, resolver.StrategyPlaceholder, "input"},
		{field.Password, resolver.StrategyLabel, "input"},
		{field.Field{
			Name:               "Zip",
			LabelPattern:       regexp.MustCompile(`(?i)zip`),
			LabelText:          "Zip code",
			PlaceholderPattern: regexp.MustCompile(`(?i)zip`),
		}, resolver.StrategyFallback, "input"},
	}
	for _, tt := range tests {
		t.Run(tt.field.Name, func(t *testing.T) {
			res := r.Resolve(ctx, page, tt.field)
			assert.Equal(t, tt.strategy, res.Strategy)

			tag, err := res.Control.TagName(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, tag)
		})
	}
}

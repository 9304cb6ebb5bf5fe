package static

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/formprobe/internal/config"
)

func mustParse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

// pageFromHTML builds a page around markup without any HTTP round trip.
func pageFromHTML(t *testing.T, markup string) *Page {
	t.Helper()
	d := NewDriver(config.NewDefaultConfig().Browser, nil, zaptest.NewLogger(t))
	return &Page{id: "inline", driver: d, logger: d.logger, url: "about:blank", doc: mustParse(t, markup)}
}

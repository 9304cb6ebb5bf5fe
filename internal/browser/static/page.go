package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/formprobe/internal/browser"
)

// maxDocumentSize caps how much of a response body is parsed.
const maxDocumentSize = 10 << 20

var errNotNavigated = errors.New("page has not been navigated")

// Page is a parsed document plus the form state mutated by controls.
type Page struct {
	id     string
	driver *Driver
	logger *zap.Logger

	mu          sync.Mutex
	url         string
	doc         *html.Node
	submissions int
	closed      bool
}

var _ browser.Page = (*Page)(nil)

func (p *Page) ID() string { return p.id }

// Navigate fetches url and replaces the document, discarding all form state.
func (p *Page) Navigate(ctx context.Context, url string) error {
	doc, err := p.fetch(ctx, url)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("page is closed")
	}
	p.url = url
	p.doc = doc
	p.submissions = 0
	p.logger.Debug("Navigated.", zap.String("url", url))
	return nil
}

// Reload fetches the current URL again.
func (p *Page) Reload(ctx context.Context) error {
	p.mu.Lock()
	url := p.url
	p.mu.Unlock()
	if url == "" {
		return errNotNavigated
	}
	return p.Navigate(ctx, url)
}

func (p *Page) fetch(ctx context.Context, url string) (*html.Node, error) {
	if p.driver.client == nil {
		return nil, errors.New("static driver has not been started")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if ua := p.driver.cfg.StaticUserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := p.driver.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("failed to navigate to %s: status %s", url, resp.Status)
	}

	doc, err := htmlquery.Parse(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return doc, nil
}

// Submissions counts Register clicks that passed constraint validation since
// the last navigation.
func (p *Page) Submissions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submissions
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.doc = nil
	return nil
}

func (p *Page) ByLabel(pattern *regexp.Regexp) browser.Control {
	return p.control(fmt.Sprintf("label=%s", pattern), func(doc *html.Node) ([]*html.Node, error) {
		return byLabel(doc, pattern), nil
	})
}

func (p *Page) NearLabel(text string) browser.Control {
	return p.control(fmt.Sprintf("near-label=%q", text), func(doc *html.Node) ([]*html.Node, error) {
		return nearLabel(doc, text), nil
	})
}

func (p *Page) ByPlaceholder(pattern *regexp.Regexp) browser.Control {
	return p.control(fmt.Sprintf("placeholder=%s", pattern), func(doc *html.Node) ([]*html.Node, error) {
		return byPlaceholder(doc, pattern), nil
	})
}

func (p *Page) Query(selector string) browser.Control {
	return p.control(fmt.Sprintf("css=%s", selector), func(doc *html.Node) ([]*html.Node, error) {
		expr, ok := cssToXPath[strings.TrimSpace(selector)]
		if !ok {
			return nil, fmt.Errorf("selector %q: %w", selector, browser.ErrUnsupported)
		}
		return htmlquery.QueryAll(doc, expr)
	})
}

func (p *Page) ButtonByName(pattern *regexp.Regexp) browser.Control {
	return p.control(fmt.Sprintf("role=button[name=%s]", pattern), func(doc *html.Node) ([]*html.Node, error) {
		return buttonsByName(doc, pattern), nil
	})
}

func (p *Page) control(desc string, find finder) *control {
	return &control{page: p, desc: desc, find: find}
}

// Package static is an in-process browser emulation over parsed HTML. It
// fetches the page once per navigation, answers the same lookups as a real
// browser from the DOM tree and emulates fill, select, check and HTML5
// constraint validation. Scripts never run, so it suits server-rendered
// forms and hermetic tests.
package static

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/config"
)

// Driver implements browser.Driver without a browser process.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
	client *http.Client
}

var _ browser.Driver = (*Driver)(nil)

// NewDriver creates a static driver. client may be nil.
func NewDriver(cfg config.BrowserConfig, client *http.Client, logger *zap.Logger) *Driver {
	return &Driver{
		cfg:    cfg,
		logger: logger.Named("driver.static"),
		client: client,
	}
}

func (d *Driver) Name() string { return config.DriverStatic }

// Start builds the HTTP client used for navigation.
func (d *Driver) Start(ctx context.Context) error {
	if d.client != nil {
		return nil
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	// Decoding is handled by decompressingTransport.
	base.DisableCompression = true
	if d.cfg.IgnoreTLSErrors {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	timeout := d.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	d.client = &http.Client{
		Transport: &decompressingTransport{base: base},
		Timeout:   timeout,
	}
	return nil
}

func (d *Driver) NewPage(ctx context.Context, id string) (browser.Page, error) {
	return &Page{
		id:     id,
		driver: d,
		logger: d.logger.With(zap.String("page", id)),
	}, nil
}

// Stop releases idle connections.
func (d *Driver) Stop(ctx context.Context) error {
	if d.client != nil {
		d.client.CloseIdleConnections()
	}
	return nil
}

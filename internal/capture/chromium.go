// Package capture renders the print view to a PNG through headless
// Chromium.
package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/persist"
)

// Default viewport, roughly an A4 page at 96 dpi in landscape.
const (
	DefaultWidth   = 1123
	DefaultHeight  = 794
	DefaultTimeout = 30 * time.Second
)

// ReadySelector matches the print view root once it is rendered.
const ReadySelector = `[data-ready="true"]`

type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/print?view=week".
	URL string
	// OutputPath receives the PNG (0600).
	OutputPath string

	Width   int
	Height  int
	Timeout time.Duration

	// Username and Password are sent as HTTP basic auth when set.
	Username string
	Password string
}

// PNG navigates to opts.URL, waits for ReadySelector and writes a full-page
// screenshot to opts.OutputPath.
func PNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{network.Enable()}
	if opts.Username != "" {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{
			"Authorization": BasicAuthHeader(opts.Username, opts.Password),
		}))
	}
	tasks = append(tasks,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := persist.WriteFileAtomic(opts.OutputPath, png); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("capture written", "path", opts.OutputPath, "bytes", len(png), "took", time.Since(start).String())
	return nil
}

// BasicAuthHeader returns the Authorization header value for user:pass.
func BasicAuthHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

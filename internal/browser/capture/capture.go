// internal/browser/capture/capture.go
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/floatgeo/api/schemas"
	"github.com/xkilldash9x/floatgeo/internal/config"
	"github.com/xkilldash9x/floatgeo/internal/snapshot"
)

// ErrCaptureTimeout is returned when a capture exceeds the navigation timeout.
var ErrCaptureTimeout = errors.New("page capture timed out")

const startupTimeout = 30 * time.Second

// Request describes one page to capture.
type Request struct {
	URL string
	// WaitVisible is an optional CSS selector that must be visible before the
	// page is serialized.
	WaitVisible string
}

// Capturer owns a headless Chrome process and turns live pages into
// snapshots. Each capture runs in its own tab.
type Capturer struct {
	logger *zap.Logger
	cfg    config.BrowserConfig
	script string

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	closeOnce sync.Once
}

// New launches the browser and verifies it responds. The browser lives until
// Close is called or ctx is done.
func New(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Capturer, error) {
	script, err := Script()
	if err != nil {
		return nil, err
	}
	c := &Capturer{
		logger: logger.Named("capture"),
		cfg:    cfg,
		script: script,
	}

	c.logger.Info("Initializing browser allocator...", zap.Bool("headless", cfg.Headless))
	c.allocatorCtx, c.allocatorCancel = chromedp.NewExecAllocator(ctx, buildAllocatorOptions(cfg)...)
	c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocatorCtx)

	// The first Run allocates the browser, so a context timeout here would
	// kill the process after startup. Cancel on a timer instead.
	timer := time.AfterFunc(startupTimeout, c.browserCancel)
	err = chromedp.Run(c.browserCtx, chromedp.Navigate("about:blank"))
	if !timer.Stop() {
		err = fmt.Errorf("browser did not respond within %s: %w", startupTimeout, context.DeadlineExceeded)
	}
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	c.logger.Info("Browser launched successfully and is responsive.")
	return c, nil
}

// allocatorFlag is one command line switch for the browser process.
type allocatorFlag struct {
	name  string
	value interface{}
}

// allocatorFlags lists the switches derived from cfg on top of the chromedp
// defaults.
func allocatorFlags(cfg config.BrowserConfig, goos string) []allocatorFlag {
	flags := []allocatorFlag{
		{"enable-automation", false},
		{"headless", cfg.Headless},
		{"ignore-certificate-errors", cfg.IgnoreTLSErrors},
		{"disable-extensions", true},
		{"disable-gpu", cfg.Headless},
		{"hide-scrollbars", false},
	}

	// Custom arguments from config.yaml, "--name=value" or "--name".
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags = append(flags, allocatorFlag{name, parts[1]})
		} else {
			flags = append(flags, allocatorFlag{name, true})
		}
	}

	// Containers (e.g. Docker on Linux) need these.
	if goos == "linux" {
		flags = append(flags,
			allocatorFlag{"no-sandbox", true},
			allocatorFlag{"disable-dev-shm-usage", true},
			allocatorFlag{"disable-setuid-sandbox", true},
		)
	}
	return flags
}

func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range allocatorFlags(cfg, runtime.GOOS) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	width, height := cfg.ViewportSize()
	opts = append(opts, chromedp.WindowSize(width, height))
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Capture loads req.URL in a fresh tab and serializes its geometry. The tab is
// closed when Capture returns.
func (c *Capturer) Capture(ctx context.Context, req Request) (*schemas.PageSnapshot, error) {
	if req.URL == "" {
		return nil, errors.New("capture URL is required")
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	opCtx, cancel := context.WithTimeout(tabCtx, c.cfg.NavigationTimeout)
	defer cancel()

	var raw []byte
	if err := chromedp.Run(opCtx, c.tasks(req, &raw)); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("capture of %s canceled: %w", req.URL, ctx.Err())
		}
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrCaptureTimeout, req.URL, c.cfg.NavigationTimeout)
		}
		return nil, fmt.Errorf("failed to capture %s: %w", req.URL, err)
	}

	snap, err := decodeResult(raw, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to decode capture of %s: %w", req.URL, err)
	}
	c.logger.Info("Page captured",
		zap.String("url", snap.URL),
		zap.String("snapshot_id", snap.ID),
		zap.Int("nodes", len(snap.Root.Nodes)),
	)
	return snap, nil
}

func (c *Capturer) tasks(req Request, raw *[]byte) chromedp.Tasks {
	width, height := c.cfg.ViewportSize()
	tasks := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(int64(width), int64(height), c.cfg.DeviceScaleFactor, false),
		chromedp.Navigate(req.URL),
	}
	if req.WaitVisible != "" {
		tasks = append(tasks, chromedp.WaitVisible(req.WaitVisible, chromedp.ByQuery))
	}
	if c.cfg.SettleWait > 0 {
		tasks = append(tasks, chromedp.Sleep(c.cfg.SettleWait))
	}
	return append(tasks, chromedp.Evaluate(c.script, raw, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
}

// decodeResult turns the serializer's JSON into a validated snapshot stamped
// with a fresh ID.
func decodeResult(raw []byte, now time.Time) (*schemas.PageSnapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New("serializer returned no result")
	}
	snap, err := snapshot.Decode(bytes.NewReader(trimmed))
	if err != nil {
		return nil, err
	}
	snap.ID = uuid.NewString()
	snap.Engine = schemas.EngineBlink
	snap.CapturedAt = now.UTC()
	if _, err := snapshot.NewPage(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Close terminates the browser. It is safe to call more than once.
func (c *Capturer) Close() {
	c.closeOnce.Do(func() {
		if c.browserCancel != nil {
			c.browserCancel()
		}
		if c.allocatorCancel != nil {
			c.allocatorCancel()
		}
		c.logger.Info("Browser closed.")
	})
}

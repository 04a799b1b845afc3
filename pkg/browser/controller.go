// Package browser implements the browser session controller: one logical
// headless-browser session driven through a small set of idempotent
// commands, each returning a uniform Observation.
package browser

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/hummhq/humm/pkg/config"
	"github.com/hummhq/humm/pkg/logging"
	"github.com/hummhq/humm/pkg/types"
)

// Controller owns one browser session and executes commands against it.
// Page-mutating commands are serialized by an internal mutex; the streaming
// capture loop runs alongside and may read frames while a command is in
// flight.
type Controller struct {
	cfg *config.Config
	log *logging.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	session *Session
}

// NewController creates a controller. No browser resources are acquired
// until Initialize or the first ExecuteCommand.
func NewController(cfg *config.Config, log *logging.Logger) *Controller {
	return &Controller{cfg: cfg, log: log}
}

// Initialize launches the browser engine and creates the session. It fails
// with an InitializationError wrapping ErrAutomationDisabled when automation
// is administratively disabled, and with a plain InitializationError if the
// engine cannot launch. Calling Initialize on an already-initialized
// controller is a caller error.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return &InitializationError{Err: fmt.Errorf("controller already initialized")}
	}
	return c.initializeLocked()
}

func (c *Controller) initializeLocked() error {
	if c.cfg.AutomationDisabled {
		return &InitializationError{Err: ErrAutomationDisabled}
	}

	// Discard driver output so it can't interleave with caller output.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return &InitializationError{Err: fmt.Errorf("failed to install playwright: %w", err)}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return &InitializationError{Err: fmt.Errorf("failed to start playwright: %w", err)}
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(c.cfg.Browser.Headless),
	})
	if err != nil {
		pw.Stop()
		return &InitializationError{Err: fmt.Errorf("failed to launch browser: %w", err)}
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  c.cfg.Browser.ViewportWidth,
			Height: c.cfg.Browser.ViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return &InitializationError{Err: fmt.Errorf("failed to create context: %w", err)}
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		browser.Close()
		pw.Stop()
		return &InitializationError{Err: fmt.Errorf("failed to create page: %w", err)}
	}
	page.SetDefaultTimeout(c.cfg.Browser.TimeoutMs)

	c.pw = pw
	c.session = &Session{
		Browser:   browser,
		Context:   browserCtx,
		Page:      page,
		Timeout:   c.cfg.Browser.TimeoutMs,
		CreatedAt: time.Now(),
		stream:    newStreamer(c.log),
	}

	c.log.Infof("browser session initialized (headless=%v, viewport=%dx%d)",
		c.cfg.Browser.Headless, c.cfg.Browser.ViewportWidth, c.cfg.Browser.ViewportHeight)
	return nil
}

// ExecuteCommand runs one command against the session and always returns an
// Observation; underlying failures are converted to failed observations and
// never escape as errors. If no session exists one is created first.
func (c *Controller) ExecuteCommand(ctx context.Context, cmd Command) *types.Observation {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return failedObservation(err)
	}

	if c.session == nil {
		if err := c.initializeLocked(); err != nil {
			return failedObservation(err)
		}
	}

	c.log.Debugf("executing command %s", cmd.Action)

	var obs *types.Observation
	var err error
	switch cmd.Action {
	case ActionNavigate:
		obs, err = c.navigate(cmd)
	case ActionClick:
		obs, err = c.click(cmd)
	case ActionInput:
		obs, err = c.input(cmd)
	case ActionExtract:
		obs, err = c.extract(cmd)
	case ActionScroll:
		obs, err = c.scroll(cmd)
	case ActionScreenshot:
		obs, err = c.screenshot()
	case ActionWait:
		obs, err = c.waitFor(cmd)
	case ActionStreamStart:
		obs, err = c.streamStart(cmd)
	case ActionStreamStop:
		obs = c.streamStop()
	case ActionGetViewport:
		obs, err = c.viewport()
	default:
		err = fmt.Errorf("unknown command action %q", cmd.Action)
	}

	if err != nil {
		c.log.Warnf("command %s failed: %v", cmd.Action, err)
		return failedObservation(err)
	}
	obs.Success = true
	obs.Timestamp = time.Now()
	return obs
}

// CurrentState returns an observation-shaped snapshot of the session (title,
// URL, viewport, stream status) without mutating anything. It never errors;
// an uninitialized controller yields a failed observation.
func (c *Controller) CurrentState() *types.Observation {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return failedObservation(fmt.Errorf("browser not initialized"))
	}

	page := c.session.Page
	title, _ := page.Title()
	stream := c.session.stream.status()

	return &types.Observation{
		Success:   true,
		PageTitle: title,
		URL:       page.URL(),
		Viewport:  c.viewportInfo(),
		Stream:    &stream,
		Timestamp: time.Now(),
	}
}

// IsInitialized reports whether a live session exists.
func (c *Controller) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// StopStream stops any active capture loop. Safe to call at any time.
func (c *Controller) StopStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.stream.stop()
	}
}

// Close stops any active stream and releases the page, context, browser, and
// driver. Teardown is best-effort: secondary errors are logged, never
// propagated, so shutdown always completes.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.stream.stop()

		if err := c.session.Page.Close(); err != nil {
			c.log.Warnf("page close: %v", err)
		}
		if err := c.session.Context.Close(); err != nil {
			c.log.Warnf("context close: %v", err)
		}
		if err := c.session.Browser.Close(); err != nil {
			c.log.Warnf("browser close: %v", err)
		}
		c.session = nil
	}

	if c.pw != nil {
		if err := c.pw.Stop(); err != nil {
			c.log.Warnf("playwright stop: %v", err)
		}
		c.pw = nil
	}

	c.log.Infof("browser session closed")
	return nil
}

// failedObservation converts an error into the uniform failure shape every
// command returns.
func failedObservation(err error) *types.Observation {
	return &types.Observation{
		Success:   false,
		Error:     err.Error(),
		Timestamp: time.Now(),
	}
}

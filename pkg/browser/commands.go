package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/hummhq/humm/pkg/types"
)

const (
	// defaultSelectorTimeout bounds waits for selectors to appear.
	defaultSelectorTimeout = 10 * time.Second

	// clickSettleDelay lets page mutations triggered by a click apply
	// before the observation is taken.
	clickSettleDelay = 500 * time.Millisecond

	// defaultScrollPixels is the scroll magnitude when none is given.
	defaultScrollPixels = 500
)

// navigate loads a URL and waits for DOM-content-loaded (not full network
// idle), trading completeness for latency.
func (c *Controller) navigate(cmd Command) (*types.Observation, error) {
	if cmd.URL == "" {
		return nil, &NavigationError{URL: cmd.URL, Err: fmt.Errorf("url is required")}
	}

	parsed, err := url.Parse(cmd.URL)
	if err != nil {
		return nil, &NavigationError{URL: cmd.URL, Err: err}
	}
	if !c.cfg.HostAllowed(parsed.Hostname()) {
		return nil, &NavigationError{URL: cmd.URL, Err: fmt.Errorf("host %q not in allowlist", parsed.Hostname())}
	}

	page := c.session.Page
	if _, err := page.Goto(cmd.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(c.session.Timeout),
	}); err != nil {
		return nil, &NavigationError{URL: cmd.URL, Err: err}
	}

	title, _ := page.Title()
	return &types.Observation{
		PageTitle: title,
		URL:       page.URL(),
		Data:      map[string]any{"navigation_success": true},
	}, nil
}

// click waits for the selector, clicks it, then waits a fixed settle period
// so resulting page mutations apply before the observation is taken.
func (c *Controller) click(cmd Command) (*types.Observation, error) {
	if cmd.Selector == "" {
		return nil, &InteractionError{Action: "click", Selector: cmd.Selector, Err: fmt.Errorf("selector is required")}
	}

	page := c.session.Page
	timeout := playwright.Float(float64(defaultSelectorTimeout.Milliseconds()))

	if _, err := page.WaitForSelector(cmd.Selector, playwright.PageWaitForSelectorOptions{Timeout: timeout}); err != nil {
		return nil, &InteractionError{Action: "click", Selector: cmd.Selector, Err: err}
	}
	if err := page.Click(cmd.Selector, playwright.PageClickOptions{Timeout: timeout}); err != nil {
		return nil, &InteractionError{Action: "click", Selector: cmd.Selector, Err: err}
	}

	time.Sleep(clickSettleDelay)

	title, _ := page.Title()
	return &types.Observation{
		PageTitle: title,
		URL:       page.URL(),
		Data:      map[string]any{"clicked": cmd.Selector},
	}, nil
}

// input waits for the selector and atomically replaces the field contents
// with the given text (no incremental keystrokes).
func (c *Controller) input(cmd Command) (*types.Observation, error) {
	if cmd.Selector == "" {
		return nil, &InteractionError{Action: "input", Selector: cmd.Selector, Err: fmt.Errorf("selector is required")}
	}

	page := c.session.Page
	timeout := playwright.Float(float64(defaultSelectorTimeout.Milliseconds()))

	if _, err := page.WaitForSelector(cmd.Selector, playwright.PageWaitForSelectorOptions{Timeout: timeout}); err != nil {
		return nil, &InteractionError{Action: "input", Selector: cmd.Selector, Err: err}
	}
	if err := page.Fill(cmd.Selector, cmd.Text, playwright.PageFillOptions{Timeout: timeout}); err != nil {
		return nil, &InteractionError{Action: "input", Selector: cmd.Selector, Err: err}
	}

	return &types.Observation{
		URL:  page.URL(),
		Data: map[string]any{"filled": cmd.Selector},
	}, nil
}

// extract returns either the text of one element (selector-scoped) or the
// whole page run through the content extractor.
func (c *Controller) extract(cmd Command) (*types.Observation, error) {
	page := c.session.Page

	if cmd.Selector != "" {
		element, err := page.QuerySelector(cmd.Selector)
		if err != nil || element == nil {
			return nil, &ElementNotFoundError{Selector: cmd.Selector}
		}
		text, err := element.TextContent()
		if err != nil {
			return nil, &ElementNotFoundError{Selector: cmd.Selector}
		}
		return &types.Observation{
			URL:     page.URL(),
			Content: text,
			Data:    map[string]any{"selector": cmd.Selector},
		}, nil
	}

	raw, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	cleaned, err := CleanPage(raw, DefaultMaxContentLength)
	if err != nil {
		return nil, err
	}

	title := cleaned.Title
	if title == "" {
		title, _ = page.Title()
	}
	return &types.Observation{
		PageTitle: title,
		URL:       page.URL(),
		Content:   cleaned.Text,
		Data: map[string]any{
			"html":        cleaned.HTML,
			"description": cleaned.Description,
			"truncated":   cleaned.Truncated,
		},
	}, nil
}

// scroll either brings a target element into view or scrolls the viewport by
// a signed pixel delta derived from the direction ("down" is positive,
// anything else negative).
func (c *Controller) scroll(cmd Command) (*types.Observation, error) {
	page := c.session.Page

	if cmd.Selector != "" {
		element, err := page.QuerySelector(cmd.Selector)
		if err != nil || element == nil {
			return nil, &InteractionError{Action: "scroll", Selector: cmd.Selector, Err: fmt.Errorf("target not found")}
		}
		if err := element.ScrollIntoViewIfNeeded(); err != nil {
			return nil, &InteractionError{Action: "scroll", Selector: cmd.Selector, Err: err}
		}
		return &types.Observation{
			URL:  page.URL(),
			Data: map[string]any{"scrolled_to": cmd.Selector},
		}, nil
	}

	delta := ScrollDelta(cmd.Options.Direction, cmd.Options.Pixels)
	if _, err := page.Evaluate(fmt.Sprintf("() => window.scrollBy(0, %d)", delta)); err != nil {
		return nil, &InteractionError{Action: "scroll", Selector: "", Err: err}
	}

	return &types.Observation{
		URL:  page.URL(),
		Data: map[string]any{"scrolled_by": delta},
	}, nil
}

// ScrollDelta converts a direction and magnitude into a signed pixel delta.
// "down" scrolls forward; any other direction value scrolls backward,
// matching the permissive handling callers rely on. A zero magnitude uses
// the 500px default.
func ScrollDelta(direction string, pixels int) int {
	if pixels <= 0 {
		pixels = defaultScrollPixels
	}
	if direction == "down" {
		return pixels
	}
	return -pixels
}

// screenshot captures only the visible viewport (not the full page) for
// latency, returning a base64 PNG with a data-URI prefix.
func (c *Controller) screenshot() (*types.Observation, error) {
	data, err := c.captureViewport()
	if err != nil {
		return nil, err
	}

	page := c.session.Page
	title, _ := page.Title()
	return &types.Observation{
		PageTitle:  title,
		URL:        page.URL(),
		Screenshot: data,
	}, nil
}

// captureViewport is shared between the screenshot command and the stream
// capture loop.
func (c *Controller) captureViewport() (string, error) {
	buf, err := c.session.Page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}
	return EncodePNGDataURI(buf), nil
}

// EncodePNGDataURI wraps raw PNG bytes in the data-URI form carried by
// observations and stream frames.
func EncodePNGDataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// waitFor polls for selector presence up to the caller-supplied timeout
// (default 10s).
func (c *Controller) waitFor(cmd Command) (*types.Observation, error) {
	if cmd.Selector == "" {
		return nil, fmt.Errorf("selector is required for wait")
	}

	timeout := cmd.Options.Timeout
	if timeout <= 0 {
		timeout = defaultSelectorTimeout
	}

	page := c.session.Page
	if _, err := page.WaitForSelector(cmd.Selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return nil, &TimeoutError{Selector: cmd.Selector, Timeout: timeout}
	}

	return &types.Observation{
		URL:  page.URL(),
		Data: map[string]any{"appeared": cmd.Selector},
	}, nil
}

// streamStart begins periodic viewport capture. An already-active stream is
// stopped first, so at most one capture loop exists per session.
func (c *Controller) streamStart(cmd Command) (*types.Observation, error) {
	if cmd.Options.Sink == nil {
		return nil, fmt.Errorf("stream sink is required")
	}

	capture := func(ctx context.Context) (string, error) {
		// Reads the page without the controller mutex: a stream tick and
		// an explicit command may interleave, and neither blocks the other.
		return c.captureViewport()
	}
	c.session.stream.start(capture, cmd.Options.Sink, cmd.Options.FrameRate, cmd.Options.Quality)

	status := c.session.stream.status()
	return &types.Observation{
		URL:    c.session.Page.URL(),
		Stream: &status,
	}, nil
}

// streamStop cancels the capture loop and joins it; once it returns no
// further frames are delivered. Stopping with no active stream is a no-op
// success.
func (c *Controller) streamStop() *types.Observation {
	c.session.stream.stop()
	status := c.session.stream.status()
	return &types.Observation{
		URL:    c.session.Page.URL(),
		Stream: &status,
	}
}

// viewport reports current viewport dimensions plus title and URL. Unlike
// CurrentState it does not report stream status.
func (c *Controller) viewport() (*types.Observation, error) {
	page := c.session.Page
	title, _ := page.Title()
	return &types.Observation{
		PageTitle: title,
		URL:       page.URL(),
		Viewport:  c.viewportInfo(),
	}, nil
}

// viewportInfo reads viewport dimensions, falling back to the configured
// size when the page has no explicit viewport.
func (c *Controller) viewportInfo() *types.Viewport {
	if size := c.session.Page.ViewportSize(); size != nil {
		return &types.Viewport{Width: size.Width, Height: size.Height, Scale: 1}
	}
	return &types.Viewport{
		Width:  c.cfg.Browser.ViewportWidth,
		Height: c.cfg.Browser.ViewportHeight,
		Scale:  1,
	}
}

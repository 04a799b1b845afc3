package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is the live browser/context/page triple. Exactly one Session
// exists per controller instance, created on Initialize and destroyed on
// Close. It is owned exclusively by the controller; no other component
// reaches into it.
type Session struct {
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	// Timeout is the default operation timeout in milliseconds.
	Timeout float64

	CreatedAt time.Time

	// stream is the at-most-one capture loop for this session.
	stream *streamer
}

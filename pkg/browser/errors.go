package browser

import (
	"errors"
	"fmt"
	"time"
)

// ErrAutomationDisabled is returned (wrapped in an InitializationError) when
// the administrative kill switch forbids launching a browser.
var ErrAutomationDisabled = errors.New("browser automation is administratively disabled")

// InitializationError indicates the browser engine could not be launched or
// a session could not be created. It is one of only two errors the
// controller propagates past its boundary (the other is Close's).
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("browser initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// NavigationError indicates a page load failed. The target URL is carried in
// the message.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// InteractionError indicates a click or input against a selector failed,
// either because the element never appeared or because the interaction
// itself was rejected.
type InteractionError struct {
	Action   string
	Selector string
	Err      error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("%s on %q failed: %v", e.Action, e.Selector, e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

// ElementNotFoundError indicates a selector-scoped extraction found no
// matching element.
type ElementNotFoundError struct {
	Selector string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element found matching selector %q", e.Selector)
}

// TimeoutError indicates a bounded wait for a selector expired.
type TimeoutError struct {
	Selector string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for selector %q", e.Timeout, e.Selector)
}

package browser

import "time"

// Action identifies one atomic browser operation.
type Action string

const (
	ActionNavigate    Action = "navigate"
	ActionClick       Action = "click"
	ActionInput       Action = "input"
	ActionExtract     Action = "extract"
	ActionScroll      Action = "scroll"
	ActionScreenshot  Action = "screenshot"
	ActionWait        Action = "wait"
	ActionStreamStart Action = "stream_start"
	ActionStreamStop  Action = "stream_stop"
	ActionGetViewport Action = "get_viewport"
)

// Options carries the per-action parameters that don't fit the common
// URL/Selector/Text fields.
type Options struct {
	// Direction controls scroll sign: "down" scrolls by +Pixels, any other
	// value scrolls by -Pixels.
	Direction string

	// Pixels is the scroll magnitude. Zero means the 500px default.
	Pixels int

	// Timeout bounds selector waits. Zero means the 10s default.
	Timeout time.Duration

	// FrameRate is the requested capture rate in frames per second for
	// stream_start. Zero means the 2 fps default.
	FrameRate float64

	// Quality is the advisory frame quality (0-100) reported in stream
	// status. Zero means the default of 80.
	Quality int

	// Sink receives captured frames while streaming.
	Sink FrameSink
}

// Command is one request to the browser session controller. Commands are
// immutable values constructed by the caller.
type Command struct {
	Action   Action
	URL      string
	Selector string
	Text     string
	Options  Options
}

// Navigate builds a navigation command.
func Navigate(url string) Command {
	return Command{Action: ActionNavigate, URL: url}
}

// Click builds a click command against a selector.
func Click(selector string) Command {
	return Command{Action: ActionClick, Selector: selector}
}

// Input builds a command that replaces the contents of the field matching
// selector with text.
func Input(selector, text string) Command {
	return Command{Action: ActionInput, Selector: selector, Text: text}
}

// Extract builds an extraction command. An empty selector extracts the whole
// page through the content extractor; a non-empty selector returns that
// element's text.
func Extract(selector string) Command {
	return Command{Action: ActionExtract, Selector: selector}
}

// Scroll builds a scroll command. When targetSelector is non-empty the
// element is scrolled into view; otherwise the viewport scrolls by pixels in
// the given direction.
func Scroll(direction string, pixels int, targetSelector string) Command {
	return Command{
		Action:   ActionScroll,
		Selector: targetSelector,
		Options:  Options{Direction: direction, Pixels: pixels},
	}
}

// Screenshot builds a viewport screenshot command.
func Screenshot() Command {
	return Command{Action: ActionScreenshot}
}

// Wait builds a command that waits for a selector to appear, up to timeout
// (zero means the 10s default).
func Wait(selector string, timeout time.Duration) Command {
	return Command{Action: ActionWait, Selector: selector, Options: Options{Timeout: timeout}}
}

// StreamStart builds a command that begins periodic screenshot capture,
// delivering frames to sink.
func StreamStart(frameRate float64, quality int, sink FrameSink) Command {
	return Command{Action: ActionStreamStart, Options: Options{FrameRate: frameRate, Quality: quality, Sink: sink}}
}

// StreamStop builds a command that stops any active capture loop. Stopping
// with no active stream is a no-op success.
func StreamStop() Command {
	return Command{Action: ActionStreamStop}
}

// GetViewport builds a command that reports viewport dimensions plus the
// current title and URL.
func GetViewport() Command {
	return Command{Action: ActionGetViewport}
}

// Package llm defines the gateway interfaces for external language-model and
// image-synthesis capabilities, plus the ordered fallback chain that degrades
// through providers before collapsing to a deterministic canned response.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Request is one generation request: a prompt plus optional structured
// context the provider folds into the prompt.
type Request struct {
	Prompt  string
	Context map[string]any
}

// Response is the uniform answer shape returned by every provider and by the
// chain's last-resort fallback.
type Response struct {
	Text string

	// Confidence is the provider's self-reported answer confidence, 0-100.
	// The canned fallback reports 0.
	Confidence int

	// Provider names which provider answered.
	Provider string

	Latency time.Duration

	// Style describes the register the answer was produced in, when the
	// provider adapts one.
	Style string
}

// Provider is a single language-model capability tried by the chain.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Gateway is what consumers depend on: a generation entry point that never
// fails. The Chain is the production implementation.
type Gateway interface {
	Generate(ctx context.Context, req Request) *Response
}

// ImageRequest describes one image-synthesis request.
type ImageRequest struct {
	Prompt string
	Type   string
	Style  string
	Width  int
	Height int

	// Params carries model-specific extras such as reduced step counts.
	Params map[string]any
}

// ImageResult is the image gateway's answer.
type ImageResult struct {
	Success bool

	// ImageBase64 is the encoded image with a data-URI prefix.
	ImageBase64 string

	Provider string
	Latency  time.Duration
	Error    string
}

// ImageGateway is the image-synthesis capability. Implementations try a
// primary model and then an alternate before giving up.
type ImageGateway interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// GatewayError indicates a provider (or an entire provider list) failed.
type GatewayError struct {
	Provider string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s failed: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

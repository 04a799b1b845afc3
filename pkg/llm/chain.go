package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hummhq/humm/pkg/logging"
)

// FallbackProviderName identifies the chain's scripted last resort in
// Response.Provider.
const FallbackProviderName = "fallback"

// Chain tries an ordered list of providers and, when all of them fail,
// returns a deterministic templated response. Generate never returns an
// error: callers always get a usable Response.
type Chain struct {
	providers []Provider
	log       *logging.Logger
}

// NewChain builds a chain over providers, tried in the given order.
func NewChain(log *logging.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log}
}

// Generate degrades through the provider list. Each provider failure is
// logged and the next provider is tried; exhaustion yields the canned
// response with confidence 0.
func (c *Chain) Generate(ctx context.Context, req Request) *Response {
	for _, p := range c.providers {
		resp, err := p.Generate(ctx, req)
		if err != nil {
			c.log.Warnf("provider %s failed: %v", p.Name(), err)
			continue
		}
		return resp
	}

	c.log.Warnf("all %d providers exhausted, using canned response", len(c.providers))
	return cannedResponse(req)
}

// cannedResponse is the deterministic last-resort answer.
func cannedResponse(req Request) *Response {
	return &Response{
		Text:       fmt.Sprintf("No language model provider was reachable. The request %q could not be analyzed; raw results are available in the observation data.", snippet(req.Prompt, 160)),
		Confidence: 0,
		Provider:   FallbackProviderName,
	}
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	// Back up so the cut never splits a multi-byte rune.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}

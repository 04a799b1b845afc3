package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/hummhq/humm/pkg/logging"
)

// scriptedProvider fails a fixed number of times, then succeeds.
type scriptedProvider struct {
	name  string
	fail  bool
	calls int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	p.calls++
	if p.fail {
		return nil, &GatewayError{Provider: p.name, Err: errors.New("unreachable")}
	}
	return &Response{Text: "answer from " + p.name, Confidence: 85, Provider: p.name}, nil
}

func TestChainUsesFirstHealthyProvider(t *testing.T) {
	primary := &scriptedProvider{name: "primary"}
	secondary := &scriptedProvider{name: "secondary"}
	chain := NewChain(logging.NewNop(), primary, secondary)

	resp := chain.Generate(context.Background(), Request{Prompt: "hello"})

	assert.Equal(t, "primary", resp.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls, "secondary must not be consulted")
}

func TestChainDegradesInOrder(t *testing.T) {
	primary := &scriptedProvider{name: "primary", fail: true}
	secondary := &scriptedProvider{name: "secondary"}
	chain := NewChain(logging.NewNop(), primary, secondary)

	resp := chain.Generate(context.Background(), Request{Prompt: "hello"})

	assert.Equal(t, "secondary", resp.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestChainNeverFails(t *testing.T) {
	primary := &scriptedProvider{name: "primary", fail: true}
	secondary := &scriptedProvider{name: "secondary", fail: true}
	chain := NewChain(logging.NewNop(), primary, secondary)

	resp := chain.Generate(context.Background(), Request{Prompt: "what is the answer"})

	assert.NotNil(t, resp)
	assert.Equal(t, FallbackProviderName, resp.Provider)
	assert.Equal(t, 0, resp.Confidence)
	assert.NotEmpty(t, resp.Text)
	assert.Contains(t, resp.Text, "what is the answer")
}

func TestChainWithNoProviders(t *testing.T) {
	chain := NewChain(logging.NewNop())

	resp := chain.Generate(context.Background(), Request{Prompt: "anything"})

	assert.Equal(t, FallbackProviderName, resp.Provider)
	assert.NotEmpty(t, resp.Text)
}

func TestSnippetTruncates(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	got := snippet(string(long), 160)
	assert.Len(t, got, 163) // 160 + "..."

	assert.Equal(t, "short", snippet("  short  ", 160))
}

func TestSnippetKeepsRunesIntact(t *testing.T) {
	// The leading ASCII byte shifts every two-byte rune off even alignment,
	// so a naive byte cut at 160 would split one.
	multi := "x" + strings.Repeat("é", 80)

	got := snippet(multi, 160)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "x"+strings.Repeat("é", 79)+"...", got)
}

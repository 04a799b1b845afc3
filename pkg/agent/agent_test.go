package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hummhq/humm/pkg/browser"
	"github.com/hummhq/humm/pkg/llm"
	"github.com/hummhq/humm/pkg/logging"
	"github.com/hummhq/humm/pkg/types"
)

// fakeDriver satisfies BrowserDriver without a real browser. Actions listed
// in fail come back as failed observations.
type fakeDriver struct {
	mu          sync.Mutex
	initialized bool
	initErr     error
	commands    []browser.Command
	fail        map[browser.Action]string
	streamStops int
	closed      bool
}

func (d *fakeDriver) Initialize() error {
	if d.initErr != nil {
		return d.initErr
	}
	d.initialized = true
	return nil
}

func (d *fakeDriver) ExecuteCommand(_ context.Context, cmd browser.Command) *types.Observation {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, cmd)

	if msg, ok := d.fail[cmd.Action]; ok {
		return &types.Observation{Success: false, Error: msg, Timestamp: time.Now()}
	}

	obs := &types.Observation{Success: true, Timestamp: time.Now()}
	switch cmd.Action {
	case browser.ActionNavigate:
		obs.URL = cmd.URL
		obs.PageTitle = "Example Domain"
	case browser.ActionExtract:
		obs.URL = "https://example.com"
		obs.PageTitle = "Example Domain"
		obs.Content = "Example page content about market trends."
		obs.Data = map[string]any{"description": "an example page"}
	case browser.ActionScreenshot:
		obs.Screenshot = "data:image/png;base64,iVBORw0KGgo="
	case browser.ActionGetViewport:
		obs.Viewport = &types.Viewport{Width: 1280, Height: 720, Scale: 1}
	case browser.ActionStreamStart:
		obs.Stream = &types.StreamStatus{IsStreaming: true, FrameRate: cmd.Options.FrameRate, Quality: 80}
	case browser.ActionStreamStop:
		obs.Stream = &types.StreamStatus{IsStreaming: false}
	}
	return obs
}

func (d *fakeDriver) CurrentState() *types.Observation {
	return &types.Observation{Success: true, Timestamp: time.Now()}
}

func (d *fakeDriver) StopStream() {
	d.mu.Lock()
	d.streamStops++
	d.mu.Unlock()
}

func (d *fakeDriver) IsInitialized() bool { return d.initialized }

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDriver) commandActions() []browser.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	actions := make([]browser.Action, len(d.commands))
	for i, cmd := range d.commands {
		actions[i] = cmd.Action
	}
	return actions
}

// gatewayFunc adapts a function to llm.Gateway.
type gatewayFunc func(llm.Request) *llm.Response

func (f gatewayFunc) Generate(_ context.Context, req llm.Request) *llm.Response {
	return f(req)
}

// answeringGateway replies to everything with fixed text.
func answeringGateway(text string) llm.Gateway {
	return gatewayFunc(func(llm.Request) *llm.Response {
		return &llm.Response{Text: text, Confidence: 90, Provider: "test-provider"}
	})
}

// unreachableGateway behaves like an exhausted chain: canned text tagged
// with the fallback provider name.
func unreachableGateway() llm.Gateway {
	return gatewayFunc(func(llm.Request) *llm.Response {
		return &llm.Response{Text: "canned", Provider: llm.FallbackProviderName}
	})
}

type fakeImageGateway struct {
	mu     sync.Mutex
	result *llm.ImageResult
	err    error
	reqs   []llm.ImageRequest
}

func (g *fakeImageGateway) GenerateImage(_ context.Context, req llm.ImageRequest) (*llm.ImageResult, error) {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()
	return g.result, g.err
}

func okImageGateway() *fakeImageGateway {
	return &fakeImageGateway{result: &llm.ImageResult{
		Success:     true,
		ImageBase64: "data:image/png;base64,AAAA",
		Provider:    "gpt-image-1",
		Latency:     120 * time.Millisecond,
	}}
}

func newTestAgent(t *testing.T, driver *fakeDriver, text llm.Gateway, images llm.ImageGateway) *Agent {
	t.Helper()
	if text == nil {
		text = answeringGateway("the page looks fine")
	}
	if images == nil {
		images = okImageGateway()
	}
	return New(driver, text, images, logging.NewNop(), WithSettleDelay(0))
}

func TestInitializeTwiceFails(t *testing.T) {
	a := newTestAgent(t, &fakeDriver{}, nil, nil)

	require.NoError(t, a.Initialize())
	assert.Error(t, a.Initialize())
	assert.True(t, a.State().BrowserReady)
}

func TestExecuteTaskGeneratesID(t *testing.T) {
	a := newTestAgent(t, &fakeDriver{}, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		Type:      types.TaskNavigate,
		TargetURL: "https://example.com",
	})

	assert.NotEmpty(t, result.TaskID)
	assert.Empty(t, a.State().CurrentTaskID)
}

func TestExecuteTaskKeepsCallerID(t *testing.T) {
	a := newTestAgent(t, &fakeDriver{}, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		ID:        "task-42",
		Type:      types.TaskNavigate,
		TargetURL: "https://example.com",
	})

	assert.Equal(t, "task-42", result.TaskID)
}

func TestNavigateObservationOrder(t *testing.T) {
	driver := &fakeDriver{}
	a := newTestAgent(t, driver, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		Type:      types.TaskNavigate,
		TargetURL: "https://example.com",
	})

	require.True(t, result.Success)
	require.Len(t, result.Observations, 2)
	assert.Equal(t, []browser.Action{browser.ActionNavigate, browser.ActionScreenshot}, driver.commandActions())
	assert.Equal(t, "https://example.com", result.Observations[0].URL)
	assert.NotEmpty(t, result.Observations[1].Screenshot)

	for _, obs := range result.Observations {
		assert.False(t, obs.Timestamp.IsZero())
	}
}

func TestMissingTargetURLFailsWithoutPanic(t *testing.T) {
	for _, taskType := range []types.TaskType{types.TaskScrape, types.TaskNavigate, types.TaskMonitor, types.TaskLiveDemo} {
		t.Run(string(taskType), func(t *testing.T) {
			driver := &fakeDriver{}
			a := newTestAgent(t, driver, unreachableGateway(), nil)

			result := a.ExecuteTask(context.Background(), types.Task{
				Type:        taskType,
				Description: "hit the target",
			})

			require.NotNil(t, result)
			assert.False(t, result.Success)
			assert.Contains(t, result.Summary, "missing required parameter")
			assert.Empty(t, driver.commandActions())
		})
	}
}

func TestFailedObservationCarriesError(t *testing.T) {
	driver := &fakeDriver{fail: map[browser.Action]string{browser.ActionNavigate: "net::ERR_NAME_NOT_RESOLVED"}}
	a := newTestAgent(t, driver, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		Type:      types.TaskNavigate,
		TargetURL: "https://nope.invalid",
	})

	assert.False(t, result.Success)
	require.Len(t, result.Observations, 1)
	assert.False(t, result.Observations[0].Success)
	assert.NotEmpty(t, result.Observations[0].Error)
}

func TestScrapeMergesExtractedData(t *testing.T) {
	a := newTestAgent(t, &fakeDriver{}, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		Type:      types.TaskScrape,
		TargetURL: "https://example.com",
	})

	require.True(t, result.Success)
	assert.Equal(t, "Example Domain", result.Data["title"])
	assert.NotEmpty(t, result.Data["content"])
	assert.Equal(t, "an example page", result.Data["description"])
}

func TestMonitorRecordsCheckTime(t *testing.T) {
	a := newTestAgent(t, &fakeDriver{}, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		Type:      types.TaskMonitor,
		TargetURL: "https://example.com/status",
		Selector:  "#price",
	})

	require.True(t, result.Success)
	assert.Equal(t, "#price", result.Data["selector"])
	checkedAt, ok := result.Data["checked_at"].(time.Time)
	require.True(t, ok)
	assert.False(t, checkedAt.IsZero())
}

func TestLiveDemoStreamsWhenEnabled(t *testing.T) {
	driver := &fakeDriver{}
	a := newTestAgent(t, driver, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		Type:           types.TaskLiveDemo,
		TargetURL:      "https://example.com",
		EnableLiveView: true,
	})

	require.True(t, result.Success)
	assert.Equal(t, true, result.Data["live_view"])
	assert.True(t, a.State().IsLiveStreaming)

	actions := driver.commandActions()
	require.NotEmpty(t, actions)
	assert.Equal(t, browser.ActionStreamStart, actions[0])
}

func TestLiveDemoMidFailureStopsStream(t *testing.T) {
	driver := &fakeDriver{fail: map[browser.Action]string{browser.ActionScreenshot: "page closed"}}
	a := newTestAgent(t, driver, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		Type:           types.TaskLiveDemo,
		TargetURL:      "https://example.com",
		EnableLiveView: true,
	})

	assert.False(t, result.Success)
	assert.False(t, a.State().IsLiveStreaming)
	assert.GreaterOrEqual(t, driver.streamStops, 1)
}

func TestLiveDemoContinuesWhenStreamUnavailable(t *testing.T) {
	driver := &fakeDriver{fail: map[browser.Action]string{browser.ActionStreamStart: "no sink configured"}}
	a := newTestAgent(t, driver, nil, nil)

	result := a.ExecuteTask(context.Background(), types.Task{
		Type:           types.TaskLiveDemo,
		TargetURL:      "https://example.com",
		EnableLiveView: true,
	})

	require.True(t, result.Success)
	assert.Equal(t, false, result.Data["live_view"])
	assert.False(t, a.State().IsLiveStreaming)
}

func TestUnknownTaskTypeFails(t *testing.T) {
	a := newTestAgent(t, &fakeDriver{}, unreachableGateway(), nil)

	result := a.ExecuteTask(context.Background(), types.Task{Type: "teleport"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Summary, "Task failed")
}

func TestStopLiveStreamIdempotent(t *testing.T) {
	driver := &fakeDriver{}
	a := newTestAgent(t, driver, nil, nil)

	a.StopLiveStream()
	a.StopLiveStream()

	assert.Equal(t, 2, driver.streamStops)
	assert.False(t, a.State().IsLiveStreaming)
}

func TestShutdownZeroesState(t *testing.T) {
	driver := &fakeDriver{}
	a := newTestAgent(t, driver, nil, nil)
	require.NoError(t, a.Initialize())

	require.NoError(t, a.Shutdown())

	state := a.State()
	assert.False(t, state.IsActive)
	assert.False(t, state.BrowserReady)
	assert.Empty(t, state.CurrentTaskID)
	assert.True(t, driver.closed)
}

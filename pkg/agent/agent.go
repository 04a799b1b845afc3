// Package agent implements the task orchestrator: it decomposes typed tasks
// into browser command sequences, records the observation trail, and
// produces a best-effort natural-language summary through the language-model
// gateway.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hummhq/humm/pkg/browser"
	"github.com/hummhq/humm/pkg/llm"
	"github.com/hummhq/humm/pkg/logging"
	"github.com/hummhq/humm/pkg/types"
)

// BrowserDriver is the command surface the orchestrator drives. It is the
// natural seam for a test double: a fake driver satisfying this contract
// lets the orchestrator be tested without a real browser.
type BrowserDriver interface {
	Initialize() error
	ExecuteCommand(ctx context.Context, cmd browser.Command) *types.Observation
	CurrentState() *types.Observation
	StopStream()
	IsInitialized() bool
	Close() error
}

// MissingParameterError indicates a task omitted a required field.
type MissingParameterError struct {
	Parameter string
	TaskType  types.TaskType
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q for %s task", e.Parameter, e.TaskType)
}

// ImageGenerationError indicates the image gateway could not produce image
// bytes, which are the entire value of a generate_image task.
type ImageGenerationError struct {
	Err error
}

func (e *ImageGenerationError) Error() string {
	return fmt.Sprintf("image generation failed: %v", e.Err)
}

func (e *ImageGenerationError) Unwrap() error { return e.Err }

// discardSink drops frames; used when no live-view sink is configured.
type discardSink struct{}

func (discardSink) HandleFrame(browser.Frame) {}

// Agent orchestrates tasks against one browser session controller and the
// two gateways. It owns its AgentState exclusively.
type Agent struct {
	browser BrowserDriver
	text    llm.Gateway
	images  llm.ImageGateway
	log     *logging.Logger

	// frameSink receives live-view frames during live_demo tasks.
	frameSink browser.FrameSink

	// settleDelay is the pause after navigation in live demos, letting the
	// page render before the viewport is inspected.
	settleDelay time.Duration

	mu    sync.Mutex
	state types.AgentState
}

// Option configures an Agent.
type Option func(*Agent)

// WithFrameSink sets the sink that receives live-view frames.
func WithFrameSink(sink browser.FrameSink) Option {
	return func(a *Agent) { a.frameSink = sink }
}

// WithSettleDelay overrides the live-demo settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(a *Agent) { a.settleDelay = d }
}

// New creates an orchestrator over the given driver and gateways.
func New(driver BrowserDriver, text llm.Gateway, images llm.ImageGateway, log *logging.Logger, opts ...Option) *Agent {
	a := &Agent{
		browser:     driver,
		text:        text,
		images:      images,
		log:         log,
		frameSink:   discardSink{},
		settleDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize brings up the browser session. It is one of the two operations
// that may return an error to the caller.
func (a *Agent) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.BrowserReady {
		return fmt.Errorf("agent already initialized")
	}
	if err := a.browser.Initialize(); err != nil {
		return err
	}

	a.state.IsActive = true
	a.state.BrowserReady = true
	a.state.LastActivity = time.Now()
	a.log.Infof("agent initialized")
	return nil
}

// ExecuteTask runs one task to completion and always returns a well-formed
// AgentResult; task-level failures become failed results with an
// error-derived summary, never raw errors.
func (a *Agent) ExecuteTask(ctx context.Context, task types.Task) *types.AgentResult {
	start := time.Now()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	a.mu.Lock()
	a.state.CurrentTaskID = task.ID
	a.mu.Unlock()

	// currentTask is cleared on every exit path, success or failure.
	defer func() {
		a.mu.Lock()
		a.state.CurrentTaskID = ""
		a.state.LastActivity = time.Now()
		a.mu.Unlock()
	}()

	a.log.Infof("task %s started (type=%s)", task.ID, task.Type)

	rec := &recorder{}
	data, err := a.dispatch(ctx, task, rec)
	if err != nil {
		a.log.Warnf("task %s failed: %v", task.ID, err)
	}

	summary := a.summarize(ctx, task, data, rec.list(), err)

	return &types.AgentResult{
		TaskID:       task.ID,
		Success:      err == nil,
		Data:         data,
		Observations: rec.list(),
		Summary:      summary,
		StartedAt:    start,
		Duration:     time.Since(start),
	}
}

func (a *Agent) dispatch(ctx context.Context, task types.Task, rec *recorder) (map[string]any, error) {
	switch task.Type {
	case types.TaskResearch:
		return a.runResearch(ctx, task, rec)
	case types.TaskScrape:
		return a.runScrape(ctx, task, rec)
	case types.TaskNavigate:
		return a.runNavigate(ctx, task, rec)
	case types.TaskMonitor:
		return a.runMonitor(ctx, task, rec)
	case types.TaskLiveDemo:
		return a.runLiveDemo(ctx, task, rec)
	case types.TaskGenerateImage:
		return a.runGenerateImage(ctx, task, rec)
	default:
		return nil, fmt.Errorf("unknown task type %q", task.Type)
	}
}

// exec issues one command, records the resulting observation, and keeps the
// agent state in sync with what the browser reported.
func (a *Agent) exec(ctx context.Context, cmd browser.Command, rec *recorder) *types.Observation {
	obs := a.browser.ExecuteCommand(ctx, cmd)
	rec.add(obs)

	a.mu.Lock()
	a.state.LastActivity = time.Now()
	if obs.URL != "" {
		a.state.CurrentURL = obs.URL
	}
	if obs.Success {
		// A successful command implies a live session (lazy init).
		a.state.BrowserReady = true
		a.state.IsActive = true
	}
	a.mu.Unlock()

	return obs
}

// State returns a copy of the orchestrator state.
func (a *Agent) State() types.AgentState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// BrowserState returns the controller's observation-shaped snapshot.
func (a *Agent) BrowserState() *types.Observation {
	return a.browser.CurrentState()
}

// StopLiveStream stops any active capture loop and clears the live-view
// flag. Safe to call at any time.
func (a *Agent) StopLiveStream() {
	a.browser.StopStream()

	a.mu.Lock()
	a.state.IsLiveStreaming = false
	a.state.LastActivity = time.Now()
	a.mu.Unlock()
}

// Shutdown is the terminal transition: it stops any live stream, closes the
// browser session, and zeroes all state. The agent must be re-initialized
// before further use.
func (a *Agent) Shutdown() error {
	a.StopLiveStream()
	err := a.browser.Close()

	a.mu.Lock()
	a.state = types.AgentState{}
	a.mu.Unlock()

	a.log.Infof("agent shut down")
	return err
}

// recorder accumulates a task's observation trail in execution order.
type recorder struct {
	observations []types.Observation
}

func (r *recorder) add(obs *types.Observation) {
	r.observations = append(r.observations, *obs)
}

func (r *recorder) list() []types.Observation {
	return r.observations
}

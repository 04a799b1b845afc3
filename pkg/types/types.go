// Package types defines the shared records exchanged between the browser
// controller and the task orchestrator: observations, tasks, results, and
// orchestrator state.
package types

import "time"

// TaskType identifies the high-level goal a task decomposes into.
type TaskType string

const (
	TaskResearch      TaskType = "research"
	TaskScrape        TaskType = "scrape"
	TaskNavigate      TaskType = "navigate"
	TaskMonitor       TaskType = "monitor"
	TaskLiveDemo      TaskType = "live_demo"
	TaskGenerateImage TaskType = "generate_image"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskResearch, TaskScrape, TaskNavigate, TaskMonitor, TaskLiveDemo, TaskGenerateImage:
		return true
	}
	return false
}

// Task is a caller-specified goal. It is immutable once submitted.
type Task struct {
	// ID uniquely identifies the task. If empty, the orchestrator
	// generates one.
	ID string `json:"id"`

	// Type selects the handler that decomposes this task.
	Type TaskType `json:"type"`

	// Description is a human-readable summary of the goal.
	Description string `json:"description"`

	// UserQuery is the free-text request driving research and
	// image-generation tasks.
	UserQuery string `json:"user_query,omitempty"`

	// TargetURL is the page to operate on. Required for scrape,
	// navigate, monitor, and live_demo tasks.
	TargetURL string `json:"target_url,omitempty"`

	// Selector optionally scopes extraction or monitoring to an element.
	Selector string `json:"selector,omitempty"`

	// Parameters carries handler-specific extras.
	Parameters map[string]any `json:"parameters,omitempty"`

	// EnableLiveView starts a screenshot stream during live_demo tasks.
	EnableLiveView bool `json:"enable_live_view,omitempty"`
}

// Viewport describes the visible page dimensions.
type Viewport struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale,omitempty"`
}

// StreamStatus reports the state of the screenshot capture loop.
type StreamStatus struct {
	IsStreaming bool    `json:"is_streaming"`
	FrameRate   float64 `json:"frame_rate,omitempty"`
	Quality     int     `json:"quality,omitempty"`
}

// Observation is the uniform result record produced by every command
// execution and recorded by every task step. Observations are append-only:
// once created they are never mutated.
type Observation struct {
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data,omitempty"`
	Screenshot string         `json:"screenshot,omitempty"` // base64 PNG with data-URI prefix
	PageTitle  string         `json:"page_title,omitempty"`
	URL        string         `json:"url,omitempty"`
	Content    string         `json:"content,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Viewport   *Viewport      `json:"viewport,omitempty"`
	Stream     *StreamStatus  `json:"stream,omitempty"`
}

// AgentResult is the single record returned for each executed task. The
// orchestrator does not retain it; callers that need history store it
// themselves.
type AgentResult struct {
	TaskID       string         `json:"task_id"`
	Success      bool           `json:"success"`
	Data         map[string]any `json:"data,omitempty"`
	Observations []Observation  `json:"observations"`
	Summary      string         `json:"summary"`
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration"`
}

// AgentState is a snapshot of one orchestrator instance. It is owned and
// mutated exclusively by the orchestrator; status queries receive copies.
type AgentState struct {
	IsActive        bool      `json:"is_active"`
	CurrentTaskID   string    `json:"current_task_id,omitempty"`
	BrowserReady    bool      `json:"browser_ready"`
	LastActivity    time.Time `json:"last_activity"`
	IsLiveStreaming bool      `json:"is_live_streaming"`
	CurrentURL      string    `json:"current_url,omitempty"`
}

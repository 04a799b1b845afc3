package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hummhq/humm/pkg/browser"
	"github.com/hummhq/humm/pkg/types"
)

// runScrape navigates to the target and extracts content, scoped to the
// task's selector or the whole page. The raw data is returned without
// analysis.
func (a *Agent) runScrape(ctx context.Context, task types.Task, rec *recorder) (map[string]any, error) {
	if task.TargetURL == "" {
		return nil, &MissingParameterError{Parameter: "target_url", TaskType: task.Type}
	}

	nav := a.exec(ctx, browser.Navigate(task.TargetURL), rec)
	if !nav.Success {
		return nil, fmt.Errorf("navigation failed: %s", nav.Error)
	}

	ext := a.exec(ctx, browser.Extract(task.Selector), rec)
	if !ext.Success {
		return nil, fmt.Errorf("extraction failed: %s", ext.Error)
	}

	data := map[string]any{
		"url":     ext.URL,
		"title":   ext.PageTitle,
		"content": ext.Content,
	}
	if task.Selector != "" {
		data["selector"] = task.Selector
	}
	for k, v := range ext.Data {
		data[k] = v
	}
	return data, nil
}

// runNavigate loads the target and captures a screenshot of the result.
func (a *Agent) runNavigate(ctx context.Context, task types.Task, rec *recorder) (map[string]any, error) {
	if task.TargetURL == "" {
		return nil, &MissingParameterError{Parameter: "target_url", TaskType: task.Type}
	}

	nav := a.exec(ctx, browser.Navigate(task.TargetURL), rec)
	if !nav.Success {
		return nil, fmt.Errorf("navigation failed: %s", nav.Error)
	}

	shot := a.exec(ctx, browser.Screenshot(), rec)
	if !shot.Success {
		return nil, fmt.Errorf("screenshot failed: %s", shot.Error)
	}

	return map[string]any{
		"url":                nav.URL,
		"title":              nav.PageTitle,
		"screenshot":         shot.Screenshot,
		"navigation_success": true,
	}, nil
}

// runMonitor performs a single-shot check of the target selector. Periodic
// re-invocation is the caller's responsibility.
func (a *Agent) runMonitor(ctx context.Context, task types.Task, rec *recorder) (map[string]any, error) {
	if task.TargetURL == "" {
		return nil, &MissingParameterError{Parameter: "target_url", TaskType: task.Type}
	}

	nav := a.exec(ctx, browser.Navigate(task.TargetURL), rec)
	if !nav.Success {
		return nil, fmt.Errorf("navigation failed: %s", nav.Error)
	}

	ext := a.exec(ctx, browser.Extract(task.Selector), rec)
	if !ext.Success {
		return nil, fmt.Errorf("extraction failed: %s", ext.Error)
	}

	return map[string]any{
		"url":        ext.URL,
		"selector":   task.Selector,
		"content":    ext.Content,
		"checked_at": time.Now(),
	}, nil
}

// runLiveDemo optionally starts streaming, then navigates, settles, reads
// the viewport, and takes a final screenshot. On any mid-sequence failure
// the stream is stopped before the error propagates, so a failed demo never
// leaves a stream running.
func (a *Agent) runLiveDemo(ctx context.Context, task types.Task, rec *recorder) (map[string]any, error) {
	if task.TargetURL == "" {
		return nil, &MissingParameterError{Parameter: "target_url", TaskType: task.Type}
	}

	streaming := false
	if task.EnableLiveView {
		start := a.exec(ctx, browser.StreamStart(liveDemoFrameRate(task), 0, a.frameSink), rec)
		if start.Success {
			streaming = true
			a.mu.Lock()
			a.state.IsLiveStreaming = true
			a.mu.Unlock()
		} else {
			a.log.Warnf("live view unavailable: %s", start.Error)
		}
	}

	fail := func(format string, args ...any) (map[string]any, error) {
		if streaming {
			a.StopLiveStream()
		}
		return nil, fmt.Errorf(format, args...)
	}

	nav := a.exec(ctx, browser.Navigate(task.TargetURL), rec)
	if !nav.Success {
		return fail("navigation failed: %s", nav.Error)
	}

	// Let the page render before inspecting it.
	time.Sleep(a.settleDelay)

	vp := a.exec(ctx, browser.GetViewport(), rec)
	if !vp.Success {
		return fail("viewport query failed: %s", vp.Error)
	}

	shot := a.exec(ctx, browser.Screenshot(), rec)
	if !shot.Success {
		return fail("screenshot failed: %s", shot.Error)
	}

	data := map[string]any{
		"url":        nav.URL,
		"title":      nav.PageTitle,
		"screenshot": shot.Screenshot,
		"live_view":  streaming,
	}
	if vp.Viewport != nil {
		data["viewport"] = *vp.Viewport
	}
	return data, nil
}

// liveDemoFrameRate reads an optional frame_rate parameter from the task.
func liveDemoFrameRate(task types.Task) float64 {
	if task.Parameters == nil {
		return 0
	}
	switch v := task.Parameters["frame_rate"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

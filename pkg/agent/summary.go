package agent

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hummhq/humm/pkg/llm"
	"github.com/hummhq/humm/pkg/types"
)

// summaryContentTokenBudget bounds the observation content handed to the
// gateway for summarization.
const summaryContentTokenBudget = 2000

// summarize asks the gateway for a natural-language summary of the
// successful observations plus the final result. Gateway trouble substitutes
// the deterministic template; summarization never fails the task.
func (a *Agent) summarize(ctx context.Context, task types.Task, data map[string]any, observations []types.Observation, taskErr error) string {
	succeeded := 0
	var lastContent string
	for _, obs := range observations {
		if obs.Success {
			succeeded++
			if obs.Content != "" {
				lastContent = obs.Content
			}
		}
	}

	reqCtx := map[string]any{
		"task_type":        string(task.Type),
		"steps_total":      len(observations),
		"steps_successful": succeeded,
	}
	if lastContent != "" {
		reqCtx["content"] = trimToTokens(lastContent, summaryContentTokenBudget)
	}
	if data != nil {
		if analysis, ok := data["ai_analysis"].(string); ok && analysis != "" {
			reqCtx["analysis"] = trimToTokens(analysis, summaryContentTokenBudget)
		}
	}
	if taskErr != nil {
		reqCtx["error"] = taskErr.Error()
	}

	resp := a.text.Generate(ctx, llm.Request{
		Prompt:  fmt.Sprintf("Summarize the outcome of this browser task in two or three plain sentences for the end user: %s", task.Description),
		Context: reqCtx,
	})

	if resp.Provider == llm.FallbackProviderName || resp.Text == "" {
		return templatedSummary(task, taskErr)
	}
	return resp.Text
}

// templatedSummary is the deterministic substitute used when the gateway is
// unreachable.
func templatedSummary(task types.Task, taskErr error) string {
	if taskErr != nil {
		return fmt.Sprintf("Task failed: %s. Error: %v", task.Description, taskErr)
	}
	return fmt.Sprintf("Task completed: %s. Check detailed results.", task.Description)
}

// trimToTokens cuts text to a token budget using the cl100k_base encoding,
// falling back to a rune-count heuristic when the encoding is unavailable
// (for example, offline).
func trimToTokens(text string, maxTokens int) string {
	if text == "" || maxTokens <= 0 {
		return ""
	}

	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// Roughly four characters per token.
		runes := []rune(text)
		limit := maxTokens * 4
		if len(runes) <= limit {
			return text
		}
		return string(runes[:limit])
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hummhq/humm/pkg/llm"
	"github.com/hummhq/humm/pkg/types"
)

// ImageSpec is the structured plan for one image-generation request,
// produced by the gateway or by the deterministic default.
type ImageSpec struct {
	Type   string `json:"type"`
	Style  string `json:"style"`
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"steps"`
}

// ImageSpecResult is the tagged outcome of spec resolution: either the
// gateway's parsed answer or the fallback default. The degradation path is a
// first-class, inspectable branch, not a silent catch.
type ImageSpecResult struct {
	Spec         ImageSpec
	FromFallback bool
}

// DefaultImageSpec builds the conservative spec used when the gateway's
// answer can't be parsed: creative type, professional style, 1024x1024, and
// a reduced step count.
func DefaultImageSpec(query string) ImageSpec {
	return ImageSpec{
		Type:   "creative",
		Style:  "professional",
		Prompt: query,
		Width:  1024,
		Height: 1024,
		Steps:  20,
	}
}

// ParseImageSpec extracts the strict-JSON image spec from a gateway answer,
// tolerating markdown code fences around the object.
func ParseImageSpec(text string) (ImageSpec, error) {
	var spec ImageSpec

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return spec, fmt.Errorf("no JSON object in response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &spec); err != nil {
		return spec, fmt.Errorf("malformed image spec: %w", err)
	}
	if spec.Prompt == "" {
		return spec, fmt.Errorf("image spec missing prompt")
	}

	if spec.Width <= 0 {
		spec.Width = 1024
	}
	if spec.Height <= 0 {
		spec.Height = 1024
	}
	return spec, nil
}

// resolveImageSpec asks the gateway to turn the free-text request into a
// structured spec and falls back to the default when the answer doesn't
// parse.
func (a *Agent) resolveImageSpec(ctx context.Context, task types.Task) ImageSpecResult {
	resp := a.text.Generate(ctx, llm.Request{
		Prompt: fmt.Sprintf(
			`Turn this image request into a JSON object with exactly these keys: "type" (creative|diagram|photo), "style", "prompt" (an optimized generation prompt), "width", "height". Respond with JSON only.
Request: %s`,
			task.UserQuery),
	})

	spec, err := ParseImageSpec(resp.Text)
	if err != nil {
		a.log.Warnf("image spec fell back to default: %v", err)
		return ImageSpecResult{Spec: DefaultImageSpec(task.UserQuery), FromFallback: true}
	}
	return ImageSpecResult{Spec: spec}
}

// runGenerateImage plans an image spec, then asks the image gateway to
// synthesize it. One observation is recorded for the analysis step and one
// for the generation step.
func (a *Agent) runGenerateImage(ctx context.Context, task types.Task, rec *recorder) (map[string]any, error) {
	resolved := a.resolveImageSpec(ctx, task)

	specSource := "model"
	if resolved.FromFallback {
		specSource = "fallback"
	}
	rec.add(&types.Observation{
		Success: true,
		Data: map[string]any{
			"step":        "image_spec",
			"spec":        resolved.Spec,
			"spec_source": specSource,
		},
		Timestamp: time.Now(),
	})

	result, err := a.images.GenerateImage(ctx, llm.ImageRequest{
		Prompt: resolved.Spec.Prompt,
		Type:   resolved.Spec.Type,
		Style:  resolved.Spec.Style,
		Width:  resolved.Spec.Width,
		Height: resolved.Spec.Height,
		Params: map[string]any{"steps": resolved.Spec.Steps},
	})

	genObs := &types.Observation{
		Timestamp: time.Now(),
		Data:      map[string]any{"step": "image_generation"},
	}
	if result != nil {
		genObs.Data["model"] = result.Provider
		genObs.Data["generation_ms"] = result.Latency.Milliseconds()
	}

	if err != nil || result == nil || !result.Success {
		if err == nil {
			if result == nil {
				err = fmt.Errorf("image gateway returned no result")
			} else {
				err = fmt.Errorf("%s", result.Error)
			}
		}
		genObs.Success = false
		genObs.Error = err.Error()
		rec.add(genObs)
		return nil, &ImageGenerationError{Err: err}
	}

	genObs.Success = true
	rec.add(genObs)

	return map[string]any{
		"image":         result.ImageBase64,
		"model":         result.Provider,
		"generation_ms": result.Latency.Milliseconds(),
		"spec":          resolved.Spec,
		"spec_source":   specSource,
	}, nil
}

package openai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hummhq/humm/pkg/llm"
	"github.com/hummhq/humm/pkg/logging"
)

// Default models tried by the image gateway, in order.
const (
	DefaultImageModel    = "gpt-image-1"
	DefaultImageAltModel = "dall-e-3"
)

// ImageProvider implements llm.ImageGateway over the Images API. It tries a
// primary model first and an alternate model on failure.
type ImageProvider struct {
	client   openai.Client
	primary  string
	fallback string
	log      *logging.Logger
}

// ImageOption configures an ImageProvider.
type ImageOption func(*ImageProvider)

// WithImageModels sets the primary and alternate models.
func WithImageModels(primary, fallback string) ImageOption {
	return func(p *ImageProvider) {
		p.primary = primary
		p.fallback = fallback
	}
}

// NewImageProvider creates an image gateway. An empty apiKey falls back to
// OPENAI_API_KEY; an empty baseURL falls back to OPENAI_BASE_URL and then
// the library default.
func NewImageProvider(apiKey, baseURL string, log *logging.Logger, opts ...ImageOption) (*ImageProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	p := &ImageProvider{
		client:   openai.NewClient(clientOpts...),
		primary:  DefaultImageModel,
		fallback: DefaultImageAltModel,
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// GenerateImage tries the primary model, then the alternate. On total
// failure it returns both a failed result and a GatewayError so callers can
// surface the provider's error text.
func (p *ImageProvider) GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResult, error) {
	start := time.Now()

	models := []string{p.primary}
	if p.fallback != "" && p.fallback != p.primary {
		models = append(models, p.fallback)
	}

	var lastErr error
	for _, model := range models {
		encoded, err := p.generateWith(ctx, model, req)
		if err != nil {
			p.log.Warnf("image model %s failed: %v", model, err)
			lastErr = err
			continue
		}
		return &llm.ImageResult{
			Success:     true,
			ImageBase64: encoded,
			Provider:    model,
			Latency:     time.Since(start),
		}, nil
	}

	gwErr := &llm.GatewayError{Provider: "images", Err: lastErr}
	return &llm.ImageResult{
		Success:  false,
		Provider: "images",
		Latency:  time.Since(start),
		Error:    gwErr.Error(),
	}, gwErr
}

func (p *ImageProvider) generateWith(ctx context.Context, model string, req llm.ImageRequest) (string, error) {
	prompt := req.Prompt
	if req.Style != "" {
		prompt = fmt.Sprintf("%s\n\nStyle: %s", prompt, req.Style)
	}

	resp, err := p.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(model),
		Size:           openai.ImageGenerateParamsSize(sizeFor(req.Width, req.Height)),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("model %s returned no image data", model)
	}

	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// sizeFor snaps requested dimensions to the API's supported sizes; unknown
// combinations fall back to the 1024 square.
func sizeFor(width, height int) string {
	switch {
	case width == 0 && height == 0:
		return "1024x1024"
	case width == height:
		return "1024x1024"
	case width > height:
		return "1792x1024"
	default:
		return "1024x1792"
	}
}

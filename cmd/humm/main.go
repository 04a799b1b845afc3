// Package main provides the humm command: a headless browser agent that
// runs one task to completion and emits the result as JSON, suitable for
// scripting and CI pipelines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"github.com/hummhq/humm/pkg/agent"
	"github.com/hummhq/humm/pkg/browser"
	"github.com/hummhq/humm/pkg/config"
	"github.com/hummhq/humm/pkg/llm"
	"github.com/hummhq/humm/pkg/llm/openai"
	"github.com/hummhq/humm/pkg/logging"
	"github.com/hummhq/humm/pkg/types"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ConfigFile string

	TaskFile    string
	TaskType    string
	Description string
	Query       string
	URL         string
	Selector    string
	LiveView    bool
	LiveViewWS  string

	Timeout     time.Duration
	OutputFile  string
	ShowVersion bool
}

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("humm v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		cancel()
	}()

	if err := run(ctx, cliConfig); err != nil {
		cancel()
		log.Printf("execution failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.APIKey, "api-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	flag.StringVar(&cliConfig.BaseURL, "base-url", "", "OpenAI API base URL (defaults to OPENAI_BASE_URL)")
	flag.StringVar(&cliConfig.Model, "model", "", "chat model for analysis and summaries")
	flag.StringVar(&cliConfig.ConfigFile, "config", "", "path to configuration file (YAML)")

	flag.StringVar(&cliConfig.TaskFile, "task-file", "", "path to a JSON task file")
	flag.StringVar(&cliConfig.TaskType, "type", "", "task type: research, scrape, navigate, monitor, live_demo, generate_image")
	flag.StringVar(&cliConfig.Description, "description", "", "human-readable task description")
	flag.StringVar(&cliConfig.Query, "query", "", "free-text query for research and generate_image tasks")
	flag.StringVar(&cliConfig.URL, "url", "", "target URL for page tasks")
	flag.StringVar(&cliConfig.Selector, "selector", "", "CSS selector scoping extraction or monitoring")
	flag.BoolVar(&cliConfig.LiveView, "live-view", false, "stream screenshots during live_demo tasks")
	flag.StringVar(&cliConfig.LiveViewWS, "live-view-ws", "", "websocket URL that receives live-view frames")

	flag.DurationVar(&cliConfig.Timeout, "timeout", 5*time.Minute, "execution timeout")
	flag.StringVar(&cliConfig.OutputFile, "output", "", "write the result JSON to this file instead of stdout")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "humm - headless browser agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: humm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Scrape a page\n")
		fmt.Fprintf(os.Stderr, "  humm -type scrape -url https://example.com\n\n")
		fmt.Fprintf(os.Stderr, "  # Research a question\n")
		fmt.Fprintf(os.Stderr, "  humm -type research -query \"how did the market close today\"\n\n")
		fmt.Fprintf(os.Stderr, "  # Run a task from a file\n")
		fmt.Fprintf(os.Stderr, "  humm -task-file demo-task.json -output result.json\n\n")
	}

	flag.Parse()
	return cliConfig
}

func run(ctx context.Context, cliConfig *CLIConfig) error {
	cfg, err := config.Load(cliConfig.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// CLI flags override the config file.
	if cliConfig.APIKey != "" {
		cfg.Gateway.APIKey = cliConfig.APIKey
	}
	if cliConfig.BaseURL != "" {
		cfg.Gateway.BaseURL = cliConfig.BaseURL
	}
	if cliConfig.Model != "" {
		cfg.Gateway.Model = cliConfig.Model
	}

	task, err := loadTask(cliConfig)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger("humm")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	controller := browser.NewController(cfg, logger)

	text := buildTextGateway(cfg, logger)
	images := buildImageGateway(cfg, logger)

	opts := []agent.Option{}
	if cliConfig.LiveViewWS != "" {
		conn, _, dialErr := websocket.Dial(ctx, cliConfig.LiveViewWS, nil)
		if dialErr != nil {
			return fmt.Errorf("failed to connect live-view sink: %w", dialErr)
		}
		sink := browser.NewWebSocketSink(conn, logger, 0)
		defer sink.Close()
		opts = append(opts, agent.WithFrameSink(sink))
	}

	a := agent.New(controller, text, images, logger, opts...)
	defer func() {
		if shutdownErr := a.Shutdown(); shutdownErr != nil {
			logger.Warnf("shutdown: %v", shutdownErr)
		}
	}()

	if cliConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliConfig.Timeout)
		defer cancel()
	}

	log.Printf("running %s task...", task.Type)
	result := a.ExecuteTask(ctx, task)
	log.Printf("task %s finished (success=%t, %d observations)", result.TaskID, result.Success, len(result.Observations))

	if err := writeResult(cliConfig.OutputFile, result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("task did not succeed: %s", result.Summary)
	}
	return nil
}

// buildTextGateway assembles the provider fallback chain. Provider
// construction failures (typically a missing API key) are logged and
// skipped; an empty chain still answers with the canned response.
func buildTextGateway(cfg *config.Config, logger *logging.Logger) llm.Gateway {
	var providers []llm.Provider

	primary, err := openai.NewProvider(cfg.Gateway.APIKey,
		openai.WithModel(cfg.Gateway.Model),
		openai.WithBaseURL(cfg.Gateway.BaseURL))
	if err != nil {
		logger.Warnf("primary provider unavailable: %v", err)
	} else {
		providers = append(providers, primary)
	}

	if cfg.Gateway.FallbackModel != "" {
		fallback, err := openai.NewProvider(cfg.Gateway.APIKey,
			openai.WithModel(cfg.Gateway.FallbackModel),
			openai.WithBaseURL(cfg.Gateway.BaseURL))
		if err != nil {
			logger.Warnf("fallback provider unavailable: %v", err)
		} else {
			providers = append(providers, fallback)
		}
	}

	return llm.NewChain(logger, providers...)
}

// buildImageGateway creates the image provider, degrading to a gateway that
// reports unavailability when no API key is configured.
func buildImageGateway(cfg *config.Config, logger *logging.Logger) llm.ImageGateway {
	images, err := openai.NewImageProvider(cfg.Gateway.APIKey, cfg.Gateway.BaseURL, logger,
		openai.WithImageModels(cfg.Gateway.ImageModel, cfg.Gateway.ImageAltModel))
	if err != nil {
		logger.Warnf("image gateway unavailable: %v", err)
		return unavailableImageGateway{}
	}
	return images
}

// unavailableImageGateway fails every request with a configuration error.
type unavailableImageGateway struct{}

func (unavailableImageGateway) GenerateImage(context.Context, llm.ImageRequest) (*llm.ImageResult, error) {
	err := fmt.Errorf("no image provider configured")
	return &llm.ImageResult{Success: false, Error: err.Error()},
		&llm.GatewayError{Provider: "none", Err: err}
}

// loadTask builds the task from a JSON file or from flags.
func loadTask(cliConfig *CLIConfig) (types.Task, error) {
	var task types.Task

	if cliConfig.TaskFile != "" {
		data, err := os.ReadFile(cliConfig.TaskFile)
		if err != nil {
			return task, fmt.Errorf("failed to read task file: %w", err)
		}
		if err := json.Unmarshal(data, &task); err != nil {
			return task, fmt.Errorf("failed to parse task file: %w", err)
		}
	} else {
		task = types.Task{
			Type:           types.TaskType(cliConfig.TaskType),
			Description:    cliConfig.Description,
			UserQuery:      cliConfig.Query,
			TargetURL:      cliConfig.URL,
			Selector:       cliConfig.Selector,
			EnableLiveView: cliConfig.LiveView,
		}
	}

	if !task.Type.Valid() {
		return task, fmt.Errorf("invalid task type %q (use -type or a task file)", task.Type)
	}
	if task.Description == "" {
		task.Description = fmt.Sprintf("%s task", task.Type)
	}
	return task, nil
}

// writeResult emits the result JSON to the output file, or stdout when no
// file is given.
func writeResult(path string, result *types.AgentResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

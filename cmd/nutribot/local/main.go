package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nutriroutine"
	"nutriroutine/catalog"
	"nutriroutine/catalog/storage"
	"nutriroutine/chat"
	"nutriroutine/coordinator/bedrock"
	"nutriroutine/coordinator/mock"
	"nutriroutine/coordinator/ollama"
	"nutriroutine/recommend"
	"nutriroutine/session"
	"nutriroutine/slack"
	"nutriroutine/tools"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Runs a chat session on stdin against a file catalog. The first argument is the
// user id (default 1). Set OTEL_ENABLED=true to export telemetry.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var engineConfig nutriroutine.EngineConfig
	if err := envdecode.Decode(&engineConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	userID := int64(1)
	if len(os.Args) > 1 {
		id, err := strconv.ParseInt(os.Args[1], 10, 64)
		if err != nil || id <= 0 {
			log.Fatalf("SETUP: invalid user id %q", os.Args[1])
		}
		userID = id
	}

	mem, err := catalog.Load(ctx, storage.NewFileCatalogState(engineConfig.CatalogPath))
	if err != nil {
		slog.Error("SETUP: Failed to load catalog", "path", engineConfig.CatalogPath, "error", err)
		return
	}
	slog.Info("SETUP: Catalog loaded", "path", engineConfig.CatalogPath)

	var (
		tracer trace.Tracer
		meter  metric.Meter
	)
	if os.Getenv("OTEL_ENABLED") == "true" {
		tracerProvider, meterProvider, otelShutdown, err := nutriroutine.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return
		}
		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()
		tracer = tracerProvider.Tracer(nutriroutine.TracerNameChat)
		meter = meterProvider.Meter(nutriroutine.MeterNameChat)
	}

	generator, label, err := newGenerator(ctx, engineConfig, mem)
	if err != nil {
		slog.Error("SETUP: Failed to create generator", "backend", engineConfig.Generator, "error", err)
		return
	}

	turnLogger, cleanup, err := newTurnLogger(label)
	if err != nil {
		slog.Error("SETUP: Failed to create turn logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush turn log", "error", err)
		}
	}()

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := new(bytes.Buffer)
		body.ReadFrom(r.Body) // nolint: errcheck
		slog.Info("Received request",
			"method", r.Method,
			"path", r.URL.Path,
			"body", body.String(),
		)
		w.WriteHeader(http.StatusOK)
	}))
	defer testServer.Close()

	webhook := engineConfig.SlackWebhookURL
	if webhook == "" {
		webhook = testServer.URL
	}

	sessions := session.NewStore(session.WithTTL(engineConfig.SessionTTL))
	go sessions.Run(ctx, engineConfig.SessionSweepInterval)

	engine := recommend.NewEngine(mem, recommend.Options{
		Generator: generator,
		Timeout:   engineConfig.GenerationTimeout,
		Seed:      engineConfig.RandomSeed,
	})
	svc, err := chat.NewInstrumentedService(chat.NewService(mem, mem, engine, chat.Options{
		Generator:       generator,
		FreeformTimeout: engineConfig.GenerationTimeout,
		Sessions:        sessions,
		TurnLogger:      turnLogger,
		Slack:           slack.NewClient(webhook, http.DefaultClient),
		SlackChannel:    engineConfig.SlackChannel,
		Tracer:          tracer,
	}), meter)
	if err != nil {
		slog.Error("SETUP: Failed to register chat metrics", "error", err)
		return
	}

	if _, err := svc.StartSession(ctx, userID, ""); err != nil {
		slog.Error("SETUP: Failed to start session", "error", err)
		return
	}
	fmt.Printf("NutriBot (%s). Escribe 'salir' para terminar.\n", label)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "salir") {
			break
		}

		resp, err := svc.Handle(ctx, chat.Request{UserID: userID, Message: line})
		if err != nil {
			slog.Error("RESULT: Error handling turn", "error", err)
			continue
		}
		fmt.Printf("\n%s\n\n", resp.ResponseText)
	}
	if err := scanner.Err(); err != nil {
		slog.Error("RESULT: Failed to read input", "error", err)
	}

	if err := svc.EndSession(ctx, userID); err != nil && !errors.Is(err, nutriroutine.ErrNotFound) {
		slog.Error("RESULT: Failed to end session", "error", err)
	}
}

// newGenerator builds the configured backend and returns a label for the turn log.
func newGenerator(ctx context.Context, cfg nutriroutine.EngineConfig, mem *catalog.Memory) (nutriroutine.TextGenerator, string, error) {
	backend := strings.ToLower(cfg.Generator)
	if backend == "mock" {
		return &mock.Generator{}, "mock", nil
	}

	var modelConfig nutriroutine.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		return nil, "", err
	}

	switch backend {
	case "bedrock":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		llm := bedrock.NewLLMClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})
		return bedrock.NewGenerator(llm, tools.NewRegistry(mem), bedrock.Options{
			MaxIterations: cfg.MaxToolIterations,
		}), modelConfig.ModelID, nil
	case "ollama":
		llm, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.BaseOllamaEndpoint,
			ModelID:      modelConfig.ModelID,
			Temperature:  modelConfig.Temperature,
			TopP:         modelConfig.TopP,
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			return nil, "", err
		}
		return ollama.NewGenerator(llm, nil, cfg.MaxToolIterations), modelConfig.ModelID, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown generator %q", nutriroutine.ErrValidation, cfg.Generator)
	}
}

func newTurnLogger(label string) (nutriroutine.TurnLogger, func() error, error) {
	logFilePath := nutriroutine.NewTurnLogFilePath(label)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := nutriroutine.NewFileTurnLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}

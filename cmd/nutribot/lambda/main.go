package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"nutriroutine"
	"nutriroutine/catalog"
	"nutriroutine/catalog/storage"
	"nutriroutine/chat"
	"nutriroutine/coordinator/bedrock"
	"nutriroutine/recommend"
	"nutriroutine/session"
	"nutriroutine/slack"
	"nutriroutine/tools"
)

func main() {
	ctx := context.Background()

	var modelConfig nutriroutine.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var engineConfig nutriroutine.EngineConfig
	if err := envdecode.Decode(&engineConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}
	if engineConfig.CatalogS3Bucket == "" {
		log.Fatalf("SETUP: missing S3 config: CATALOG_S3_BUCKET must be set")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		log.Fatalf("SETUP: Failed to load AWS config: %s", err)
	}

	state := storage.NewS3CatalogState(s3.NewFromConfig(awsCfg), engineConfig.CatalogS3Bucket, engineConfig.CatalogS3Key)
	mem, err := catalog.Load(ctx, state)
	if err != nil {
		log.Fatalf("SETUP: Failed to load catalog from S3: %s", err)
	}
	slog.Info("SETUP: Catalog loaded from S3",
		"bucket", engineConfig.CatalogS3Bucket,
		"key", engineConfig.CatalogS3Key)

	tracerProvider, meterProvider, otelShutdown, err := nutriroutine.InitOtel(ctx)
	if err != nil {
		log.Fatalf("SETUP: Failed to initialize OpenTelemetry: %s", err)
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	llm := bedrock.NewLLMClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
		ModelID:     modelConfig.ModelID,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
	})
	generator := bedrock.NewGenerator(llm, tools.NewRegistry(mem), bedrock.Options{
		MaxIterations: engineConfig.MaxToolIterations,
		Tracer:        tracerProvider.Tracer(nutriroutine.TracerNameBedrock),
		Meter:         meterProvider.Meter(nutriroutine.MeterNameChat),
	})

	engine := recommend.NewEngine(mem, recommend.Options{
		Generator: generator,
		Timeout:   engineConfig.GenerationTimeout,
		Seed:      engineConfig.RandomSeed,
	})

	// Warm Lambda containers keep sessions between invocations.
	sessions := session.NewStore(session.WithTTL(engineConfig.SessionTTL))
	go sessions.Run(ctx, engineConfig.SessionSweepInterval)

	opts := chat.Options{
		Generator:       generator,
		FreeformTimeout: engineConfig.GenerationTimeout,
		Sessions:        sessions,
		TurnLogger:      nutriroutine.NewStdoutTurnLogger(),
		SlackChannel:    engineConfig.SlackChannel,
		Tracer:          tracerProvider.Tracer(nutriroutine.TracerNameChat),
	}
	if engineConfig.SlackWebhookURL != "" {
		opts.Slack = slack.NewClient(engineConfig.SlackWebhookURL, http.DefaultClient)
	}

	svc, err := chat.NewInstrumentedService(chat.NewService(mem, mem, engine, opts), meterProvider.Meter(nutriroutine.MeterNameChat))
	if err != nil {
		log.Fatalf("SETUP: Failed to register chat metrics: %s", err)
	}

	fn := func(ctx context.Context, req chat.Request) (chat.Response, error) {
		if req.UserID <= 0 {
			return chat.Response{}, fmt.Errorf("%w: user_id must be positive", nutriroutine.ErrValidation)
		}
		resp, err := svc.Handle(ctx, req)
		if err != nil {
			slog.Error("RESULT: Error handling turn", "user_id", req.UserID, "error", err)
			return chat.Response{}, err
		}
		slog.Info("RESULT: Turn handled", "user_id", req.UserID, "route", resp.Route)

		// Metrics would otherwise sit in the periodic reader until the container freezes.
		if err := meterProvider.ForceFlush(ctx); err != nil {
			slog.Warn("RESULT: Failed to flush metrics", "error", err)
		}
		return resp, nil
	}

	lambda.Start(fn)
}

package nutriroutine

import "time"

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,required"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type EngineConfig struct {
	CatalogPath          string        `env:"CATALOG_PATH,default=artifacts/catalog.json"`
	CatalogS3Bucket      string        `env:"CATALOG_S3_BUCKET"`
	CatalogS3Key         string        `env:"CATALOG_S3_KEY,default=catalog.json"`
	SessionTTL           time.Duration `env:"SESSION_TTL,default=30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL,default=1m"`
	GenerationTimeout    time.Duration `env:"GENERATION_TIMEOUT,default=20s"`
	MaxToolIterations    int           `env:"MAX_TOOL_ITERATIONS,default=4"`
	Generator            string        `env:"GENERATOR,default=bedrock"`
	BaseOllamaEndpoint   string        `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	SlackWebhookURL      string        `env:"SLACK_WEBHOOK_URL"`
	SlackChannel         string        `env:"SLACK_CHANNEL,default=#nutribot"`
	RandomSeed           int64         `env:"RANDOM_SEED,default=0"`
}

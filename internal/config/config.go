package config

import "github.com/kelseyhightower/envconfig"

type APIConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Bearer token expected on every API call. Issued out of band.
	APIAuthToken string `envconfig:"API_AUTH_TOKEN" required:"true"`

	// External campaign-agent + compliance backends
	AgentBaseURL      string `envconfig:"AGENT_BASE_URL" required:"true"`
	AgentAuthToken    string `envconfig:"AGENT_AUTH_TOKEN" required:"true"`
	ComplianceBaseURL string `envconfig:"COMPLIANCE_BASE_URL" required:"true"`
	ComplianceUseAI   bool   `envconfig:"COMPLIANCE_USE_AI" default:"false"`

	// Per-draft cap on compliance check attempts for one filename.
	ComplianceMaxAttemptsPerFile int `envconfig:"COMPLIANCE_MAX_ATTEMPTS_PER_FILE" default:"3"`

	// Upload limits
	MaxAttachmentBytes int64 `envconfig:"MAX_ATTACHMENT_BYTES" default:"10485760"`
	MaxDocumentBytes   int64 `envconfig:"MAX_DOCUMENT_BYTES" default:"20971520"`
}

type ScannerConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	AgentBaseURL   string `envconfig:"AGENT_BASE_URL" required:"true"`
	AgentAuthToken string `envconfig:"AGENT_AUTH_TOKEN" required:"true"`

	// OrgID the mirrored campaign rows are attributed to; the agent
	// token is already scoped to one organization.
	OrgID string `envconfig:"ORG_ID" required:"true"`

	// Delivery scan cadence. A tick that fires while a cycle is still
	// running is skipped, never queued.
	ScanInterval string `envconfig:"SCAN_INTERVAL" default:"5s"`

	// Outbound protection for the campaign agent.
	AgentRPS   float64 `envconfig:"AGENT_RPS" default:"5"`
	AgentBurst int     `envconfig:"AGENT_BURST" default:"10"`
}

type WebhookConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Webhook signature verification
	AgentWebhookSecret string `envconfig:"AGENT_WEBHOOK_SECRET" required:"true"`
	PublicWebhookURL   string `envconfig:"PUBLIC_WEBHOOK_URL" required:"true"` // must match EXACT URL registered with the agent

	// AWS / SQS
	AWSRegion              string `envconfig:"AWS_REGION" required:"true"`
	DeliveryEventsQueueURL string `envconfig:"DELIVERY_EVENTS_QUEUE_URL" required:"true"`
	LocalstackEndpoint     string `envconfig:"LOCALSTACK_ENDPOINT"`
}

type ProcessorConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// AWS / SQS
	AWSRegion              string `envconfig:"AWS_REGION" required:"true"`
	DeliveryEventsQueueURL string `envconfig:"DELIVERY_EVENTS_QUEUE_URL" required:"true"`
	LocalstackEndpoint     string `envconfig:"LOCALSTACK_ENDPOINT"`
	SQSWaitTime            int32  `envconfig:"SQS_WAIT_TIME" default:"20"`
	SQSMaxMsgs             int32  `envconfig:"SQS_MAX_MSGS" default:"10"`
	SQSVizTimeout          int32  `envconfig:"SQS_VISIBILITY_TIMEOUT" default:"60"`
	ProcessorConcurrency   int    `envconfig:"PROCESSOR_CONCURRENCY" default:"10"`

	// Redis dedup for duplicate delivery events
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

func LoadAPI() APIConfig {
	var cfg APIConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func LoadScanner() ScannerConfig {
	var cfg ScannerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func LoadWebhook() WebhookConfig {
	var cfg WebhookConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func LoadProcessor() ProcessorConfig {
	var cfg ProcessorConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

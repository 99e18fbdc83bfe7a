package openai

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Config for the OpenAI client.
type Config struct {
	APIKey           string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL          string        // default https://api.openai.com/v1
	Model            string        // e.g., "gpt-4o-mini"
	Temperature      float32       // 0..2
	Timeout          time.Duration // per attempt
	MaxRetries       int           // retries after the first attempt on transient failures
	RetryDelay       time.Duration
	StructuredOutput bool // request json_schema response format
	HTTPClient       *http.Client
}

type Client struct {
	cfg    Config
	client openai.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// retries are driven by Complete so the attempt budget stays explicit
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		cfg:    cfg,
		client: openai.NewClient(opts...),
		logger: logger,
	}
}

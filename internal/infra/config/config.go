package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Upload        UploadConfig        `yaml:"upload"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	LLM           LLMConfig           `yaml:"llm"`
	Summarizer    SummarizerConfig    `yaml:"summarizer"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	CorsOrigins  []string        `yaml:"corsOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// UploadConfig bounds incoming audio files and selects blob storage.
type UploadConfig struct {
	MaxBytes          int64         `yaml:"maxBytes"`
	AllowedExtensions []string      `yaml:"allowedExtensions"`
	Storage           StorageConfig `yaml:"storage"`
}

// StorageConfig selects where uploaded audio is kept until transcription.
type StorageConfig struct {
	Backend  string   `yaml:"backend"`
	LocalDir string   `yaml:"localDir"`
	S3       S3Config `yaml:"s3"`
}

// S3Config contains credentials for an S3 compatible object store.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSsl"`
}

// TranscriptionConfig contains AssemblyAI settings.
type TranscriptionConfig struct {
	APIKey       string        `yaml:"apiKey"`
	BaseURL      string        `yaml:"baseUrl"`
	PollInterval time.Duration `yaml:"pollInterval"`
	PollTimeout  time.Duration `yaml:"pollTimeout"`
}

// LLMConfig contains OpenAI chat completion settings.
type LLMConfig struct {
	APIKey         string        `yaml:"apiKey"`
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	Temperature    float32       `yaml:"temperature"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// SummarizerConfig defines the chunked summarization pipeline knobs.
type SummarizerConfig struct {
	TokenThreshold    int           `yaml:"tokenThreshold"`
	TargetChunkTokens int           `yaml:"targetChunkTokens"`
	MaxAttempts       int           `yaml:"maxAttempts"`
	BaseBackoff       time.Duration `yaml:"baseBackoff"`
	MapConcurrency    int           `yaml:"mapConcurrency"`
	ResponseMaxTokens int           `yaml:"responseMaxTokens"`
	SystemPrompt      string        `yaml:"systemPrompt"`
	ExactTokenCounts  bool          `yaml:"exactTokenCounts"`
	DegradedFallback  bool          `yaml:"degradedFallback"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CorsOrigins = splitCSV(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("UPLOAD_MAX_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxBytes = parsed
		}
	}
	if v := os.Getenv("UPLOAD_STORAGE_BACKEND"); v != "" {
		cfg.Upload.Storage.Backend = v
	}
	if v := os.Getenv("UPLOAD_LOCAL_DIR"); v != "" {
		cfg.Upload.Storage.LocalDir = v
	}
	if v := os.Getenv("UPLOAD_S3_ENDPOINT"); v != "" {
		cfg.Upload.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("UPLOAD_S3_ACCESS_KEY"); v != "" {
		cfg.Upload.Storage.S3.AccessKey = v
	}
	if v := os.Getenv("UPLOAD_S3_SECRET_KEY"); v != "" {
		cfg.Upload.Storage.S3.SecretKey = v
	}
	if v := os.Getenv("UPLOAD_S3_BUCKET"); v != "" {
		cfg.Upload.Storage.S3.Bucket = v
	}
	if v := os.Getenv("UPLOAD_S3_REGION"); v != "" {
		cfg.Upload.Storage.S3.Region = v
	}
	if v := os.Getenv("UPLOAD_S3_USE_SSL"); v != "" {
		cfg.Upload.Storage.S3.UseSSL = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("ASSEMBLYAI_API_KEY"); v != "" {
		cfg.Transcription.APIKey = v
	}
	if v := os.Getenv("ASSEMBLYAI_BASE_URL"); v != "" {
		cfg.Transcription.BaseURL = v
	}
	if v := os.Getenv("ASSEMBLYAI_POLL_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Transcription.PollInterval = parsed
		}
	}
	if v := os.Getenv("ASSEMBLYAI_POLL_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Transcription.PollTimeout = parsed
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_REQUEST_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.RequestTimeout = parsed
		}
	}
	if v := os.Getenv("SUMMARIZER_TOKEN_THRESHOLD"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summarizer.TokenThreshold = parsed
		}
	}
	if v := os.Getenv("SUMMARIZER_TARGET_CHUNK_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summarizer.TargetChunkTokens = parsed
		}
	}
	if v := os.Getenv("SUMMARIZER_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summarizer.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("SUMMARIZER_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Summarizer.BaseBackoff = parsed
		}
	}
	if v := os.Getenv("SUMMARIZER_MAP_CONCURRENCY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summarizer.MapConcurrency = parsed
		}
	}
	if v := os.Getenv("SUMMARIZER_RESPONSE_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summarizer.ResponseMaxTokens = parsed
		}
	}
	if v := os.Getenv("SUMMARIZER_SYSTEM_PROMPT"); v != "" {
		cfg.Summarizer.SystemPrompt = v
	}
	if v := os.Getenv("SUMMARIZER_EXACT_TOKENS"); v != "" {
		cfg.Summarizer.ExactTokenCounts = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SUMMARIZER_DEGRADED_FALLBACK"); v != "" {
		cfg.Summarizer.DegradedFallback = v == "1" || strings.EqualFold(v, "true")
	}
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address: ":8080",
			// Uploads arrive as a single large body and summaries block on
			// provider round trips, so both timeouts stay generous.
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 5 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Upload: UploadConfig{
			MaxBytes:          100 << 20,
			AllowedExtensions: []string{"webm", "mp3", "wav", "m4a", "ogg"},
			Storage: StorageConfig{
				Backend:  "local",
				LocalDir: "uploads",
			},
		},
		Transcription: TranscriptionConfig{
			BaseURL:      "https://api.assemblyai.com",
			PollInterval: 3 * time.Second,
			PollTimeout:  10 * time.Minute,
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			Temperature:    0.75,
			RequestTimeout: 60 * time.Second,
		},
		Summarizer: SummarizerConfig{
			TokenThreshold:    12000,
			TargetChunkTokens: 3000,
			MaxAttempts:       3,
			BaseBackoff:       500 * time.Millisecond,
			MapConcurrency:    4,
			ResponseMaxTokens: 1500,
			SystemPrompt:      defaultSystemPrompt,
			ExactTokenCounts:  false,
			DegradedFallback:  true,
		},
	}
}

const defaultSystemPrompt = "You are an expert at summarizing audio notes and transcriptions. Create a concise yet comprehensive summary that captures the key points, main topics, and important details. Structure the summary with these sections: Main Topics/Themes, Key Points, Action Items/Next Steps (if any), and Notable Details."

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.maxBytes must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New("upload.allowedExtensions cannot be empty")
	}
	switch c.Upload.Storage.Backend {
	case "local":
		if strings.TrimSpace(c.Upload.Storage.LocalDir) == "" {
			return errors.New("upload.storage.localDir cannot be empty for the local backend")
		}
	case "s3":
		s3 := c.Upload.Storage.S3
		if s3.Endpoint == "" || s3.AccessKey == "" || s3.SecretKey == "" || s3.Bucket == "" {
			return errors.New("upload.storage.s3 requires endpoint, accessKey, secretKey and bucket")
		}
	case "memory":
	default:
		return fmt.Errorf("upload.storage.backend %q is not one of local, s3, memory", c.Upload.Storage.Backend)
	}
	if c.Transcription.BaseURL == "" {
		return errors.New("transcription.baseUrl cannot be empty")
	}
	if c.Transcription.PollInterval <= 0 {
		return errors.New("transcription.pollInterval must be positive")
	}
	if c.Transcription.PollTimeout <= c.Transcription.PollInterval {
		return errors.New("transcription.pollTimeout must exceed pollInterval")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be within [0, 2]")
	}
	if c.LLM.RequestTimeout <= 0 {
		return errors.New("llm.requestTimeout must be positive")
	}
	if c.Summarizer.TokenThreshold <= 0 {
		return errors.New("summarizer.tokenThreshold must be positive")
	}
	if c.Summarizer.TargetChunkTokens <= 0 {
		return errors.New("summarizer.targetChunkTokens must be positive")
	}
	if c.Summarizer.TargetChunkTokens >= c.Summarizer.TokenThreshold {
		return errors.New("summarizer.targetChunkTokens must be below tokenThreshold")
	}
	if c.Summarizer.MaxAttempts <= 0 {
		return errors.New("summarizer.maxAttempts must be positive")
	}
	if c.Summarizer.MaxAttempts > 1 && c.Summarizer.BaseBackoff <= 0 {
		return errors.New("summarizer.baseBackoff must be positive when retries are enabled")
	}
	if c.Summarizer.MapConcurrency <= 0 {
		return errors.New("summarizer.mapConcurrency must be positive")
	}
	if c.Summarizer.ResponseMaxTokens <= 0 {
		return errors.New("summarizer.responseMaxTokens must be positive")
	}
	if strings.TrimSpace(c.Summarizer.SystemPrompt) == "" {
		return errors.New("summarizer.systemPrompt cannot be empty")
	}
	return nil
}

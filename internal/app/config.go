package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/bedrockconverse"
	"github.com/claude-vim/claude-bridge/internal/transcript"
)

// Config is the complete application configuration.
type Config struct {
	Bedrock     BedrockConfig     `koanf:"bedrock"`
	Translation TranslationConfig `koanf:"translation"`
	Store       StoreConfig       `koanf:"store"`
	Server      ServerConfig      `koanf:"server"`
	Log         LogConfig         `koanf:"log"`
}

// BedrockConfig selects the Bedrock runtime and the inference defaults.
type BedrockConfig struct {
	Region      string   `koanf:"region"`
	Profile     string   `koanf:"profile"`
	Endpoint    string   `koanf:"endpoint" validate:"omitempty,url"`
	ModelID     string   `koanf:"model_id"`
	Models      []string `koanf:"models"`
	MaxTokens   int      `koanf:"max_tokens" validate:"gte=1"`
	Temperature float64  `koanf:"temperature" validate:"gte=0,lte=1"`
}

// TranslationConfig controls request translation.
type TranslationConfig struct {
	UnknownBlocks string `koanf:"unknown_blocks" validate:"oneof=drop reject"`
}

// StoreConfig locates the transcript database. An empty path selects the XDG default.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// ServerConfig configures the HTTP server of the serve command.
type ServerConfig struct {
	Listen          string        `koanf:"listen" validate:"required,hostname_port"`
	MaxRequestBytes int64         `koanf:"max_request_bytes" validate:"gte=1"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level    string `koanf:"level" validate:"oneof=debug info warn error"`
	Format   string `koanf:"format" validate:"oneof=text json"`
	Exporter string `koanf:"exporter" validate:"oneof=none console otlp-http otlp-grpc"`
}

// Defaults returns the configuration defaults as a flat koanf key map.
func Defaults() map[string]any {
	return map[string]any{
		"bedrock.max_tokens":         2048,
		"bedrock.temperature":        0.7,
		"translation.unknown_blocks": string(bedrockconverse.UnknownBlockDrop),
		"server.listen":              "127.0.0.1:4000",
		"server.max_request_bytes":   10 << 20,
		"server.shutdown_timeout":    "5s",
		"log.level":                  "info",
		"log.format":                 "text",
		"log.exporter":               "none",
	}
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s: failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireUpstream checks the settings needed to call Bedrock.
func (c *Config) RequireUpstream() error {
	if c.Bedrock.Region == "" {
		return errors.New("bedrock region is required (--region, CLAUDE_BRIDGE_BEDROCK__REGION or bedrock.region)")
	}
	return nil
}

// ClientConfig returns the Bedrock client settings.
func (c *Config) ClientConfig() bedrockconverse.ClientConfig {
	return bedrockconverse.ClientConfig{
		Region:   c.Bedrock.Region,
		Profile:  c.Bedrock.Profile,
		Endpoint: c.Bedrock.Endpoint,
	}
}

// RequestOptions returns the translation defaults.
func (c *Config) RequestOptions() bedrockconverse.RequestOptions {
	temperature := c.Bedrock.Temperature
	return bedrockconverse.RequestOptions{
		ModelID:       c.Bedrock.ModelID,
		MaxTokens:     c.Bedrock.MaxTokens,
		Temperature:   &temperature,
		UnknownBlocks: bedrockconverse.UnknownBlockPolicy(c.Translation.UnknownBlocks),
	}
}

// StorePath returns the configured transcript database path or the XDG default.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return transcript.DefaultPath()
}

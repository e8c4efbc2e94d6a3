package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/claude-vim/claude-bridge/internal/app"
)

// envPrefix namespaces environment overrides. Nested keys use a double
// underscore: CLAUDE_BRIDGE_BEDROCK__MODEL_ID sets bedrock.model_id.
const envPrefix = "CLAUDE_BRIDGE_"

// flagKeys maps CLI flags to the config keys they override.
var flagKeys = map[string]string{
	"region":         "bedrock.region",
	"profile":        "bedrock.profile",
	"endpoint":       "bedrock.endpoint",
	"model-id":       "bedrock.model_id",
	"max-tokens":     "bedrock.max_tokens",
	"temperature":    "bedrock.temperature",
	"unknown-blocks": "translation.unknown_blocks",
	"db":             "store.path",
	"listen":         "server.listen",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-exporter":   "log.exporter",
}

// loadConfig layers defaults, the optional TOML file at path, environment variables
// and explicitly set CLI flags, in increasing precedence, then validates the result.
func loadConfig(path string, cmd *cli.Command, environ func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(app.Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnvKey,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if cmd.IsSet(flag) {
			overrides[key] = cmd.Value(flag)
		}
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load flag overrides: %w", err)
		}
	}

	var cfg app.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// transformEnvKey turns CLAUDE_BRIDGE_SERVER__LISTEN into server.listen.
func transformEnvKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if key == "config" {
		// Consumed by the --config flag.
		return "", nil
	}
	return strings.ReplaceAll(key, "__", "."), value
}

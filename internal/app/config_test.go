package app

import (
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/bedrockconverse"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "temperature above range", mutate: func(c *Config) { c.Bedrock.Temperature = 1.5 }, wantErr: "Temperature"},
		{name: "zero max tokens", mutate: func(c *Config) { c.Bedrock.MaxTokens = 0 }, wantErr: "MaxTokens"},
		{name: "unknown policy", mutate: func(c *Config) { c.Translation.UnknownBlocks = "ignore" }, wantErr: "UnknownBlocks"},
		{name: "bad listen address", mutate: func(c *Config) { c.Server.Listen = "localhost" }, wantErr: "Listen"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "Format"},
		{name: "bad endpoint", mutate: func(c *Config) { c.Bedrock.Endpoint = "not a url" }, wantErr: "Endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_RequireUpstream(t *testing.T) {
	cfg := testConfig()
	assert.NoError(t, cfg.RequireUpstream())

	cfg.Bedrock.Region = ""
	assert.ErrorContains(t, cfg.RequireUpstream(), "region")
}

func TestConfig_RequestOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Translation.UnknownBlocks = "reject"

	opts := cfg.RequestOptions()

	assert.Equal(t, "anthropic.claude-test", opts.ModelID)
	assert.Equal(t, 2048, opts.MaxTokens)
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.7, *opts.Temperature, 1e-9)
	assert.Equal(t, bedrockconverse.UnknownBlockReject, opts.UnknownBlocks)
}

func TestConfig_StorePath(t *testing.T) {
	cfg := testConfig()

	cfg.Store.Path = "/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", cfg.StorePath())

	cfg.Store.Path = ""
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_DATA_HOME", "/xdg")
	xdg.Reload()
	assert.Equal(t, filepath.Join("/xdg", "claude-vim", "chats.db"), cfg.StorePath())
}

package proxy

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter/bedrockconverse"
)

const benchRequest = `{"messages":[{"role":"user","content":"Tell me a story"}],"stream":true}`

// textStream builds an upstream stream of n text deltas followed by stop and usage.
func textStream(n int) []bedrockconverse.StreamEvent {
	events := []bedrockconverse.StreamEvent{bedrockconverse.MessageStart{Role: "assistant"}}
	for i := range n {
		events = append(events, bedrockconverse.BlockDelta{
			Index: 0,
			Delta: bedrockconverse.TextDelta{Text: fmt.Sprintf("token %d ", i)},
		})
	}
	in, out := 12, n
	return append(events,
		bedrockconverse.BlockStop{Index: 0},
		bedrockconverse.MessageStop{StopReason: "end_turn"},
		bedrockconverse.Metadata{Usage: &bedrockconverse.TokenUsage{InputTokens: &in, OutputTokens: &out}},
	)
}

// setupBenchProxy creates a Proxy with full middleware stack but a fake upstream.
// Suppresses logging to isolate benchmark measurements from I/O overhead.
func setupBenchProxy(b *testing.B, streamer bedrockconverse.Streamer) *Proxy {
	b.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	slog.SetDefault(logger)

	proxy, err := New(streamer, staticReadiness(true),
		WithLogger(logger),
		WithRequestOptions(bedrockconverse.RequestOptions{ModelID: "anthropic.claude-bench"}),
	)
	if err != nil {
		b.Fatalf("Failed to create proxy: %v", err)
	}

	return proxy
}

// BenchmarkProxyStreaming measures end-to-end streaming latency including routing,
// middleware, handler, adapter, and SSE encoding. Excludes network latency to Bedrock.
func BenchmarkProxyStreaming(b *testing.B) {
	scenarios := []struct {
		name   string
		deltas int
	}{
		{name: "short", deltas: 10},
		{name: "long", deltas: 500},
	}

	for _, s := range scenarios {
		b.Run(s.name, func(b *testing.B) {
			proxy := setupBenchProxy(b, &fakeStreamer{events: textStream(s.deltas)})
			server := httptest.NewServer(proxy)
			defer server.Close()

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				resp, err := http.Post(server.URL+"/v1/messages", "application/json", strings.NewReader(benchRequest))
				if err != nil {
					b.Fatalf("Request failed: %v", err)
				}

				if resp.StatusCode != http.StatusOK {
					b.Fatalf("Unexpected status code: %d", resp.StatusCode)
				}

				if _, err := io.Copy(io.Discard, resp.Body); err != nil {
					b.Fatalf("Stream read error: %v", err)
				}
				_ = resp.Body.Close()
			}
		})
	}
}

// BenchmarkProxyStreaming_TTFB measures Time-To-First-Byte for streaming responses.
func BenchmarkProxyStreaming_TTFB(b *testing.B) {
	proxy := setupBenchProxy(b, &fakeStreamer{events: textStream(100)})
	server := httptest.NewServer(proxy)
	defer server.Close()

	b.ReportAllocs()
	b.ResetTimer()

	var totalTTFB time.Duration
	var iterations int
	buf := make([]byte, 1)

	for b.Loop() {
		start := time.Now()

		resp, err := http.Post(server.URL+"/v1/messages", "application/json", strings.NewReader(benchRequest))
		if err != nil {
			b.Fatalf("Request failed: %v", err)
		}

		// Read first byte to measure TTFB
		if _, err := resp.Body.Read(buf); err != nil {
			b.Fatalf("Failed to read first byte: %v", err)
		}

		totalTTFB += time.Since(start)
		iterations++

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	avgTTFB := totalTTFB / time.Duration(iterations)
	b.ReportMetric(float64(avgTTFB.Microseconds()), "µs/ttfb")
}

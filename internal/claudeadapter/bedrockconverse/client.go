package bedrockconverse

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// Streamer executes a Converse request against the vendor and returns its ordered
// event stream. A returned error means no event was received.
type Streamer interface {
	ConverseStream(ctx context.Context, req *ConverseRequest) (iter.Seq2[StreamEvent, error], error)
}

// ClientConfig selects the AWS region, profile and endpoint of the Bedrock runtime.
// Credentials are resolved by the SDK default chain.
type ClientConfig struct {
	Region   string
	Profile  string
	Endpoint string
}

// converseStreamAPI is the subset of the Bedrock runtime client used here.
type converseStreamAPI interface {
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// eventReader is the subset of the SDK event stream used here.
type eventReader interface {
	Events() <-chan brtypes.ConverseStreamOutput
	Close() error
	Err() error
}

// BedrockStreamer implements Streamer with the AWS SDK.
type BedrockStreamer struct {
	client converseStreamAPI
}

// Compile-time check that BedrockStreamer implements Streamer
var _ Streamer = (*BedrockStreamer)(nil)

// NewBedrockStreamer loads the AWS configuration and creates a Bedrock runtime client.
func NewBedrockStreamer(ctx context.Context, cfg ClientConfig) (*BedrockStreamer, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region cannot be empty")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &BedrockStreamer{client: client}, nil
}

// ConverseStream converts the request to SDK input, starts the stream and returns
// an iterator over its events. The underlying stream is closed when iteration ends.
func (s *BedrockStreamer) ConverseStream(ctx context.Context, req *ConverseRequest) (iter.Seq2[StreamEvent, error], error) {
	input, err := toConverseStreamInput(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build converse input: %w", err)
	}

	output, err := s.client.ConverseStream(ctx, input)
	if err != nil {
		return nil, err
	}

	return readEvents(ctx, output.GetStream()), nil
}

// readEvents adapts the SDK event channel to an iterator.
// The stream's terminal error, if any, is yielded after the last event.
func readEvents(ctx context.Context, reader eventReader) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		defer func() { _ = reader.Close() }()

		events := reader.Events()
		for {
			select {
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			case event, ok := <-events:
				if !ok {
					if err := reader.Err(); err != nil {
						yield(nil, err)
					}
					return
				}
				if !yield(fromSDKEvent(event), nil) {
					return
				}
			}
		}
	}
}

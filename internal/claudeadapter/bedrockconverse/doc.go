// Package bedrockconverse adapts Claude Messages requests to Amazon Bedrock's Converse API,
// enabling editor plugins and Claude API clients to stream from Bedrock-hosted models
// without speaking the Bedrock wire format.
//
// The adapter handles:
//
//   - Message transformation: Bare string content is normalized to a single text block.
//     Text, tool_use and tool_result blocks map to Converse text, toolUse and toolResult
//     blocks, preserving message and block order. Blocks of unknown type follow the
//     configured UnknownBlockPolicy (dropped with a warning, or rejected).
//
//   - Tool calling: Tool specs map to Converse toolSpec entries with a JSON input schema.
//     The toolConfig and system fields are omitted entirely when unset; Bedrock rejects
//     empty placeholders.
//
//   - Streaming: Converse stream events are re-emitted as content_block_start/delta/stop,
//     message_delta and message_stop events. Per-index block state is tracked explicitly by
//     the Reemitter; tool input fragments are forwarded verbatim as input_json_delta.
//
// # Adapters
//
// CreateMessageAdapter: Claude create-message → Bedrock ConverseStream
package bedrockconverse

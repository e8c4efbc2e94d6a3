// Package types provides the Claude Messages API shapes this bridge accepts and emits.
//
// The types are written by hand rather than generated or borrowed from anthropic-sdk-go:
//
//  1. SERVER-SIDE DECODING: Requests arrive from editor plugins and HTTP clients, so the
//     types must decode loosely shaped JSON (bare string content, string or array tool
//     results) into a strict model. SDK param types are built for encoding outbound calls.
//
//  2. SUM TYPES: Content blocks and stream events are sealed interfaces. Every translation
//     boundary switches over the variants, so adding a block kind forces each switch to
//     handle it.
//
//  3. WIRE SHAPE: The outbound event payloads use this bridge's own field names
//     (content_block_index, total_tokens) which differ from the public Anthropic stream.
package types

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_UnmarshalString(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`"hi"`), &c))

	assert.Equal(t, Content{NewText("hi")}, c)
}

func TestContent_UnmarshalBlocks(t *testing.T) {
	raw := `[
		{"type":"text","text":"Let me check."},
		{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{"city":"Paris"}},
		{"type":"tool_result","tool_use_id":"toolu_1","content":"18C","is_error":true},
		{"type":"image","source":{"type":"base64","data":"AAAA"}}
	]`

	var c Content
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	require.Len(t, c, 4)

	assert.Equal(t, NewText("Let me check."), c[0])

	toolUse, ok := c[1].(*ToolUse)
	require.True(t, ok)
	assert.Equal(t, "toolu_1", toolUse.ID)
	assert.Equal(t, "get_weather", toolUse.Name)
	assert.JSONEq(t, `{"city":"Paris"}`, string(toolUse.Input))

	assert.Equal(t, &ToolResult{ToolUseID: "toolu_1", Content: "18C", IsError: true}, c[2])

	unknown, ok := c[3].(*UnknownBlock)
	require.True(t, ok)
	assert.Equal(t, "image", unknown.BlockType())
	assert.JSONEq(t, `{"type":"image","source":{"type":"base64","data":"AAAA"}}`, string(unknown.Raw))
}

func TestContent_ToolResultContentForms(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "string", raw: `"ok"`, want: "ok"},
		{name: "absent", raw: `null`, want: ""},
		{name: "text parts", raw: `[{"type":"text","text":"a"},{"type":"text","text":"b"}]`, want: "a\nb"},
		{name: "non-text part", raw: `[{"type":"image"}]`, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `[{"type":"tool_result","tool_use_id":"t1","content":` + tt.raw + `}]`

			var c Content
			err := json.Unmarshal([]byte(raw), &c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c[0].(*ToolResult).Content)
		})
	}
}

func TestContent_UnmarshalErrors(t *testing.T) {
	tests := map[string]string{
		"not string or array": `{"type":"text"}`,
		"missing type":        `[{"text":"x"}]`,
		"text without text":   `[{"type":"text"}]`,
		"block not an object": `["x"]`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			var c Content
			assert.Error(t, json.Unmarshal([]byte(raw), &c))
		})
	}
}

func TestContent_ToolUseMissingInputDefaultsToEmptyObject(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`[{"type":"tool_use","id":"t","name":"n"}]`), &c))

	assert.JSONEq(t, `{}`, string(c[0].(*ToolUse).Input))
}

func TestContent_MarshalJSON(t *testing.T) {
	c := Content{
		NewText("hello"),
		&ToolUse{ID: "toolu_1", Name: "lookup", Input: json.RawMessage(`{"q":"x"}`)},
		&ToolResult{ToolUseID: "toolu_1", Content: "found"},
		&UnknownBlock{Type: "image", Raw: json.RawMessage(`{"type":"image","source":{}}`)},
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"type":"text","text":"hello"},
		{"type":"tool_use","id":"toolu_1","name":"lookup","input":{"q":"x"}},
		{"type":"tool_result","tool_use_id":"toolu_1","content":"found"},
		{"type":"image","source":{}}
	]`, string(data))
}

func TestContent_MarshalEmptyText(t *testing.T) {
	data, err := json.Marshal(Content{NewText("")})
	require.NoError(t, err)

	assert.JSONEq(t, `[{"type":"text","text":""}]`, string(data))
}

func TestContent_RoundTrip(t *testing.T) {
	original := Content{
		NewText("a"),
		&ToolUse{ID: "t1", Name: "calc", Input: json.RawMessage(`{"x":1}`)},
		&ToolResult{ToolUseID: "t1", Content: "2", IsError: true},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Content
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

package bedrockconverse

import "github.com/claude-vim/claude-bridge/internal/claudeadapter/types"

// usageAccumulator sums Converse token usage across metadata events.
// Converse normally sends a single metadata event, in which case the totals
// equal that event's counters.
type usageAccumulator struct {
	inputTokens  int
	outputTokens int
	totalTokens  int
}

// add folds one usage report into the totals. Absent counters count as zero.
func (a *usageAccumulator) add(usage *TokenUsage) {
	if usage == nil {
		return
	}
	a.inputTokens += valueOrZero(usage.InputTokens)
	a.outputTokens += valueOrZero(usage.OutputTokens)
	a.totalTokens += valueOrZero(usage.TotalTokens)
}

// total converts the totals to the client Usage format.
//
// TotalTokens is forwarded as reported rather than recomputed: Converse includes
// cache read/write tokens in totalTokens when prompt caching is active.
func (a *usageAccumulator) total() types.Usage {
	return types.Usage{
		InputTokens:  a.inputTokens,
		OutputTokens: a.outputTokens,
		TotalTokens:  a.totalTokens,
	}
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

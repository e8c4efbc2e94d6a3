package bedrockconverse

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude-vim/claude-bridge/internal/claudeadapter"
)

func TestToErrorResponse(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantType    string
		wantMessage string
	}{
		{
			name:        "throttling",
			err:         &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"},
			wantType:    claudeadapter.ErrorTypeRateLimit,
			wantMessage: "slow down",
		},
		{
			name:        "access denied",
			err:         &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "no model access"},
			wantType:    claudeadapter.ErrorTypePermission,
			wantMessage: "no model access",
		},
		{
			name:        "expired credentials",
			err:         &smithy.GenericAPIError{Code: "ExpiredTokenException", Message: "expired"},
			wantType:    claudeadapter.ErrorTypeAuthentication,
			wantMessage: "expired",
		},
		{
			name:        "validation",
			err:         &smithy.GenericAPIError{Code: "ValidationException", Message: "bad input"},
			wantType:    claudeadapter.ErrorTypeInvalidRequest,
			wantMessage: "bad input",
		},
		{
			name:        "unavailable",
			err:         &smithy.GenericAPIError{Code: "ServiceUnavailableException", Message: "try later"},
			wantType:    claudeadapter.ErrorTypeOverloaded,
			wantMessage: "try later",
		},
		{
			name:        "wrapped api error",
			err:         fmt.Errorf("operation error: %w", &smithy.GenericAPIError{Code: "ModelTimeoutException", Message: "too slow"}),
			wantType:    claudeadapter.ErrorTypeTimeout,
			wantMessage: "too slow",
		},
		{
			name:        "unknown code",
			err:         &smithy.GenericAPIError{Code: "SomethingNewException", Message: "new"},
			wantType:    claudeadapter.ErrorTypeAPI,
			wantMessage: "new",
		},
		{
			name:        "deadline",
			err:         fmt.Errorf("dial: %w", context.DeadlineExceeded),
			wantType:    claudeadapter.ErrorTypeTimeout,
			wantMessage: "dial: context deadline exceeded",
		},
		{
			name:        "network",
			err:         errors.New("connection refused"),
			wantType:    claudeadapter.ErrorTypeAPI,
			wantMessage: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := toErrorResponse(tt.err)
			require.NotNil(t, resp)

			assert.Equal(t, "error", resp.Type)
			assert.Equal(t, tt.wantType, resp.Err.Type)
			assert.Equal(t, tt.wantMessage, resp.Err.Message)
		})
	}
}

func TestToErrorResponse_Nil(t *testing.T) {
	assert.Nil(t, toErrorResponse(nil))
}

func TestWrapUpstreamError(t *testing.T) {
	cause := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}

	err := wrapUpstreamError(claudeadapter.PhaseInvoke, cause)

	assert.Equal(t, claudeadapter.PhaseInvoke, err.Phase)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, claudeadapter.ErrorTypeRateLimit, err.ErrorResponse().Err.Type)
	assert.Contains(t, err.Error(), "upstream invoke failed")
}

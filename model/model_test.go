package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRetryableForErrRateLimited(t *testing.T) {
	require.True(t, IsRetryable(ErrRateLimited))
	require.False(t, IsRetryable(errors.New("wrapped: model: rate limited")))
}

func TestIsRetryableForRetryableProviderError(t *testing.T) {
	pe := NewProviderError("bedrock", "converse_stream", 503, ProviderErrorKindUnavailable, "", "throttled", "", true, nil)
	require.True(t, IsRetryable(pe))
}

func TestIsRetryableForNonRetryableProviderError(t *testing.T) {
	pe := NewProviderError("bedrock", "converse_stream", 400, ProviderErrorKindInvalidRequest, "", "bad request", "", false, nil)
	require.False(t, IsRetryable(pe))
}

func TestIsRetryableForPlainError(t *testing.T) {
	require.False(t, IsRetryable(errors.New("boom")))
}

func TestAsProviderErrorUnwrapsChain(t *testing.T) {
	pe := NewProviderError("bedrock", "converse_stream", 500, ProviderErrorKindUnavailable, "internal", "oops", "req-1", true, nil)
	wrapped := fmt.Errorf("wrapped: %w", pe)

	found, ok := AsProviderError(wrapped)
	require.True(t, ok)
	require.Equal(t, "bedrock", found.Provider())
	require.Equal(t, "req-1", found.RequestID())
}

func TestAsProviderErrorFalseForUnrelatedError(t *testing.T) {
	_, ok := AsProviderError(errors.New("boom"))
	require.False(t, ok)
}

func TestProviderErrorMessageFallsBackToCause(t *testing.T) {
	cause := errors.New("connection reset")
	pe := NewProviderError("bedrock", "converse_stream", 0, ProviderErrorKindUnavailable, "", "", "", true, cause)
	require.Contains(t, pe.Error(), "connection reset")
	require.ErrorIs(t, pe, cause)
}

func TestNewProviderErrorPanicsWithoutProvider(t *testing.T) {
	require.Panics(t, func() {
		NewProviderError("", "op", 0, ProviderErrorKindUnknown, "", "", "", false, nil)
	})
}

func TestMarshalToolInputProducesCanonicalJSON(t *testing.T) {
	raw, err := MarshalToolInput(map[string]any{"a": 1})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(raw))
}

func TestLogFieldsNilForNonProviderError(t *testing.T) {
	require.Nil(t, LogFields(errors.New("boom")))
	require.Nil(t, LogFields(nil))
}

func TestLogFieldsExtractsPopulatedFieldsOnly(t *testing.T) {
	pe := NewProviderError("anthropic", "stream", 429, ProviderErrorKindRateLimited, "rate_limit_error", "slow down", "req-42", true, nil)
	fields := LogFields(pe)
	require.Equal(t, []any{
		"provider_kind", "rate_limited",
		"provider", "anthropic",
		"provider_operation", "stream",
		"provider_http_status", 429,
		"provider_code", "rate_limit_error",
		"provider_request_id", "req-42",
	}, fields)
}

func TestLogFieldsOmitsUnsetOptionalFields(t *testing.T) {
	pe := NewProviderError("anthropic", "", 0, ProviderErrorKindUnknown, "", "", "", false, nil)
	fields := LogFields(pe)
	require.Equal(t, []any{"provider_kind", "unknown", "provider", "anthropic"}, fields)
}

func TestLogFieldsFindsProviderErrorThroughWrapping(t *testing.T) {
	pe := NewProviderError("anthropic", "stream", 500, ProviderErrorKindUnavailable, "", "", "", true, nil)
	wrapped := fmt.Errorf("reasoning: stream: %w", pe)
	fields := LogFields(wrapped)
	require.Contains(t, fields, "provider_kind")
}

package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := ErrValidation.WithDetail("message", "customer is required")
	assert.Equal(t, "VALIDATION_ERROR: customer is required", err.Error())

	wrapped := ErrPersistence.WithCause(stderrors.New("connection refused"))
	assert.Contains(t, wrapped.Error(), "PERSISTENCE_ERROR")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	_ = ErrNotFound.WithDetail("message", "order not found")
	assert.Empty(t, ErrNotFound.Details)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, ErrValidation.IsRetryable())
	assert.False(t, ErrNotFound.IsRetryable())
	assert.True(t, ErrEnrichment.IsRetryable())
	assert.True(t, ErrPersistence.IsRetryable())

	assert.False(t, ErrEnrichment.AsFatal().IsRetryable())
	assert.True(t, ErrValidation.AsRetryable().IsRetryable())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := ErrInternal.WithCause(cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestIs(t *testing.T) {
	err := ErrEnrichment.WithDetail("product_code", "P001")
	assert.True(t, Is(err, ErrEnrichment))
	assert.False(t, Is(err, ErrValidation))
	assert.False(t, Is(stderrors.New("plain"), ErrValidation))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusBadGateway, ToHTTPStatus(ErrEnrichment.WithDetail("k", "v")))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(stderrors.New("plain")))
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(ErrValidation.WithDetail("message", "bad input"))
	assert.Equal(t, "bad input", resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.ErrorCode)

	resp = ToErrorResponse(stderrors.New("plain"))
	require.Equal(t, "INTERNAL_ERROR", resp.ErrorCode)
	assert.Equal(t, "internal server error", resp.Error)
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", ErrValidation, http.StatusBadRequest},
		{"persistence", ErrPersistence.WithCause(stderrors.New("pq: duplicate key")), http.StatusInternalServerError},
		{"timeout", ErrTimeout, http.StatusInternalServerError},
		{"unsupported", ErrNotImplemented, http.StatusNotImplemented},
		{"wrapped", fmt.Errorf("handler: %w", ErrRateLimited), http.StatusTooManyRequests},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.err))
		})
	}
}

func TestToErrorResponse_HidesCause(t *testing.T) {
	err := ErrTransport.WithCause(stderrors.New("kafka: broker 3 unreachable"))

	resp := ToErrorResponse(err)

	assert.Equal(t, "TRANSPORT_ERROR", resp["error_code"])
	assert.Equal(t, "failed to publish greeting", resp["error"])
	assert.NotContains(t, fmt.Sprint(resp), "broker 3")
}

func TestToErrorResponse_Details(t *testing.T) {
	err := ErrValidation.WithDetail("fields", []string{"to"})

	resp := ToErrorResponse(err)

	require.Contains(t, resp, "details")
	assert.Equal(t, []string{"to"}, resp["details"].(map[string]interface{})["fields"])
	assert.Empty(t, ErrValidation.Details, "WithDetail must not mutate the sentinel")
}

func TestRetryability(t *testing.T) {
	assert.True(t, ErrTransport.IsRetryable())
	assert.False(t, ErrValidation.IsRetryable())
	assert.True(t, ErrMalformedMessage.IsFatal())
	assert.False(t, ErrPersistence.AsFatal().IsRetryable())
	assert.True(t, ErrValidation.AsRetryable().IsRetryable())
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("store: %w", ErrTimeout.WithCause(stderrors.New("deadline")))
	assert.True(t, HasCode(err, "TIMEOUT"))
	assert.False(t, IsValidation(err))
}

func TestRecoverPanic(t *testing.T) {
	assert.Nil(t, RecoverPanic(nil))

	err := RecoverPanic("nil map write")
	require.Error(t, err)

	var appErr *Error
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
	assert.True(t, appErr.IsFatal())
	assert.Equal(t, true, appErr.Details["panic"])
	assert.Contains(t, appErr.Error(), "nil map write")
}

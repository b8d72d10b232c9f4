package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
	}{
		{name: "auth", err: &AuthError{Op: "sign in", Err: cause}},
		{name: "fetch", err: &FetchError{UserID: "u1", Err: cause}},
		{name: "sync", err: &SyncError{UserID: "u1", Err: cause}},
		{name: "service", err: &ServiceError{Service: "recipe", Err: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			assert.ErrorIs(t, wrapped, cause)
			assert.Contains(t, tt.err.Error(), "connection refused")
		})
	}
}

func TestSyncErrorAs(t *testing.T) {
	err := fmt.Errorf("outer: %w", &SyncError{UserID: "u1", Err: errors.New("boom")})

	var syncErr *SyncError
	assert.True(t, errors.As(err, &syncErr))
	assert.Equal(t, "u1", syncErr.UserID)

	var fetchErr *FetchError
	assert.False(t, errors.As(err, &fetchErr))
}

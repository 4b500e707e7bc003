package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind error
	}{
		{"validation", ValidationError("bad", map[string]string{"name": "required"}), ErrValidation},
		{"conflict", ConflictError("login", "taken"), ErrConflict},
		{"auth", AuthError("nope"), ErrAuth},
		{"not found", NotFoundError("gone"), ErrNotFound},
		{"forbidden", ForbiddenError("no"), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, tt.kind)

			wrapped := fmt.Errorf("handler: %w", tt.err)
			require.ErrorIs(t, wrapped, tt.kind)

			got, ok := AsError(wrapped)
			require.True(t, ok)
			require.Equal(t, tt.err.Message, got.Message)
		})
	}

	t.Run("conflict carries field", func(t *testing.T) {
		err := ConflictError("email", "taken")
		require.Equal(t, map[string]string{"email": "taken"}, err.Fields)
	})

	t.Run("plain errors are not domain errors", func(t *testing.T) {
		_, ok := AsError(errors.New("boom"))
		require.False(t, ok)
	})
}

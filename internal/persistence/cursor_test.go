package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adesaogympass/anotashape/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	cursor := &domain.Cursor{
		CompletedAt: time.Date(2025, time.May, 2, 18, 4, 5, 123456789, time.UTC),
		ID:          "completion-1",
	}

	token := EncodeCursor(cursor)
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	require.Equal(t, cursor.ID, decoded.ID)
	require.True(t, cursor.CompletedAt.Equal(decoded.CompletedAt))
}

func TestCursorEmptyToken(t *testing.T) {
	require.Empty(t, EncodeCursor(nil))

	decoded, err := DecodeCursor("  ")
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not-base64!!")
	require.Error(t, err)

	_, err = DecodeCursor("bm8tc2VwYXJhdG9y") // "no-separator"
	require.Error(t, err)
}

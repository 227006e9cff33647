package security

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/api/internal/apperror"
)

func TestIssueAndParseToken(t *testing.T) {
	t.Parallel()

	token, err := IssueToken("super-secret", "user-123", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "super-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123", claims.Subject)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 5*time.Second)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := IssueToken("secret", "u1", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindTokenExpired, appErr.Kind)
	assert.Equal(t, 401, appErr.Status)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := IssueToken("right-secret", "u2", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "wrong-secret")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindInvalidToken, appErr.Kind)
	assert.Equal(t, 401, appErr.Status)
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not-a-token", "secret")
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindInvalidToken, appErr.Kind)
}

func TestResetSecret(t *testing.T) {
	t.Parallel()

	raw, hash, err := NewResetSecret()
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.NotEqual(t, raw, hash)

	// The lookup hash must be reproducible from the raw secret alone.
	assert.Equal(t, hash, HashResetSecret(raw))

	raw2, hash2, err := NewResetSecret()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
	assert.NotEqual(t, hash, hash2)
}

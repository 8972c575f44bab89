package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplink/internal/domain/entity"
	"shoplink/pkg/errors"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestFromTokenDerivesSession(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":      "u-1",
		"name":     "Ada",
		"role":     "SELLER",
		"isVendor": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	sess, err := FromToken(token)
	require.NoError(t, err)

	assert.True(t, sess.LoggedIn)
	assert.Equal(t, "u-1", sess.UserID)
	assert.Equal(t, "Ada", sess.Name)
	assert.Equal(t, entity.RoleSeller, sess.Role)
	assert.True(t, sess.IsVendor)
	assert.False(t, sess.IsShopAdmin)
}

func TestFromTokenLegacyIDClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"_id": "u-legacy", "role": "USER"})

	sess, err := FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-legacy", sess.UserID)
}

func TestFromTokenRejectsExpired(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "u-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := FromToken(token)
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}

func TestFromTokenRejectsGarbage(t *testing.T) {
	_, err := FromToken("not-a-jwt")
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}

func TestFromTokenEmptyMeansLoggedOut(t *testing.T) {
	sess, err := FromToken("")
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn)
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "token"))

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token, "missing file is not an error")

	require.NoError(t, store.Save("tok-123\n"))
	token, err = store.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	token, err = store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

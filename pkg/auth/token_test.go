package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/shoplyhq/shoply-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "shoply-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now(), userID)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), uuid.New())
	require.NoError(t, err)

	bad := cfg
	bad.Secret = "other"
	_, err = ParseAccessToken(bad, token)
	assert.Error(t, err)
}

func TestMintAccessTokenValidation(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	cfg.Secret = ""
	_, err := MintAccessToken(cfg, time.Now(), uuid.New())
	assert.Error(t, err)

	cfg = testJWTConfig()
	_, err = MintAccessToken(cfg, time.Now(), uuid.Nil)
	assert.Error(t, err)
}

func TestOwnerIdentities(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	user := UserIdentity(userID)
	assert.False(t, user.IsGuest)
	assert.Equal(t, "user:"+userID.String(), user.OwnerID)

	guest := NewGuestIdentity()
	assert.True(t, guest.IsGuest)

	parsed, err := ParseOwnerID(user.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, user, parsed)

	parsed, err = ParseOwnerID(guest.OwnerID)
	require.NoError(t, err)
	assert.True(t, parsed.IsGuest)

	_, err = ParseOwnerID("session:whatever")
	assert.Error(t, err)
	_, err = ParseOwnerID("user:not-a-uuid")
	assert.Error(t, err)
	_, err = ParseOwnerID("guest:")
	assert.Error(t, err)
}

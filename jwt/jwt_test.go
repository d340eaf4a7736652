package jwt

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/models"
	"storefront/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueVerifyRevoke(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	privateKey, publicKey := testutil.GenerateKeyPair(t)
	tokens := NewManager(privateKey, publicKey, time.Hour, db)

	token, expiresAt, err := tokens.IssueToken(ctx, 7, models.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := tokens.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	require.NoError(t, tokens.RevokeToken(ctx, token))
	_, err = tokens.VerifyToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.ErrorIs(t, tokens.RevokeToken(ctx, token), ErrTokenRevoked)
}

func TestManager_RejectsForeignAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	privateKey, publicKey := testutil.GenerateKeyPair(t)
	otherKey, _ := testutil.GenerateKeyPair(t)

	forger := NewManager(otherKey, &otherKey.PublicKey, time.Hour, db)
	forged, _, err := forger.IssueToken(ctx, 1, models.RoleAdmin)
	require.NoError(t, err)

	tokens := NewManager(privateKey, publicKey, time.Hour, db)
	_, err = tokens.VerifyToken(ctx, forged)
	assert.Error(t, err)

	expiredIssuer := NewManager(privateKey, publicKey, -time.Minute, db)
	expired, _, err := expiredIssuer.IssueToken(ctx, 1, models.RoleUser)
	require.NoError(t, err)
	_, err = tokens.VerifyToken(ctx, expired)
	assert.Error(t, err)

	_, err = tokens.VerifyToken(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestManager_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	privateKey, publicKey := testutil.GenerateKeyPair(t)

	_, _, err := NewManager(privateKey, publicKey, -time.Minute, db).IssueToken(ctx, 1, models.RoleUser)
	require.NoError(t, err)
	live, _, err := NewManager(privateKey, publicKey, time.Hour, db).IssueToken(ctx, 2, models.RoleUser)
	require.NoError(t, err)

	tokens := NewManager(privateKey, publicKey, time.Hour, db)
	purged, err := tokens.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = tokens.VerifyToken(ctx, live)
	assert.NoError(t, err)
}

func TestNewManagerFromFiles(t *testing.T) {
	privateKey, _ := testutil.GenerateKeyPair(t)
	dir := t.TempDir()

	privatePath := filepath.Join(dir, "private_key.pem")
	publicPath := filepath.Join(dir, "public_key.pem")
	require.NoError(t, os.WriteFile(privatePath, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}), 0600))
	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(publicPath, pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	}), 0644))

	_, err = NewManagerFromFiles(privatePath, publicPath, time.Hour, testutil.SetupTestDB(t))
	require.NoError(t, err)

	_, err = NewManagerFromFiles(filepath.Join(dir, "missing.pem"), publicPath, time.Hour, nil)
	assert.Error(t, err)
}

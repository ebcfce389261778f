package services

import (
	"testing"
	"time"

	"flexchat/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "testgeheim", AccessTTL: time.Minute})
	userID := uuid.New()

	token, err := svc.IssueToken(userID, "Piet")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "Piet", claims.Name)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(config.JWTConfig{Secret: "geheim-a", AccessTTL: time.Minute})
	verifier := NewAuthService(config.JWTConfig{Secret: "geheim-b", AccessTTL: time.Minute})

	token, err := issuer.IssueToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "testgeheim", AccessTTL: -time.Minute})

	token, err := svc.IssueToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "testgeheim", AccessTTL: time.Minute})
	_, err := svc.ParseToken("niet.een.token")
	assert.Error(t, err)
	_, err = svc.ParseToken("")
	assert.Error(t, err)
}

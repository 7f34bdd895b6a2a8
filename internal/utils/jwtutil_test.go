package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, exp, err := GenerateToken(42, "warehouse_admin", "ADMIN", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserId)
	assert.Equal(t, "warehouse_admin", claims.Username)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestParseExpiredToken(t *testing.T) {
	token, _, err := GenerateToken(1, "user", "VIEWER", -time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseGarbageToken(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}

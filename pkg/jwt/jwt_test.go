package jwt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, expireAt, err := GenerateToken("secret", 42, "LEAD", 24)
	require.NoError(t, err)
	require.False(t, expireAt.IsZero())

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "LEAD", claims.Role)
	require.Equal(t, "gtrack", claims.Issuer)
}

func TestParseWrongSecret(t *testing.T) {
	token, _, err := GenerateToken("secret", 1, "EMP", 1)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	require.Error(t, err)
}

func TestParseGarbage(t *testing.T) {
	_, err := ParseToken("secret", "not.a.token")
	require.Error(t, err)
}

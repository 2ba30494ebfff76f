package utils

import (
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOTPCode(t *testing.T) {
	sixDigits := regexp.MustCompile(`^\d{6}$`)

	for i := 0; i < 200; i++ {
		code, err := GenerateOTPCode()
		require.NoError(t, err)
		require.True(t, sixDigits.MatchString(code), "code %q is not 6 digits", code)
	}
}

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		token, err := GenerateSessionToken()
		require.NoError(t, err)
		require.Len(t, token, 64)

		raw, err := hex.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, 32)

		require.False(t, seen[token], "token repeated")
		seen[token] = true
	}
}

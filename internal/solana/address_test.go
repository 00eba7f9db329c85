package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want bool
	}{
		{"system program", "11111111111111111111111111111111", true},
		{"token program", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", true},
		{"empty", "", false},
		{"invalid base58 characters", "0OIl+/=", false},
		{"too short", "abc", false},
		{"too long", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DATokenkeg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAddress(tt.addr))
		})
	}
}

func TestIsOnCurve(t *testing.T) {
	// Freshly generated ed25519 public keys are always on the curve.
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	onCurve, err := IsOnCurve(base58.Encode(pub))
	require.NoError(t, err)
	assert.True(t, onCurve)
}

func TestIsOnCurveInvalidAddress(t *testing.T) {
	_, err := IsOnCurve("not-an-address")
	assert.Error(t, err)
}

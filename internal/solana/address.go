// Package solana provides small helpers for working with Solana
// addresses.
package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLen is the decoded length of a Solana public key in bytes.
const AddressLen = 32

// DecodeAddress decodes a base58-encoded Solana address and verifies
// its length.
func DecodeAddress(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", addr, err)
	}
	if len(raw) != AddressLen {
		return nil, fmt.Errorf("address %q: decoded to %d bytes, want %d", addr, len(raw), AddressLen)
	}
	return raw, nil
}

// ValidAddress reports whether addr is a well-formed base58 Solana
// address.
func ValidAddress(addr string) bool {
	_, err := DecodeAddress(addr)
	return err == nil
}

// IsOnCurve reports whether addr decodes to a point on the ed25519
// curve. Wallet keys lie on the curve; program-derived addresses do
// not.
func IsOnCurve(addr string) (bool, error) {
	raw, err := DecodeAddress(addr)
	if err != nil {
		return false, err
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil, nil
}

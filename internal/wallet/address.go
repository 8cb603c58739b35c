// internal/wallet/address.go
//
// Ethereum-style account addresses.
// Responsibilities:
//   - Parse "0x" + 40 hex strings, enforcing the EIP-55 checksum on mixed case.
//   - Render checksummed and shortened display forms.
//
// Keccak-256 comes from golang.org/x/crypto/sha3 (the legacy, pre-NIST padding
// used by Ethereum).

package wallet

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	ErrInvalidAddress = errors.New("wallet: invalid address")
	ErrBadChecksum    = errors.New("wallet: address checksum mismatch")
)

// Address is a 20-byte account address.
type Address [20]byte

// ParseAddress parses a hex address. All-lowercase and all-uppercase inputs are
// accepted as-is; mixed case must match the EIP-55 checksum.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if len(s) != 42 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return a, ErrInvalidAddress
	}
	body := s[2:]
	b, err := hex.DecodeString(body)
	if err != nil {
		return a, ErrInvalidAddress
	}
	copy(a[:], b)
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if a.Hex()[2:] != body {
			return Address{}, ErrBadChecksum
		}
	}
	return a, nil
}

// Hex returns the EIP-55 checksummed form.
func (a Address) Hex() string {
	lower := hex.EncodeToString(a[:])
	hash := keccak256([]byte(lower))
	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

// Short returns the display form used in the wallet card: 0x1234...abcd.
func (a Address) Short() string {
	h := a.Hex()
	return h[:6] + "..." + h[len(h)-4:]
}

func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool { return a == Address{} }

// MarshalText encodes the checksummed form.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText parses with ParseAddress.
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func keccak256(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

var (
	ErrBadSignature      = errors.New("wallet: malformed signature")
	ErrSignatureMismatch = errors.New("wallet: signature does not match address")
)

// PersonalHash is the EIP-191 personal_sign digest of message.
func PersonalHash(message string) []byte {
	prefix := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message))
	return keccak256([]byte(prefix), []byte(message))
}

// DecodeSignature parses a hex r||s||v signature, with or without 0x.
func DecodeSignature(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	sig, err := hex.DecodeString(s)
	if err != nil || len(sig) != 65 {
		return nil, ErrBadSignature
	}
	return sig, nil
}

// RecoverAddress returns the address that produced sig over message with
// personal_sign. v may be 0/1 or 27/28.
func RecoverAddress(message string, sig []byte) (Address, error) {
	if len(sig) != 65 {
		return Address{}, ErrBadSignature
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return Address{}, ErrBadSignature
	}
	// decred expects <27+recid><R><S> for an uncompressed key.
	compact := make([]byte, 65)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, PersonalHash(message))
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return PubkeyAddress(pub), nil
}

// Verify checks that sigHex is addr's personal_sign signature of message.
func Verify(addr Address, message, sigHex string) error {
	sig, err := DecodeSignature(sigHex)
	if err != nil {
		return err
	}
	got, err := RecoverAddress(message, sig)
	if err != nil {
		return err
	}
	if got != addr {
		return ErrSignatureMismatch
	}
	return nil
}

// PubkeyAddress derives the account address of a public key.
func PubkeyAddress(pub *secp256k1.PublicKey) Address {
	raw := pub.SerializeUncompressed()
	var a Address
	copy(a[:], keccak256(raw[1:])[12:])
	return a
}

// SignPersonal signs message the way a wallet's personal_sign does and returns
// the 0x-prefixed r||s||v signature. Used by local tooling and tests.
func SignPersonal(key *secp256k1.PrivateKey, message string) string {
	compact := ecdsa.SignCompact(key, PersonalHash(message), false)
	sig := append(append([]byte{}, compact[1:]...), compact[0])
	return "0x" + hex.EncodeToString(sig)
}

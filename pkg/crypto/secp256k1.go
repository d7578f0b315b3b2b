package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// PrivateKeySize is the length of a raw secp256k1 scalar.
const PrivateKeySize = 32

// UncompressedPublicKeySize is the length of a 0x04-prefixed public key.
const UncompressedPublicKeySize = 65

// Secp256k1PublicKey returns the uncompressed 65-byte public key of a
// 32-byte secp256k1 private key.
func Secp256k1PublicKey(priv []byte) ([]byte, error) {
	if len(priv) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(priv))
	}
	key := secp256k1.PrivKeyFromBytes(priv)
	defer key.Zero()
	if key.Key.IsZero() {
		return nil, fmt.Errorf("private key reduces to zero mod the curve order")
	}
	return key.PubKey().SerializeUncompressed(), nil
}

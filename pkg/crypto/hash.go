// Package crypto provides the hashing and curve helpers shared by the
// keyring packages.
package crypto

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/zeebo/blake3"
)

// FingerprintSize is the number of BLAKE3 bytes kept in a fingerprint.
const FingerprintSize = 8

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// Fingerprint returns the hex encoding of the first FingerprintSize bytes
// of BLAKE3(data).
func Fingerprint(data []byte) string {
	h := Hash(data)
	return hex.EncodeToString(h[:FingerprintSize])
}

// Keccak256 computes the legacy Keccak-256 hash used by Ethereum.
func Keccak256(data ...[]byte) []byte {
	return ethcrypto.Keccak256(data...)
}

// EthereumAddress derives the EIP-55 checksummed address of a 65-byte
// uncompressed secp256k1 public key: Keccak256(X || Y)[12:].
func EthereumAddress(uncompressed []byte) string {
	h := Keccak256(uncompressed[1:])
	return common.BytesToAddress(h[12:]).Hex()
}

// IsEthereumAddress reports whether s is a well-formed hex address.
func IsEthereumAddress(s string) bool {
	return common.IsHexAddress(s)
}

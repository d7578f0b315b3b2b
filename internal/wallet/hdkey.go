package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"
)

// BIP-44 derivation path constants.
// Full path: m/44'/CoinType'/account'/change/index
const (
	// PurposeBIP44 is the BIP-44 purpose field (hardened).
	PurposeBIP44 = bip32.FirstHardenedChild + 44

	// CoinTypeEthereum is the SLIP-44 coin type for Ethereum (hardened).
	CoinTypeEthereum = bip32.FirstHardenedChild + 60

	// CoinTypeSolana is the SLIP-44 coin type for Solana (hardened).
	CoinTypeSolana = bip32.FirstHardenedChild + 501

	// ChangeExternal is for receiving addresses.
	ChangeExternal = 0

	// HardenedOffset is added to an index to request hardened derivation.
	HardenedOffset = bip32.FirstHardenedChild
)

// HDKey represents a BIP-32 secp256k1 key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidSeed, SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives a child key at the given index.
// For hardened derivation, add HardenedOffset to the index.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives a key along a sequence of indices. Intermediate keys
// are wiped once their child exists.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if current != k {
			current.Wipe()
		}
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// DeriveEthereum derives the key at m/44'/60'/0'/0/index.
func (k *HDKey) DeriveEthereum(index uint32) (*HDKey, error) {
	return k.DerivePath(
		PurposeBIP44,
		CoinTypeEthereum,
		HardenedOffset+0,
		ChangeExternal,
		index,
	)
}

// PrivateKeyBytes returns a fresh 32-byte copy of the private key.
// Returns nil if this is a public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 Key.Key may carry a leading 0x00 or drop leading zero bytes.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	out := make([]byte, 32)
	copy(out[32-len(raw):], raw)
	return out
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	pub := k.key.PublicKey()
	return pub.Key
}

// IsPrivate returns true if this key contains a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Wipe zeroes the key and chain code held by k.
func (k *HDKey) Wipe() {
	zero(k.key.Key)
	zero(k.key.ChainCode)
}

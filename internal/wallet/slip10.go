package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

// ed25519Curve is the HMAC key for SLIP-10 ed25519 master key generation.
var ed25519Curve = []byte("ed25519 seed")

// EdKey is a SLIP-10 ed25519 node. Only hardened children exist.
type EdKey struct {
	key       [32]byte
	chainCode [32]byte
	depth     uint8
}

// NewEdMasterKey creates the SLIP-10 ed25519 master node from a seed.
func NewEdMasterKey(seed []byte) (*EdKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidSeed, SeedSize, len(seed))
	}
	return edNode(ed25519Curve, seed, 0), nil
}

// DeriveChild derives the hardened child at index. index must already
// include HardenedOffset.
func (k *EdKey) DeriveChild(index uint32) (*EdKey, error) {
	if index < HardenedOffset {
		return nil, fmt.Errorf("%w: ed25519 supports hardened children only, got %d", ErrInvalidIndex, index)
	}
	// data = 0x00 || key || ser32(index)
	var data [1 + 32 + 4]byte
	copy(data[1:33], k.key[:])
	binary.BigEndian.PutUint32(data[33:], index)
	child := edNode(k.chainCode[:], data[:], k.depth+1)
	zero(data[:])
	return child, nil
}

// DerivePath derives along indices, wiping intermediate nodes.
func (k *EdKey) DerivePath(indices ...uint32) (*EdKey, error) {
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

// DeriveSolana derives the node at m/44'/501'/0'/index'.
func (k *EdKey) DeriveSolana(index uint32) (*EdKey, error) {
	return k.DerivePath(
		PurposeBIP44,
		CoinTypeSolana,
		HardenedOffset+0,
		HardenedOffset+index,
	)
}

// Key returns a copy of the 32-byte node key, the ed25519 private seed.
func (k *EdKey) Key() []byte {
	out := make([]byte, 32)
	copy(out, k.key[:])
	return out
}

// ChainCode returns a copy of the 32-byte chain code.
func (k *EdKey) ChainCode() []byte {
	out := make([]byte, 32)
	copy(out, k.chainCode[:])
	return out
}

// Depth returns the derivation depth (0 for master).
func (k *EdKey) Depth() uint8 {
	return k.depth
}

// Wipe zeroes the node.
func (k *EdKey) Wipe() {
	zero(k.key[:])
	zero(k.chainCode[:])
}

func edNode(hmacKey, data []byte, depth uint8) *EdKey {
	mac := hmac.New(sha512.New, hmacKey)
	mac.Write(data)
	sum := mac.Sum(nil)
	n := &EdKey{depth: depth}
	copy(n.key[:], sum[:32])
	copy(n.chainCode[:], sum[32:])
	zero(sum)
	return n
}

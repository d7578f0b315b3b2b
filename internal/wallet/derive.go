package wallet

import (
	"crypto/ed25519"
	"errors"
	"fmt"
)

// Record is a derived wallet: one key pair at one derivation path.
// Records are created by Derive or RestoreRecord and never change.
type Record struct {
	chain     ChainType
	index     uint32
	path      string
	address   string
	publicKey []byte
	key       *Secret
}

// Info is the public part of a Record. It holds no key material.
type Info struct {
	Chain     ChainType
	Index     uint32
	Path      string
	Address   string
	PublicKey []byte
}

// Derive derives the wallet at index on chain from a 64-byte seed.
// Identical inputs always produce byte-identical records.
func Derive(seed *Secret, chain ChainType, index uint32) (*Record, error) {
	path, err := DerivationPath(chain, index)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, fmt.Errorf("%w: nil seed", ErrInvalidSeed)
	}

	var rec *Record
	err = seed.Use(func(s []byte) error {
		if len(s) != SeedSize {
			return fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidSeed, SeedSize, len(s))
		}
		var derr error
		switch chain {
		case Ethereum:
			rec, derr = deriveEthereum(s, index)
		case Solana:
			rec, derr = deriveSolana(s, index)
		}
		return derr
	})
	if errors.Is(err, ErrSecretWiped) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if err != nil {
		return nil, err
	}
	rec.chain = chain
	rec.index = index
	rec.path = path
	return rec, nil
}

func deriveEthereum(seed []byte, index uint32) (*Record, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	defer master.Wipe()

	hdKey, err := master.DeriveEthereum(index)
	if err != nil {
		return nil, fmt.Errorf("derive ethereum key %d: %w", index, err)
	}
	defer hdKey.Wipe()

	priv := hdKey.PrivateKeyBytes()
	pub, addr, err := ethereumKeys(priv)
	if err != nil {
		zero(priv)
		return nil, err
	}
	return &Record{address: addr, publicKey: pub, key: NewSecret(priv)}, nil
}

func deriveSolana(seed []byte, index uint32) (*Record, error) {
	master, err := NewEdMasterKey(seed)
	if err != nil {
		return nil, err
	}
	defer master.Wipe()

	node, err := master.DeriveSolana(index)
	if err != nil {
		return nil, fmt.Errorf("derive solana key %d: %w", index, err)
	}
	defer node.Wipe()

	edSeed := node.Key()
	defer zero(edSeed)

	// 64-byte secret key: seed || public key.
	priv := ed25519.NewKeyFromSeed(edSeed)
	pub := make([]byte, ed25519.PublicKeySize)
	copy(pub, priv[ed25519.SeedSize:])

	return &Record{address: solanaAddress(pub), publicKey: pub, key: NewSecret(priv)}, nil
}

// Chain returns the chain type of the record.
func (r *Record) Chain() ChainType { return r.chain }

// Index returns the derivation index of the record.
func (r *Record) Index() uint32 { return r.index }

// Path returns the derivation path of the record.
func (r *Record) Path() string { return r.path }

// Address returns the chain-specific address string.
func (r *Record) Address() string { return r.address }

// PublicKey returns a copy of the public key.
func (r *Record) PublicKey() []byte {
	out := make([]byte, len(r.publicKey))
	copy(out, r.publicKey)
	return out
}

// Info returns a public-only copy of the record.
func (r *Record) Info() Info {
	return Info{
		Chain:     r.chain,
		Index:     r.index,
		Path:      r.path,
		Address:   r.address,
		PublicKey: r.PublicKey(),
	}
}

// ExportPrivateKey encodes the private key in the chain's export format:
// 0x-prefixed hex for Ethereum, Base58 of the 64-byte secret key for Solana.
func (r *Record) ExportPrivateKey() (string, error) {
	var out string
	err := r.key.Use(func(b []byte) error {
		var eerr error
		out, eerr = encodePrivateKey(r.chain, b)
		return eerr
	})
	return out, err
}

// SameKey reports whether both records hold the same private key.
func (r *Record) SameKey(o *Record) bool {
	return r.key.Equal(o.key)
}

// Wipe zeroes the private key. The public fields stay readable.
func (r *Record) Wipe() {
	r.key.Wipe()
}

// Wiped reports whether the private key has been wiped.
func (r *Record) Wiped() bool {
	return r.key.Wiped()
}

package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
	"github.com/mr-tron/base58"
)

// ethereumKeys returns the uncompressed public key and the EIP-55 address
// of a 32-byte secp256k1 private key.
func ethereumKeys(priv []byte) ([]byte, string, error) {
	pub, err := crypto.Secp256k1PublicKey(priv)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return pub, crypto.EthereumAddress(pub), nil
}

// solanaAddress is the Base58 encoding of the raw 32-byte public key.
func solanaAddress(pub []byte) string {
	return base58.Encode(pub)
}

func encodePrivateKey(chain ChainType, key []byte) (string, error) {
	switch chain {
	case Ethereum:
		if len(key) != crypto.PrivateKeySize {
			return "", fmt.Errorf("%w: ethereum key must be %d bytes, got %d", ErrInvalidKey, crypto.PrivateKeySize, len(key))
		}
		return "0x" + hex.EncodeToString(key), nil
	case Solana:
		if len(key) != ed25519.PrivateKeySize {
			return "", fmt.Errorf("%w: solana key must be %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(key))
		}
		return base58.Encode(key), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedChain, string(chain))
	}
}

func decodePrivateKey(chain ChainType, encoded string) ([]byte, error) {
	switch chain {
	case Ethereum:
		s := strings.TrimPrefix(strings.TrimPrefix(encoded, "0x"), "0X")
		key, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		if len(key) != crypto.PrivateKeySize {
			zero(key)
			return nil, fmt.Errorf("%w: ethereum key must be %d bytes, got %d", ErrInvalidKey, crypto.PrivateKeySize, len(key))
		}
		return key, nil
	case Solana:
		key, err := base58.Decode(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		if len(key) != ed25519.PrivateKeySize {
			zero(key)
			return nil, fmt.Errorf("%w: solana key must be %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(key))
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChain, string(chain))
	}
}

// RestoreRecord rebuilds a record from its persisted form. The public key
// and address are recomputed from the private key and must match address.
func RestoreRecord(chain ChainType, index uint32, path, address, encodedKey string) (*Record, error) {
	wantPath, err := DerivationPath(chain, index)
	if err != nil {
		return nil, err
	}
	if path != wantPath {
		return nil, fmt.Errorf("derivation path %q does not match %s index %d (%s)", path, chain, index, wantPath)
	}

	key, err := decodePrivateKey(chain, encodedKey)
	if err != nil {
		return nil, err
	}

	var (
		pub  []byte
		addr string
	)
	switch chain {
	case Ethereum:
		pub, addr, err = ethereumKeys(key)
		if err != nil {
			zero(key)
			return nil, err
		}
	case Solana:
		// The secret key must be seed || public key of that seed.
		derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
		ok := string(derived[ed25519.SeedSize:]) == string(key[ed25519.SeedSize:])
		zero(derived)
		if !ok {
			zero(key)
			return nil, fmt.Errorf("%w: solana public key half does not match its seed", ErrInvalidKey)
		}
		pub = make([]byte, ed25519.PublicKeySize)
		copy(pub, key[ed25519.SeedSize:])
		addr = solanaAddress(pub)
	}

	if addr != address {
		zero(key)
		return nil, fmt.Errorf("%w: key derives address %s, record says %s", ErrInvalidKey, addr, address)
	}

	return &Record{
		chain:     chain,
		index:     index,
		path:      path,
		address:   addr,
		publicKey: pub,
		key:       NewSecret(key),
	}, nil
}

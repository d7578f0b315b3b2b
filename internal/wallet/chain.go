package wallet

import (
	"fmt"
	"strings"
)

// ChainType identifies the network, curve and address format of a wallet.
type ChainType string

const (
	Ethereum ChainType = "ethereum"
	Solana   ChainType = "solana"
)

// ChainTypes lists every supported chain in a stable order.
var ChainTypes = []ChainType{Ethereum, Solana}

// ParseChainType converts a user-supplied name (case-insensitive, "eth" and
// "sol" accepted) into a ChainType.
func ParseChainType(s string) (ChainType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ethereum", "eth":
		return Ethereum, nil
	case "solana", "sol":
		return Solana, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedChain, s)
	}
}

// Valid reports whether c is a supported chain.
func (c ChainType) Valid() bool {
	return c == Ethereum || c == Solana
}

// DerivationPath renders the BIP-44 path of the wallet at index on chain c.
//
//	ethereum: m/44'/60'/0'/0/index
//	solana:   m/44'/501'/0'/index'
func DerivationPath(c ChainType, index uint32) (string, error) {
	if index >= HardenedOffset {
		return "", fmt.Errorf("%w: %d exceeds %d", ErrInvalidIndex, index, HardenedOffset-1)
	}
	switch c {
	case Ethereum:
		return fmt.Sprintf("m/44'/60'/0'/0/%d", index), nil
	case Solana:
		return fmt.Sprintf("m/44'/501'/0'/%d'", index), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedChain, string(c))
	}
}

// Package wallet implements recovery phrases and deterministic key derivation
// for Ethereum and Solana wallets.
package wallet

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-keyring/pkg/crypto"
	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits is the entropy size for 12-word mnemonics.
const MnemonicEntropyBits = 128

// MnemonicWords is the only accepted phrase length.
const MnemonicWords = 12

// Mnemonic is a structurally valid 12-word BIP-39 phrase.
// The zero value is empty and rejected by every function that needs a phrase.
type Mnemonic struct {
	phrase string
}

// GenerateMnemonic creates a new 12-word BIP-39 mnemonic from fresh
// crypto/rand entropy.
func GenerateMnemonic() (Mnemonic, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return Mnemonic{}, fmt.Errorf("generate entropy: %w", err)
	}
	defer zero(entropy)

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return Mnemonic{}, fmt.Errorf("generate mnemonic: %w", err)
	}
	return Mnemonic{phrase: phrase}, nil
}

// ParseMnemonic normalizes whitespace and validates phrase.
func ParseMnemonic(phrase string) (Mnemonic, error) {
	words := strings.Fields(phrase)
	if len(words) != MnemonicWords {
		return Mnemonic{}, fmt.Errorf("%w: got %d words, want %d", ErrInvalidMnemonic, len(words), MnemonicWords)
	}
	normalized := strings.Join(words, " ")
	if !bip39.IsMnemonicValid(normalized) {
		return Mnemonic{}, fmt.Errorf("%w: unknown word or bad checksum", ErrInvalidMnemonic)
	}
	return Mnemonic{phrase: normalized}, nil
}

// ValidateMnemonic checks if a phrase is a valid 12-word BIP-39 mnemonic
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(phrase string) bool {
	_, err := ParseMnemonic(phrase)
	return err == nil
}

// Phrase returns the space-separated words.
func (m Mnemonic) Phrase() string {
	return m.phrase
}

// Words returns the phrase split into its words.
func (m Mnemonic) Words() []string {
	return strings.Fields(m.phrase)
}

// IsZero reports whether m holds no phrase.
func (m Mnemonic) IsZero() bool {
	return m.phrase == ""
}

// Equal reports whether both mnemonics hold the same phrase.
func (m Mnemonic) Equal(o Mnemonic) bool {
	return m.phrase == o.phrase
}

// Fingerprint returns a short BLAKE3 digest of the phrase, safe to log and
// usable as a lookup key.
func (m Mnemonic) Fingerprint() string {
	return crypto.Fingerprint([]byte(m.phrase))
}

// String never prints the words.
func (m Mnemonic) String() string {
	if m.IsZero() {
		return "mnemonic(empty)"
	}
	return "mnemonic(" + m.Fingerprint() + ")"
}

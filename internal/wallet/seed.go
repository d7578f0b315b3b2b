package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

// SeedFromMnemonic derives the 512-bit seed of m using PBKDF2-SHA512 as
// specified in BIP-39, with an empty passphrase.
func SeedFromMnemonic(m Mnemonic) (*Secret, error) {
	if m.IsZero() {
		return nil, fmt.Errorf("%w: empty phrase", ErrInvalidMnemonic)
	}
	seed, err := bip39.NewSeedWithErrorChecking(m.phrase, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return NewSecret(seed), nil
}

// SeedFromPhrase validates phrase and derives its seed.
func SeedFromPhrase(phrase string) (*Secret, error) {
	m, err := ParseMnemonic(phrase)
	if err != nil {
		return nil, err
	}
	return SeedFromMnemonic(m)
}

package wallet

import "errors"

// Errors returned by the mnemonic and derivation functions.
var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrInvalidSeed      = errors.New("invalid seed")
	ErrUnsupportedChain = errors.New("unsupported chain type")
	ErrInvalidIndex     = errors.New("invalid derivation index")
	ErrInvalidKey       = errors.New("invalid private key")
)

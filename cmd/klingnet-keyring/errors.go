package main

import (
	"errors"

	"github.com/Klingon-tech/klingnet-keyring/internal/keyring"
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

// Exit codes, one per error kind.
const (
	exitGeneric          = 1
	exitInvalidMnemonic  = 2
	exitDuplicateAccount = 3
	exitAccountNotFound  = 4
	exitLastAccount      = 5
	exitWalletNotFound   = 6
	exitUnsupportedChain = 7
	exitPersistence      = 8
	exitBadPassword      = 9
)

var errorKinds = []struct {
	target error
	msg    string
	code   int
}{
	{wallet.ErrInvalidMnemonic, "the recovery phrase is not valid (need 12 known words with a correct checksum)", exitInvalidMnemonic},
	{keyring.ErrDuplicateAccount, "this recovery phrase is already imported", exitDuplicateAccount},
	{keyring.ErrAccountNotFound, "no such account", exitAccountNotFound},
	{keyring.ErrLastAccount, "the last account cannot be deleted", exitLastAccount},
	{keyring.ErrWalletNotFound, "no such wallet", exitWalletNotFound},
	{wallet.ErrUnsupportedChain, "unsupported chain (use ethereum or solana)", exitUnsupportedChain},
	{wallet.ErrDecrypt, "wrong password or damaged keyring file", exitBadPassword},
	{keyring.ErrPasswordRequired, "the keyring file is encrypted; run with --encrypt", exitBadPassword},
	{keyring.ErrCorruptRegistry, "the saved keyring is damaged", exitPersistence},
	{keyring.ErrPersistence, "the keyring could not be saved or loaded", exitPersistence},
}

// describe maps err to a user-facing message and exit code.
func describe(err error) (string, int) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg, k.code
		}
	}
	return "unexpected failure", exitGeneric
}

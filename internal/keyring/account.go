package keyring

import (
	"time"

	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

// Account is a read-only snapshot of an account. It carries public wallet
// data only; use Store.RevealMnemonic or Store.ExportPrivateKey for secrets.
type Account struct {
	ID          string
	Name        string
	Fingerprint string
	CreatedAt   time.Time
	Wallets     []wallet.Info
}

// account is the store's internal record. wallets[i].Index() == i.
type account struct {
	id          string
	name        string
	mnemonic    wallet.Mnemonic
	fingerprint string
	createdAt   time.Time
	wallets     []*wallet.Record
}

func (a *account) snapshot() Account {
	infos := make([]wallet.Info, len(a.wallets))
	for i, w := range a.wallets {
		infos[i] = w.Info()
	}
	return Account{
		ID:          a.id,
		Name:        a.name,
		Fingerprint: a.fingerprint,
		CreatedAt:   a.createdAt,
		Wallets:     infos,
	}
}

func (a *account) wipe() {
	for _, w := range a.wallets {
		w.Wipe()
	}
}

package keyring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

// timeLayout is ISO-8601 in UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// registryDoc is the persisted registry document. Field order is fixed.
type registryDoc struct {
	Accounts         []accountDoc `json:"accounts"`
	CurrentAccountID string       `json:"currentAccountId"`
}

type accountDoc struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Mnemonic  string      `json:"mnemonic"`
	Wallets   []walletDoc `json:"wallets"`
	CreatedAt string      `json:"createdAt"`
}

type walletDoc struct {
	ChainType       string `json:"chainType"`
	DerivationIndex uint32 `json:"derivationIndex"`
	DerivationPath  string `json:"derivationPath"`
	Address         string `json:"address"`
	PrivateKey      string `json:"privateKey"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// encodeRegistry renders accounts and the current pointer as an indented
// JSON document.
func encodeRegistry(accounts []*account, current string) ([]byte, error) {
	doc := registryDoc{
		Accounts:         make([]accountDoc, 0, len(accounts)),
		CurrentAccountID: current,
	}
	for _, a := range accounts {
		ad := accountDoc{
			ID:        a.id,
			Name:      a.name,
			Mnemonic:  a.mnemonic.Phrase(),
			Wallets:   make([]walletDoc, 0, len(a.wallets)),
			CreatedAt: formatTime(a.createdAt),
		}
		for _, w := range a.wallets {
			key, err := w.ExportPrivateKey()
			if err != nil {
				return nil, fmt.Errorf("account %s wallet %d: %w", a.id, w.Index(), err)
			}
			ad.Wallets = append(ad.Wallets, walletDoc{
				ChainType:       string(w.Chain()),
				DerivationIndex: w.Index(),
				DerivationPath:  w.Path(),
				Address:         w.Address(),
				PrivateKey:      key,
			})
		}
		doc.Accounts = append(doc.Accounts, ad)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeRegistry parses and verifies a registry document. Every wallet is
// rebuilt from its private key and checked against the stored address.
// A current pointer that names no account falls back to the first account.
func decodeRegistry(blob []byte) ([]*account, string, error) {
	var doc registryDoc
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptRegistry, err)
	}

	accounts := make([]*account, 0, len(doc.Accounts))
	seen := make(map[string]bool, len(doc.Accounts))
	fail := func(err error) ([]*account, string, error) {
		for _, a := range accounts {
			a.wipe()
		}
		return nil, "", err
	}

	for i, ad := range doc.Accounts {
		if ad.ID == "" {
			return fail(fmt.Errorf("%w: account %d has no id", ErrCorruptRegistry, i))
		}
		if seen[ad.ID] {
			return fail(fmt.Errorf("%w: duplicate account id %s", ErrCorruptRegistry, ad.ID))
		}
		seen[ad.ID] = true

		m, err := wallet.ParseMnemonic(ad.Mnemonic)
		if err != nil {
			return fail(fmt.Errorf("%w: account %s: %w", ErrCorruptRegistry, ad.ID, err))
		}
		created, err := parseTime(ad.CreatedAt)
		if err != nil {
			return fail(fmt.Errorf("%w: account %s createdAt: %v", ErrCorruptRegistry, ad.ID, err))
		}

		a := &account{
			id:          ad.ID,
			name:        ad.Name,
			mnemonic:    m,
			fingerprint: m.Fingerprint(),
			createdAt:   created,
			wallets:     make([]*wallet.Record, 0, len(ad.Wallets)),
		}
		accounts = append(accounts, a)

		for j, wd := range ad.Wallets {
			if wd.DerivationIndex != uint32(j) {
				return fail(fmt.Errorf("%w: account %s wallet %d has derivationIndex %d",
					ErrCorruptRegistry, ad.ID, j, wd.DerivationIndex))
			}
			chain := wallet.ChainType(wd.ChainType)
			rec, err := wallet.RestoreRecord(chain, wd.DerivationIndex, wd.DerivationPath, wd.Address, wd.PrivateKey)
			if err != nil {
				return fail(fmt.Errorf("%w: account %s wallet %d: %w", ErrCorruptRegistry, ad.ID, j, err))
			}
			a.wallets = append(a.wallets, rec)
		}
	}

	current := doc.CurrentAccountID
	if !seen[current] {
		current = ""
		if len(accounts) > 0 {
			current = accounts[0].id
		}
	}
	return accounts, current, nil
}

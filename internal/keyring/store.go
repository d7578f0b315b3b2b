// Package keyring keeps named accounts, each holding one recovery phrase and
// an append-only list of wallets derived from it.
package keyring

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

// Store is the account registry. All methods are safe for concurrent use;
// mutations and their saves run one at a time.
//
// Every successful mutation saves the full registry through the port. When
// the save fails the mutation is kept, its result is returned together with
// a *PersistenceError, and the store stays dirty until Flush succeeds.
type Store struct {
	mu   sync.Mutex
	port Persistence

	accounts      []*account // insertion order
	byID          map[string]*account
	byFingerprint map[string][]*account
	current       string

	dirty  bool
	closed bool

	now func() time.Time
}

// NewStore creates an empty store backed by port. A nil port keeps the
// registry in memory only.
func NewStore(port Persistence) *Store {
	if port == nil {
		port = NewMemoryPort()
	}
	return &Store{
		port:          port,
		byID:          make(map[string]*account),
		byFingerprint: make(map[string][]*account),
		now:           time.Now,
	}
}

// Open creates a store and loads the saved registry from port.
func Open(port Persistence) (*Store, error) {
	s := NewStore(port)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory state with the saved registry. An empty
// store results when nothing has been saved yet.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	blob, ok, err := s.port.Load()
	if err != nil {
		return &PersistenceError{Op: "load", Err: err}
	}
	var (
		accounts []*account
		current  string
	)
	if ok {
		accounts, current, err = decodeRegistry(blob)
		clear(blob)
		if err != nil {
			return err
		}
	}

	for _, a := range s.accounts {
		a.wipe()
	}
	s.accounts = accounts
	s.byID = make(map[string]*account, len(accounts))
	s.byFingerprint = make(map[string][]*account, len(accounts))
	for _, a := range accounts {
		s.index(a)
	}
	s.current = current
	s.dirty = false

	log.Keyring.Info().
		Int("accounts", len(accounts)).
		Str("current", current).
		Msg("Registry loaded")
	return nil
}

// CreateAccount adds an account for m and makes it current. An empty name
// becomes "Account N".
func (s *Store) CreateAccount(m wallet.Mnemonic, name string) (Account, error) {
	if m.IsZero() {
		return Account{}, fmt.Errorf("%w: empty phrase", wallet.ErrInvalidMnemonic)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Account{}, ErrClosed
	}
	a := s.insert(m, name, "Account")
	return a.snapshot(), s.commit("create account")
}

// GenerateAccount creates an account with a freshly generated phrase.
func (s *Store) GenerateAccount(name string) (Account, error) {
	m, err := wallet.GenerateMnemonic()
	if err != nil {
		return Account{}, err
	}
	return s.CreateAccount(m, name)
}

// ImportAccount validates phrase and adds it as a new current account. An
// empty name becomes "Imported Account N". A phrase that is already held by
// an account fails with ErrDuplicateAccount.
func (s *Store) ImportAccount(phrase, name string) (Account, error) {
	m, err := wallet.ParseMnemonic(phrase)
	if err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Account{}, ErrClosed
	}
	for _, a := range s.byFingerprint[m.Fingerprint()] {
		if a.mnemonic.Equal(m) {
			return Account{}, fmt.Errorf("%w: %s", ErrDuplicateAccount, a.id)
		}
	}
	a := s.insert(m, name, "Imported Account")
	return a.snapshot(), s.commit("import account")
}

// insert must be called with s.mu held.
func (s *Store) insert(m wallet.Mnemonic, name, defaultPrefix string) *account {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s %d", defaultPrefix, len(s.accounts)+1)
	}
	a := &account{
		id:          uuid.NewString(),
		name:        name,
		mnemonic:    m,
		fingerprint: m.Fingerprint(),
		createdAt:   s.now().UTC().Truncate(time.Millisecond),
		wallets:     []*wallet.Record{},
	}
	s.accounts = append(s.accounts, a)
	s.index(a)
	s.current = a.id

	log.Keyring.Info().
		Str("account", a.id).
		Str("fingerprint", a.fingerprint).
		Msg("Account added")
	return a
}

func (s *Store) index(a *account) {
	s.byID[a.id] = a
	s.byFingerprint[a.fingerprint] = append(s.byFingerprint[a.fingerprint], a)
}

// SwitchCurrent makes the account id current.
func (s *Store) SwitchCurrent(id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Account{}, ErrClosed
	}
	a, err := s.lookup(id)
	if err != nil {
		return Account{}, err
	}
	s.current = id
	return a.snapshot(), s.commit("switch account")
}

// DeleteAccount removes the account id and wipes its keys. The last
// remaining account cannot be deleted. When the current account is deleted
// the first remaining account becomes current.
func (s *Store) DeleteAccount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	a, err := s.lookup(id)
	if err != nil {
		return err
	}
	if len(s.accounts) == 1 {
		return ErrLastAccount
	}

	for i, acc := range s.accounts {
		if acc == a {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			break
		}
	}
	delete(s.byID, id)
	fp := s.byFingerprint[a.fingerprint]
	for i, acc := range fp {
		if acc == a {
			fp = append(fp[:i], fp[i+1:]...)
			break
		}
	}
	if len(fp) == 0 {
		delete(s.byFingerprint, a.fingerprint)
	} else {
		s.byFingerprint[a.fingerprint] = fp
	}
	if s.current == id {
		s.current = s.accounts[0].id
	}
	a.wipe()

	log.Keyring.Info().
		Str("account", id).
		Str("current", s.current).
		Msg("Account deleted")
	return s.commit("delete account")
}

// AddWallet derives the next wallet of account id on chain. The index is
// the account's wallet count, shared by all chains.
func (s *Store) AddWallet(id string, chain wallet.ChainType) (wallet.Info, error) {
	infos, err := s.AddWallets(id, chain)
	if len(infos) == 0 {
		return wallet.Info{}, err
	}
	return infos[0], err
}

// AddWallets derives one wallet per entry of chains. Indices are assigned
// in order before the derivations run in parallel. Either all wallets are
// appended or none.
func (s *Store) AddWallets(id string, chains ...wallet.ChainType) ([]wallet.Info, error) {
	if len(chains) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	seed, err := wallet.SeedFromMnemonic(a.mnemonic)
	if err != nil {
		return nil, err
	}
	defer seed.Wipe()

	base := uint32(len(a.wallets))
	recs := make([]*wallet.Record, len(chains))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, chain := range chains {
		g.Go(func() error {
			rec, err := wallet.Derive(seed, chain, base+uint32(i))
			if err != nil {
				return err
			}
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, rec := range recs {
			if rec != nil {
				rec.Wipe()
			}
		}
		return nil, err
	}

	infos := make([]wallet.Info, len(recs))
	for i, rec := range recs {
		infos[i] = rec.Info()
		log.Keyring.Info().
			Str("account", a.id).
			Str("chain", string(rec.Chain())).
			Uint32("index", rec.Index()).
			Str("address", rec.Address()).
			Msg("Wallet added")
	}
	a.wallets = append(a.wallets, recs...)
	return infos, s.commit("add wallet")
}

// ListAccounts returns snapshots of all accounts in insertion order.
func (s *Store) ListAccounts() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Account, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = a.snapshot()
	}
	return out
}

// Account returns a snapshot of the account id.
func (s *Store) Account(id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return Account{}, err
	}
	return a.snapshot(), nil
}

// Current returns the current account. ok is false only for an empty store.
func (s *Store) Current() (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[s.current]
	if !ok {
		return Account{}, false
	}
	return a.snapshot(), true
}

// ListWallets returns the wallets of account id in index order.
func (s *Store) ListWallets(id string) ([]wallet.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return a.snapshot().Wallets, nil
}

// ExportPrivateKey returns the encoded private key of wallet index of
// account id.
func (s *Store) ExportPrivateKey(id string, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	a, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(a.wallets) {
		return "", fmt.Errorf("%w: account %s has no wallet %d", ErrWalletNotFound, id, index)
	}
	return a.wallets[index].ExportPrivateKey()
}

// RevealMnemonic returns the recovery phrase of account id.
func (s *Store) RevealMnemonic(id string) (wallet.Mnemonic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wallet.Mnemonic{}, ErrClosed
	}
	a, err := s.lookup(id)
	if err != nil {
		return wallet.Mnemonic{}, err
	}
	return a.mnemonic, nil
}

// Dirty reports whether the last save failed.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush saves the registry if an earlier save failed.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.dirty {
		return nil
	}
	return s.commit("flush")
}

// Close flushes pending changes and wipes all key material. The store
// cannot be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	var err error
	if s.dirty {
		err = s.commit("flush")
	}
	for _, a := range s.accounts {
		a.wipe()
	}
	s.accounts = nil
	s.byID = map[string]*account{}
	s.byFingerprint = map[string][]*account{}
	s.current = ""
	s.closed = true
	return err
}

// lookup must be called with s.mu held.
func (s *Store) lookup(id string) (*account, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return a, nil
}

// commit saves the registry. It must be called with s.mu held.
func (s *Store) commit(op string) error {
	blob, err := encodeRegistry(s.accounts, s.current)
	if err != nil {
		s.dirty = true
		return &PersistenceError{Op: op, Err: err}
	}
	defer clear(blob)

	if err := s.port.Save(blob); err != nil {
		s.dirty = true
		log.Keyring.Warn().Err(err).Str("op", op).Msg("Registry save failed")
		return &PersistenceError{Op: op, Err: err}
	}
	s.dirty = false
	return nil
}

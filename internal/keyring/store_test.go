package keyring

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingnet-keyring/internal/log"
	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

func TestStore_DefaultNames(t *testing.T) {
	s, _ := newTestStore(t)

	a1, err := s.GenerateAccount("")
	if err != nil {
		t.Fatalf("GenerateAccount() error: %v", err)
	}
	a2, err := s.GenerateAccount("   ")
	if err != nil {
		t.Fatalf("GenerateAccount() error: %v", err)
	}
	a3 := mustImport(t, s, abandonAbout, "")
	a4 := mustImport(t, s, legalWinner, "  Savings  ")

	tests := []struct {
		got, want string
	}{
		{a1.Name, "Account 1"},
		{a2.Name, "Account 2"},
		{a3.Name, "Imported Account 3"},
		{a4.Name, "Savings"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("name = %q, want %q", tt.got, tt.want)
		}
	}

	cur, ok := s.Current()
	if !ok || cur.ID != a4.ID {
		t.Errorf("Current() = %s, %v; want %s", cur.ID, ok, a4.ID)
	}
	if len(a1.Wallets) != 0 {
		t.Errorf("new account has %d wallets", len(a1.Wallets))
	}
	if a1.ID == a2.ID {
		t.Error("account ids must be unique")
	}
}

func TestStore_CreateAccountRejectsZeroMnemonic(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.CreateAccount(wallet.Mnemonic{}, "x")
	if !errors.Is(err, wallet.ErrInvalidMnemonic) {
		t.Errorf("CreateAccount(zero) error = %v, want ErrInvalidMnemonic", err)
	}
	if n := len(s.ListAccounts()); n != 0 {
		t.Errorf("accounts = %d, want 0", n)
	}
}

func TestStore_ImportInvalid(t *testing.T) {
	s, _ := newTestStore(t)
	for _, phrase := range []string{
		"",
		"abandon abandon abandon",
		strings.Replace(abandonAbout, "about", "able", 1),
		strings.Replace(abandonAbout, "about", "notaword", 1),
	} {
		if _, err := s.ImportAccount(phrase, ""); !errors.Is(err, wallet.ErrInvalidMnemonic) {
			t.Errorf("ImportAccount(%q) error = %v, want ErrInvalidMnemonic", phrase, err)
		}
	}
	if n := len(s.ListAccounts()); n != 0 {
		t.Errorf("accounts = %d after invalid imports, want 0", n)
	}
}

func TestStore_ImportDuplicate(t *testing.T) {
	s, port := newTestStore(t)
	first := mustImport(t, s, abandonAbout, "")
	mustImport(t, s, legalWinner, "")
	if _, err := s.SwitchCurrent(first.ID); err != nil {
		t.Fatal(err)
	}
	before := savedBlob(t, port)

	_, err := s.ImportAccount("  "+strings.ReplaceAll(abandonAbout, " ", "   ")+"\n", "again")
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("ImportAccount(duplicate) error = %v, want ErrDuplicateAccount", err)
	}
	if n := len(s.ListAccounts()); n != 2 {
		t.Errorf("accounts = %d, want 2", n)
	}
	if cur, _ := s.Current(); cur.ID != first.ID {
		t.Errorf("current = %s, want %s (unchanged)", cur.ID, first.ID)
	}
	if !bytes.Equal(savedBlob(t, port), before) {
		t.Error("failed import must not save")
	}
}

func TestStore_SequentialIndexing(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustImport(t, s, abandonAbout, "")

	chains := []wallet.ChainType{wallet.Ethereum, wallet.Solana, wallet.Ethereum}
	wantPaths := []string{
		"m/44'/60'/0'/0/0",
		"m/44'/501'/0'/1'",
		"m/44'/60'/0'/0/2",
	}
	paths := make(map[string]bool)
	for i, c := range chains {
		info := mustAddWallet(t, s, a.ID, c)
		if info.Index != uint32(i) {
			t.Errorf("wallet %d index = %d", i, info.Index)
		}
		if info.Path != wantPaths[i] {
			t.Errorf("wallet %d path = %s, want %s", i, info.Path, wantPaths[i])
		}
		if info.Chain != c {
			t.Errorf("wallet %d chain = %s, want %s", i, info.Chain, c)
		}
		paths[info.Path] = true
	}
	if len(paths) != 3 {
		t.Errorf("distinct paths = %d, want 3", len(paths))
	}

	ws, err := s.ListWallets(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ws[0].Address != abandonEthAddress {
		t.Errorf("first address = %s, want %s", ws[0].Address, abandonEthAddress)
	}
}

func TestStore_AddWalletsMatchesSequential(t *testing.T) {
	chains := []wallet.ChainType{wallet.Ethereum, wallet.Solana, wallet.Ethereum, wallet.Solana, wallet.Solana}

	batch, _ := newTestStore(t)
	ab := mustImport(t, batch, legalWinner, "")
	got, err := batch.AddWallets(ab.ID, chains...)
	if err != nil {
		t.Fatalf("AddWallets() error: %v", err)
	}

	seq, _ := newTestStore(t)
	as := mustImport(t, seq, legalWinner, "")
	for _, c := range chains {
		mustAddWallet(t, seq, as.ID, c)
	}
	want, _ := seq.ListWallets(as.ID)

	if len(got) != len(want) {
		t.Fatalf("AddWallets() returned %d wallets, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Index != want[i].Index || got[i].Address != want[i].Address || got[i].Path != want[i].Path {
			t.Errorf("wallet %d: batch %+v, sequential %+v", i, got[i], want[i])
		}
		kb, _ := batch.ExportPrivateKey(ab.ID, i)
		ks, _ := seq.ExportPrivateKey(as.ID, i)
		if kb != ks {
			t.Errorf("wallet %d private keys differ", i)
		}
	}

	if out, err := batch.AddWallets(ab.ID); out != nil || err != nil {
		t.Errorf("AddWallets() with no chains = %v, %v", out, err)
	}
}

func TestStore_AddWalletErrors(t *testing.T) {
	s, port := newTestStore(t)
	a := mustImport(t, s, abandonAbout, "")
	mustAddWallet(t, s, a.ID, wallet.Ethereum)
	before := savedBlob(t, port)

	if _, err := s.AddWallet("missing", wallet.Ethereum); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("AddWallet(missing) error = %v, want ErrAccountNotFound", err)
	}
	if _, err := s.AddWallet(a.ID, wallet.ChainType("bitcoin")); !errors.Is(err, wallet.ErrUnsupportedChain) {
		t.Errorf("AddWallet(bitcoin) error = %v, want ErrUnsupportedChain", err)
	}
	if _, err := s.AddWallets(a.ID, wallet.Solana, "bitcoin", wallet.Ethereum); !errors.Is(err, wallet.ErrUnsupportedChain) {
		t.Errorf("AddWallets(mixed) error = %v, want ErrUnsupportedChain", err)
	}

	ws, _ := s.ListWallets(a.ID)
	if len(ws) != 1 {
		t.Errorf("wallets = %d after failed adds, want 1", len(ws))
	}
	if !bytes.Equal(savedBlob(t, port), before) {
		t.Error("failed add must not save")
	}

	// The next index is still 1.
	if info := mustAddWallet(t, s, a.ID, wallet.Solana); info.Index != 1 {
		t.Errorf("next index = %d, want 1", info.Index)
	}
}

func TestStore_SwitchCurrent(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustImport(t, s, abandonAbout, "A")
	b := mustImport(t, s, legalWinner, "B")

	got, err := s.SwitchCurrent(a.ID)
	if err != nil {
		t.Fatalf("SwitchCurrent() error: %v", err)
	}
	if got.ID != a.ID || got.Name != "A" {
		t.Errorf("SwitchCurrent() = %+v", got)
	}
	if _, err := s.SwitchCurrent("nope"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("SwitchCurrent(nope) error = %v, want ErrAccountNotFound", err)
	}
	if cur, _ := s.Current(); cur.ID != a.ID {
		t.Errorf("current = %s after failed switch, want %s", cur.ID, a.ID)
	}
	_ = b
}

func TestStore_LastAccountProtection(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustImport(t, s, abandonAbout, "")
	mustAddWallet(t, s, a.ID, wallet.Ethereum)

	if err := s.DeleteAccount(a.ID); !errors.Is(err, ErrLastAccount) {
		t.Fatalf("DeleteAccount(last) error = %v, want ErrLastAccount", err)
	}
	got, err := s.Account(a.ID)
	if err != nil {
		t.Fatalf("account gone after rejected delete: %v", err)
	}
	if len(got.Wallets) != 1 {
		t.Errorf("wallets = %d, want 1", len(got.Wallets))
	}
	if _, err := s.ExportPrivateKey(a.ID, 0); err != nil {
		t.Errorf("key unusable after rejected delete: %v", err)
	}

	// An unknown id is reported as not found even with one account left.
	if err := s.DeleteAccount("nope"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("DeleteAccount(nope) error = %v, want ErrAccountNotFound", err)
	}
}

func TestStore_DeleteReassignsCurrent(t *testing.T) {
	s, _ := newTestStore(t)
	a, _ := s.GenerateAccount("A")
	b, _ := s.GenerateAccount("B")
	c, _ := s.GenerateAccount("C")

	// Deleting the current account selects the first remaining one.
	if err := s.DeleteAccount(c.ID); err != nil {
		t.Fatalf("DeleteAccount() error: %v", err)
	}
	if cur, _ := s.Current(); cur.ID != a.ID {
		t.Errorf("current = %s, want first account %s", cur.ID, a.ID)
	}

	// Deleting another account keeps the current one.
	if _, err := s.SwitchCurrent(b.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteAccount(a.ID); err != nil {
		t.Fatalf("DeleteAccount() error: %v", err)
	}
	if cur, _ := s.Current(); cur.ID != b.ID {
		t.Errorf("current = %s, want %s", cur.ID, b.ID)
	}

	list := s.ListAccounts()
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("ListAccounts() = %+v", list)
	}
}

func TestStore_DeleteAllowsReimport(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustImport(t, s, abandonAbout, "")
	s.GenerateAccount("")

	if err := s.DeleteAccount(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ImportAccount(abandonAbout, ""); err != nil {
		t.Errorf("reimport after delete error: %v", err)
	}
}

func TestStore_ExportPrivateKey(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustImport(t, s, abandonAbout, "")
	mustAddWallet(t, s, a.ID, wallet.Ethereum)

	key, err := s.ExportPrivateKey(a.ID, 0)
	if err != nil {
		t.Fatalf("ExportPrivateKey() error: %v", err)
	}
	if key != abandonEthKey {
		t.Errorf("ExportPrivateKey() = %s, want %s", key, abandonEthKey)
	}

	tests := []struct {
		name  string
		id    string
		index int
		want  error
	}{
		{"unknown account", "nope", 0, ErrAccountNotFound},
		{"index past end", a.ID, 1, ErrWalletNotFound},
		{"negative index", a.ID, -1, ErrWalletNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.ExportPrivateKey(tt.id, tt.index); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_RevealMnemonic(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustImport(t, s, "  "+abandonAbout+"  ", "")

	m, err := s.RevealMnemonic(a.ID)
	if err != nil {
		t.Fatalf("RevealMnemonic() error: %v", err)
	}
	if m.Phrase() != abandonAbout {
		t.Errorf("phrase = %q", m.Phrase())
	}
	if _, err := s.RevealMnemonic("nope"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("RevealMnemonic(nope) error = %v", err)
	}
}

func TestStore_SnapshotsDoNotAlias(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustImport(t, s, abandonAbout, "")
	mustAddWallet(t, s, a.ID, wallet.Ethereum)

	ws, _ := s.ListWallets(a.ID)
	ws[0].Address = "tampered"
	ws[0].PublicKey[0] ^= 0xff

	acc, _ := s.Account(a.ID)
	acc.Wallets[0].Index = 42

	again, _ := s.ListWallets(a.ID)
	if len(again) != 1 {
		t.Fatalf("wallets = %d, want 1", len(again))
	}
	if again[0].Address != abandonEthAddress {
		t.Errorf("address = %s after caller mutation", again[0].Address)
	}
	if again[0].Index != 0 {
		t.Errorf("index = %d after caller mutation", again[0].Index)
	}
	if again[0].PublicKey[0] != 0x04 {
		t.Errorf("public key prefix = %#x after caller mutation", again[0].PublicKey[0])
	}
}

func TestStore_PersistenceFailure(t *testing.T) {
	port := &flakyPort{}
	s := NewStore(port)
	defer s.Close()

	a := mustImport(t, s, abandonAbout, "")
	port.setFail(errDiskFull)

	info, err := s.AddWallet(a.ID, wallet.Ethereum)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("AddWallet() error = %v, want *PersistenceError", err)
	}
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, errDiskFull) {
		t.Errorf("error %v should match ErrPersistence and the cause", err)
	}
	if perr.Op != "add wallet" {
		t.Errorf("Op = %q", perr.Op)
	}
	if info.Address != abandonEthAddress {
		t.Errorf("result not returned with persistence error: %+v", info)
	}
	if !s.Dirty() {
		t.Error("store should be dirty after failed save")
	}

	// The mutation is kept and visible.
	ws, _ := s.ListWallets(a.ID)
	if len(ws) != 1 {
		t.Fatalf("wallets = %d, want 1", len(ws))
	}
	if err := s.Flush(); !errors.Is(err, ErrPersistence) {
		t.Errorf("Flush() with failing port error = %v", err)
	}

	port.setFail(nil)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if s.Dirty() {
		t.Error("store still dirty after Flush")
	}

	reloaded, err := Open(port)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer reloaded.Close()
	ws, _ = reloaded.ListWallets(a.ID)
	if len(ws) != 1 || ws[0].Address != abandonEthAddress {
		t.Errorf("reloaded wallets = %+v", ws)
	}
}

func TestStore_FlushCleanIsNoop(t *testing.T) {
	port := &flakyPort{}
	s := NewStore(port)
	defer s.Close()
	mustImport(t, s, abandonAbout, "")

	before := port.saves
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if port.saves != before {
		t.Errorf("Flush() on clean store saved %d times", port.saves-before)
	}
}

func TestStore_LoadFailure(t *testing.T) {
	s := NewStore(loadErrPort{})
	err := s.Load()
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "load" {
		t.Errorf("Load() error = %v, want load PersistenceError", err)
	}
}

type loadErrPort struct{}

func (loadErrPort) Load() ([]byte, bool, error) { return nil, false, errDiskFull }
func (loadErrPort) Save([]byte) error            { return nil }

func TestStore_Close(t *testing.T) {
	port := &flakyPort{}
	s := NewStore(port)
	a := mustImport(t, s, abandonAbout, "")
	mustAddWallet(t, s, a.ID, wallet.Solana)

	port.setFail(errDiskFull)
	s.SwitchCurrent(a.ID)
	port.setFail(nil)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if _, err := s.ExportPrivateKey(a.ID, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("ExportPrivateKey() after Close error = %v", err)
	}
	if _, err := s.GenerateAccount(""); !errors.Is(err, ErrClosed) {
		t.Errorf("GenerateAccount() after Close error = %v", err)
	}
	if len(s.ListAccounts()) != 0 {
		t.Error("ListAccounts() after Close should be empty")
	}

	// Close flushed the pending switch.
	reloaded, err := Open(port)
	if err != nil {
		t.Fatal(err)
	}
	defer reloaded.Close()
	if cur, ok := reloaded.Current(); !ok || cur.ID != a.ID {
		t.Errorf("reloaded current = %s, %v", cur.ID, ok)
	}
}

func TestStore_ConcurrentAddWallet(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustImport(t, s, legalWinner, "")

	const workers, perWorker = 8, 4
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				chain := wallet.Ethereum
				if (w+i)%2 == 1 {
					chain = wallet.Solana
				}
				if _, err := s.AddWallet(a.ID, chain); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	// Readers run alongside the writers.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				s.ListAccounts()
				s.ListWallets(a.ID)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("AddWallet() error: %v", err)
	}

	ws, _ := s.ListWallets(a.ID)
	if len(ws) != workers*perWorker {
		t.Fatalf("wallets = %d, want %d", len(ws), workers*perWorker)
	}
	addrs := make(map[string]bool)
	for i, w := range ws {
		if w.Index != uint32(i) {
			t.Errorf("wallet %d has index %d", i, w.Index)
		}
		addrs[w.Address] = true
	}
	if len(addrs) != len(ws) {
		t.Errorf("duplicate addresses: %d distinct of %d", len(addrs), len(ws))
	}
}

func TestStore_LogsCarryNoSecrets(t *testing.T) {
	var buf bytes.Buffer
	log.SetLogger(log.NewJSONLogger(&buf, "debug"))
	t.Cleanup(func() { log.SetLogger(log.NewConsoleLogger(log.Output, "warn")) })

	port := &flakyPort{}
	s := NewStore(port)
	defer s.Close()
	a := mustImport(t, s, abandonAbout, "")
	mustAddWallet(t, s, a.ID, wallet.Ethereum)
	port.setFail(errDiskFull)
	s.AddWallet(a.ID, wallet.Solana)
	key, _ := s.ExportPrivateKey(a.ID, 1)

	out := buf.String()
	if !strings.Contains(out, a.ID) {
		t.Fatalf("expected account id in logs: %s", out)
	}
	for _, secret := range []string{abandonAbout, "abandon abandon", abandonEthKey, abandonEthKey[2:], key} {
		if strings.Contains(out, secret) {
			t.Errorf("log output contains secret %q", secret)
		}
	}
}

func ExampleStore() {
	s := NewStore(nil)
	defer s.Close()

	acc, _ := s.ImportAccount(abandonAbout, "")
	w, _ := s.AddWallet(acc.ID, wallet.Ethereum)
	fmt.Println(acc.Name)
	fmt.Println(w.Path, w.Address)
	// Output:
	// Imported Account 1
	// m/44'/60'/0'/0/0 0x9858EfFD232B4033E47d90003D41EC34EcaEda94
}

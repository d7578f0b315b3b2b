package keyring

import (
	"errors"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

const (
	abandonAbout = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	legalWinner  = "legal winner thank year wave sausage worth useful legal winner thank yellow"

	// m/44'/60'/0'/0/0 of abandonAbout.
	abandonEthAddress = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	abandonEthKey     = "0x1ab42cc412b618bdea3a599e3c9bae199ebf030895b039e9db1e30dafb12b727"
)

var errDiskFull = errors.New("disk full")

// flakyPort is a MemoryPort whose saves can be made to fail.
type flakyPort struct {
	MemoryPort
	failMu sync.Mutex
	fail   error
	saves  int
}

func (p *flakyPort) setFail(err error) {
	p.failMu.Lock()
	defer p.failMu.Unlock()
	p.fail = err
}

func (p *flakyPort) Save(blob []byte) error {
	p.failMu.Lock()
	fail := p.fail
	p.saves++
	p.failMu.Unlock()
	if fail != nil {
		return fail
	}
	return p.MemoryPort.Save(blob)
}

func newTestStore(t *testing.T) (*Store, *MemoryPort) {
	t.Helper()
	port := NewMemoryPort()
	s := NewStore(port)
	t.Cleanup(func() { s.Close() })
	return s, port
}

func mustImport(t *testing.T, s *Store, phrase, name string) Account {
	t.Helper()
	a, err := s.ImportAccount(phrase, name)
	if err != nil {
		t.Fatalf("ImportAccount() error: %v", err)
	}
	return a
}

func mustAddWallet(t *testing.T, s *Store, id string, chain wallet.ChainType) wallet.Info {
	t.Helper()
	info, err := s.AddWallet(id, chain)
	if err != nil {
		t.Fatalf("AddWallet(%s) error: %v", chain, err)
	}
	return info
}

func savedBlob(t *testing.T, p Persistence) []byte {
	t.Helper()
	blob, ok, err := p.Load()
	if err != nil {
		t.Fatalf("port Load() error: %v", err)
	}
	if !ok {
		t.Fatal("nothing saved")
	}
	return blob
}

func fastParams() wallet.EncryptionParams {
	return wallet.EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1}
}

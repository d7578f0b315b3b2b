package keyring

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/klingnet-keyring/internal/storage"
)

// Key layout inside the keyring namespace.
var (
	dbPrefix     = []byte("keyring/")
	registryKey  = []byte("registry")
	versionKey   = []byte("version")
	registryVers = 1
)

// DBPort persists the registry in a key-value store under the keyring/
// namespace. The document and its schema version are written in one batch.
type DBPort struct {
	db *storage.PrefixDB
}

// NewDBPort wraps db. The port does not close db.
func NewDBPort(db storage.DB) *DBPort {
	return &DBPort{db: storage.NewPrefixDB(db, dbPrefix)}
}

// Load reads the registry blob.
func (p *DBPort) Load() ([]byte, bool, error) {
	blob, err := p.db.Get(registryKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read registry: %w", err)
	}

	raw, err := p.db.Get(versionKey)
	if err != nil {
		return nil, false, fmt.Errorf("read registry version: %w", err)
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil || v != registryVers {
		return nil, false, fmt.Errorf("unsupported registry version %q", raw)
	}
	return blob, true, nil
}

// Save writes the registry blob.
func (p *DBPort) Save(blob []byte) error {
	b := p.db.NewBatch()
	if err := b.Put(versionKey, []byte(strconv.Itoa(registryVers))); err != nil {
		return fmt.Errorf("write registry version: %w", err)
	}
	if err := b.Put(registryKey, blob); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("commit registry: %w", err)
	}
	return nil
}

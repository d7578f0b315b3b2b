package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-keyring/internal/wallet"
)

// ErrPasswordRequired is returned when an encrypted keyring file is opened
// without a password.
var ErrPasswordRequired = errors.New("keyring file is encrypted, password required")

const fileVersion = 1

// keyringFile is the on-disk JSON envelope. Exactly one of Registry and
// Sealed is set.
type keyringFile struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Encrypted bool            `json:"encrypted"`
	Registry  json.RawMessage `json:"registry,omitempty"`
	Sealed    []byte          `json:"sealed,omitempty"`
}

// FilePort persists the registry in a single file written with mode 0600.
// With a password the registry is sealed with Argon2id and
// XChaCha20-Poly1305.
type FilePort struct {
	mu       sync.Mutex
	path     string
	password []byte
	params   wallet.EncryptionParams
	created  time.Time
	closed   bool
}

// NewFilePort creates a port that stores the registry in plain JSON.
func NewFilePort(path string) *FilePort {
	return &FilePort{path: path}
}

// NewEncryptedFilePort creates a port that seals the registry with password.
func NewEncryptedFilePort(path string, password []byte, params wallet.EncryptionParams) *FilePort {
	pw := make([]byte, len(password))
	copy(pw, password)
	return &FilePort{path: path, password: pw, params: params}
}

// Path returns the file location.
func (p *FilePort) Path() string { return p.path }

// Encrypted reports whether saves are sealed.
func (p *FilePort) Encrypted() bool { return p.password != nil }

// Load reads and, if needed, decrypts the registry.
func (p *FilePort) Load() ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, false, ErrClosed
	}

	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read keyring file: %w", err)
	}

	var kf keyringFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, false, fmt.Errorf("parse keyring file: %w", err)
	}
	if kf.Version != fileVersion {
		return nil, false, fmt.Errorf("unsupported keyring file version: %d", kf.Version)
	}
	p.created = kf.CreatedAt

	if !kf.Encrypted {
		return []byte(kf.Registry), true, nil
	}
	if p.password == nil {
		return nil, false, ErrPasswordRequired
	}
	blob, err := wallet.Open(kf.Sealed, p.password)
	if err != nil {
		return nil, false, fmt.Errorf("decrypt keyring file: %w", err)
	}
	return blob, true, nil
}

// Save writes blob through a temporary file and renames it into place.
func (p *FilePort) Save(blob []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	now := time.Now().UTC()
	if p.created.IsZero() {
		p.created = now
	}
	kf := keyringFile{
		Version:   fileVersion,
		CreatedAt: p.created,
		UpdatedAt: now,
	}
	if p.password != nil {
		sealed, err := wallet.Seal(blob, p.password, p.params)
		if err != nil {
			return fmt.Errorf("encrypt registry: %w", err)
		}
		kf.Encrypted = true
		kf.Sealed = sealed
	} else {
		if !json.Valid(blob) {
			return fmt.Errorf("registry is not valid JSON")
		}
		kf.Registry = blob
	}

	data, err := json.MarshalIndent(&kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keyring file: %w", err)
	}
	return writeFileAtomic(p.path, data)
}

// Close wipes the cached password. Later loads and saves fail with ErrClosed.
func (p *FilePort) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.password {
		p.password[i] = 0
	}
	p.closed = true
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create keyring dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write keyring file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync keyring file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close keyring file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("rename keyring file: %w", err)
	}
	return nil
}

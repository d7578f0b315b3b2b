package keyring

import "sync"

// Persistence loads and saves the serialized registry. Load reports
// ok == false when nothing has been saved yet. Save must not retain blob.
type Persistence interface {
	Load() (blob []byte, ok bool, err error)
	Save(blob []byte) error
}

// MemoryPort keeps the registry in memory. Used for ephemeral sessions and tests.
type MemoryPort struct {
	mu   sync.Mutex
	blob []byte
	ok   bool
}

// NewMemoryPort creates an empty in-memory port.
func NewMemoryPort() *MemoryPort {
	return &MemoryPort{}
}

// Load returns a copy of the last saved blob.
func (p *MemoryPort) Load() ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ok {
		return nil, false, nil
	}
	out := make([]byte, len(p.blob))
	copy(out, p.blob)
	return out, true, nil
}

// Save stores a copy of blob.
func (p *MemoryPort) Save(blob []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blob = append(p.blob[:0], blob...)
	p.ok = true
	return nil
}

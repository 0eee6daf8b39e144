package cache

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory cache store.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]entry
	seq    int
	closed bool
}

type entry struct {
	value     []byte
	sequence  int
	createdAt time.Time
}

// NewMemoryStore creates a new in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]entry),
	}
}

// Get implements Store.
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	e, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Put implements Store.
func (m *MemoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(value))
	copy(stored, value)

	seq := m.data[key].sequence
	if seq == 0 {
		m.seq++
		seq = m.seq
	}
	m.data[key] = entry{
		value:     stored,
		sequence:  seq,
		createdAt: time.Now().UTC(),
	}
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, key)
	return nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	type ordered struct {
		info Info
		seq  int
	}
	items := make([]ordered, 0, len(m.data))
	for key, e := range m.data {
		items = append(items, ordered{
			info: Info{Key: key, Size: int64(len(e.value)), CreatedAt: e.createdAt},
			seq:  e.sequence,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })

	infos := make([]Info, len(items))
	for i, it := range items {
		infos[i] = it.info
	}
	return infos, nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.data = make(map[string]entry)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

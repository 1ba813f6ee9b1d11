package database

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// KV is the string key/value store used for saved routes, hazard snapshots,
// favorites and the offline navigation cache.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	// Keys returns all keys with the given prefix in lexical order.
	Keys(prefix string) ([]string, error)
}

// GetJSON loads key and decodes it into v. ok is false when the key is absent.
func GetJSON(kv KV, key string, v any) (bool, error) {
	raw, ok, err := kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, eris.Wrapf(err, "decoding %q", key)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(kv KV, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "encoding %q", key)
	}
	return kv.Set(key, string(b))
}

// MemoryStore is a KV held entirely in memory. It is used by tests and as
// the fallback when the database file cannot be opened.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

package storage

import "sync"

// MemoryStore is an in-memory Store bounded by a byte quota.
type MemoryStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	used      int64
	limit     int64
	quotaCode int
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithQuotaCode sets the code reported in QuotaError.
func WithQuotaCode(code int) MemoryOption {
	return func(s *MemoryStore) {
		s.quotaCode = code
	}
}

// NewMemoryStore creates a store holding at most limit bytes of keys and
// values. A limit <= 0 means unbounded.
func NewMemoryStore(limit int64, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data:      make(map[string][]byte),
		limit:     limit,
		quotaCode: CodeQuotaExceeded,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used
	if old, ok := s.data[key]; ok {
		used -= entrySize(key, old)
	}
	need := entrySize(key, value)
	if s.limit > 0 && used+need > s.limit {
		return &QuotaError{Code: s.quotaCode, Used: used, Need: need, Limit: s.limit}
	}

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	s.used = used + need
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data[key]; ok {
		s.used -= entrySize(key, old)
		delete(s.data, key)
	}
	return nil
}

// Used returns the number of bytes currently stored.
func (s *MemoryStore) Used() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

package kv

import (
	"fmt"
	"sync"

	"github.com/allgemeinbildung/abubox/internal/cache"
)

// Memory is a process-local store. It can emulate a full or disabled
// browser storage through its quota and SetDisabled.
type Memory struct {
	items *cache.Cache[string, string]

	mu       sync.Mutex
	quota    int
	used     int
	disabled bool
}

type MemoryOption func(*Memory)

// WithQuota limits the total bytes of keys plus values. Zero means unlimited.
func WithQuota(bytes int) MemoryOption {
	return func(m *Memory) {
		m.quota = bytes
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items: cache.NewCache[string, string](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetDisabled makes every call fail with ErrDisabled, like storage in a locked-down browser.
func (m *Memory) SetDisabled(disabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = disabled
}

func (m *Memory) check() error {
	if m.disabled {
		return fmt.Errorf("%w: %w", ErrUnavailable, ErrDisabled)
	}
	return nil
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return "", false, err
	}
	v, ok := m.items.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}

	used := m.used + len(key) + len(value)
	if old, ok := m.items.Get(key); ok {
		used -= len(key) + len(old)
	}
	if m.quota > 0 && used > m.quota {
		return fmt.Errorf("%w: %w: %d of %d bytes", ErrUnavailable, ErrQuotaExceeded, used, m.quota)
	}

	m.items.Set(key, value)
	m.used = used
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if old, ok := m.items.Get(key); ok {
		m.items.Delete(key)
		m.used -= len(key) + len(old)
	}
	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	return filterPrefix(m.items.Keys(), prefix), nil
}

func (m *Memory) Close() error {
	return nil
}

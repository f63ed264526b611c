package tilestore

import "sync"

type MemoryStore struct {
	m *TypedSyncMap
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k Key) (Value, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.(Value), exists
}

func (c *TypedSyncMap) Store(k Key, v Value) {
	c.m.Store(k, v)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: &TypedSyncMap{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (c *MemoryStore) Get(k Key) (Value, bool, error) {
	v, exists := c.m.Load(k)
	return v, exists, nil
}

func (c *MemoryStore) Set(k Key, v Value) error {
	c.m.Store(k, v)
	return nil
}

// Len counts stored snapshots.
func (c *MemoryStore) Len() int {
	n := 0
	c.m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

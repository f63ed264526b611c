package tilestore

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()
	key := Key{X: 1, Y: -2, Resolution: 256, Curve: "rolling-dunes"}

	if _, ok, err := s.Get(key); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}

	if err := s.Set(key, Value("first")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get after Set = ok %v, err %v", ok, err)
	}
	if string(v) != "first" {
		t.Errorf("Get = %q, want %q", v, "first")
	}

	if err := s.Set(key, Value("second")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, _, _ := s.Get(key); string(v) != "second" {
		t.Errorf("Get after overwrite = %q, want %q", v, "second")
	}

	// Keys differing only in curve name are distinct entries.
	other := key
	other.Curve = "basin"
	if _, ok, _ := s.Get(other); ok {
		t.Error("lookup under a different curve name found the entry")
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := Key{X: i, Y: j, Resolution: 256, Curve: "rolling-dunes"}
				if err := s.Set(key, Value(fmt.Sprintf("%d/%d", i, j))); err != nil {
					t.Errorf("Set: %v", err)
					return
				}
				if v, ok, _ := s.Get(key); !ok || string(v) != fmt.Sprintf("%d/%d", i, j) {
					t.Errorf("Get(%v) = %q, ok %v", key, v, ok)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	if s.Len() != 16*100 {
		t.Errorf("Len = %d, want %d", s.Len(), 16*100)
	}
}

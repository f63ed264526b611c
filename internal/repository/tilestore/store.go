// Package tilestore persists encoded tile snapshots so a rebuilt in-memory
// cache can warm-start instead of repainting every tile. It is strictly
// best effort: the streaming engine never depends on it.
package tilestore

// Key identifies a stored snapshot. Curve distinguishes snapshots rendered
// by different curve definitions.
type Key struct {
	X          int
	Y          int
	Resolution int
	Curve      string
}

type Value []byte

type Store interface {
	Get(Key) (Value, bool, error)
	Set(Key, Value) error
}

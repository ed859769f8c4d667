// Package keylock provides striped mutual exclusion keyed by string.
//
// Operations on different keys proceed in parallel (up to the stripe
// count) while operations on the same key strictly serialize. The ledger
// uses it to serialize appends per trace id and the nonce store uses it to
// serialize consumption per token, without a global lock stalling
// unrelated traffic.
package keylock

import (
	"hash/fnv"
	"sync"
)

// DefaultStripes is the stripe count used by New when given a
// non-positive value.
const DefaultStripes = 64

// KeyLock is a fixed set of mutexes addressed by key hash. The zero value
// is not usable; construct with New.
type KeyLock struct {
	stripes []sync.Mutex
}

// New creates a KeyLock with the given stripe count.
func New(stripes int) *KeyLock {
	if stripes <= 0 {
		stripes = DefaultStripes
	}
	return &KeyLock{stripes: make([]sync.Mutex, stripes)}
}

// Lock acquires the stripe for key, blocking until it is free.
func (l *KeyLock) Lock(key string) {
	l.stripes[l.index(key)].Lock()
}

// Unlock releases the stripe for key. It must pair with a prior Lock of
// the same key.
func (l *KeyLock) Unlock(key string) {
	l.stripes[l.index(key)].Unlock()
}

// WithLock runs fn while holding the stripe for key.
func (l *KeyLock) WithLock(key string, fn func()) {
	l.Lock(key)
	defer l.Unlock(key)
	fn()
}

func (l *KeyLock) index(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(l.stripes)))
}

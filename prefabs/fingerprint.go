package prefabs

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Tracker remembers the last applied content of each file so a save that leaves the
// bytes unchanged is not applied twice.
type Tracker struct {
	mu   sync.Mutex
	seen map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]uint64)}
}

// Changed records data for name and reports whether it differs from the last call.
func (t *Tracker) Changed(name string, data []byte) bool {
	sum := Fingerprint(data)
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.seen[name]; ok && prev == sum {
		return false
	}
	t.seen[name] = sum
	return true
}

func (t *Tracker) Forget(name string) {
	t.mu.Lock()
	delete(t.seen, name)
	t.mu.Unlock()
}

// Package sequence issues the engine's order and trade ids.
package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic ids, safe for concurrent use so all
// pairs can share one.
type Sequencer struct {
	next atomic.Uint64
}

// New returns a sequencer whose first id is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued id.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Advance moves the sequence forward to at least v, used when restoring ids
// already present in a store.
func (s *Sequencer) Advance(v uint64) {
	for {
		cur := s.next.Load()
		if cur >= v || s.next.CompareAndSwap(cur, v) {
			return
		}
	}
}

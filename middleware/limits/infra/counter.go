package infra

import "sync/atomic"

// AtomicCounter implementa domain.AdmissionCounter com fetch-and-add atômico.
// O valor zero está pronto para uso.
type AtomicCounter struct {
	n atomic.Int64
}

func NewAtomicCounter() *AtomicCounter { return &AtomicCounter{} }

func (c *AtomicCounter) Increment() int64 { return c.n.Add(1) }
func (c *AtomicCounter) Decrement() int64 { return c.n.Add(-1) }
func (c *AtomicCounter) Current() int64   { return c.n.Load() }

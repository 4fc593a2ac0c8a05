package scheduler

import "sync/atomic"

// Dirty records that the screen no longer matches the state it was drawn from.
// Any goroutine may Mark it; only the scheduler clears it.
type Dirty struct {
	flag atomic.Bool
	wake chan struct{}
}

func NewDirty() *Dirty {
	return &Dirty{wake: make(chan struct{}, 1)}
}

// Mark sets the flag and wakes the scheduler if it is idle.
func (d *Dirty) Mark() {
	d.flag.Store(true)
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// TestAndClear clears the flag and reports whether it was set.
func (d *Dirty) TestAndClear() bool {
	return d.flag.Swap(false)
}

func (d *Dirty) IsSet() bool {
	return d.flag.Load()
}

// Wake fires at least once after every Mark.
func (d *Dirty) Wake() <-chan struct{} {
	return d.wake
}

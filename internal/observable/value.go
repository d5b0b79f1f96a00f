// Package observable provides a small synchronous observable container.
//
// A Value commits a new state and then calls every subscribed listener on the
// calling goroutine. No lock is held while listeners run, so a listener may
// itself call Set on the same or another Value. When a nested Set commits a
// newer state, the outer notification round stops early: listeners never see
// an older value after a newer one.
package observable

import "sync"

// Value holds a value of type T and notifies subscribers on every change.
type Value[T any] struct {
	mu        sync.Mutex
	value     T
	version   uint64
	nextID    uint64
	listeners []listener[T]
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

// Get returns the committed value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Version increments once per committed change.
func (v *Value[T]) Version() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Set commits value and notifies listeners.
func (v *Value[T]) Set(value T) {
	v.Update(func(T) (T, bool) { return value, true })
}

// Update applies fn to the committed value under the lock. When fn reports a
// change the result is committed and listeners are notified once.
func (v *Value[T]) Update(fn func(current T) (next T, changed bool)) bool {
	v.mu.Lock()
	next, changed := fn(v.value)
	if !changed {
		v.mu.Unlock()
		return false
	}
	v.value = next
	v.version++
	version := v.version
	listeners := make([]listener[T], len(v.listeners))
	copy(listeners, v.listeners)
	v.mu.Unlock()

	v.notify(version, next, listeners)
	return true
}

func (v *Value[T]) notify(version uint64, value T, listeners []listener[T]) {
	for _, l := range listeners {
		if v.Version() != version {
			return
		}
		if !v.subscribed(l.id) {
			continue
		}
		l.fn(value)
	}
}

func (v *Value[T]) subscribed(id uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, l := range v.listeners {
		if l.id == id {
			return true
		}
	}
	return false
}

// Subscribe registers fn for future changes. The returned function removes
// the subscription and is safe to call more than once.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.mu.Lock()
	v.nextID++
	id := v.nextID
	v.listeners = append(v.listeners, listener[T]{id: id, fn: fn})
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, l := range v.listeners {
				if l.id == id {
					v.listeners = append(v.listeners[:i:i], v.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

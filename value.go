// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package oneshot

// MutexValue is a value of type T guarded by a Mutex. Access is
// scoped: the lock is held exactly for the duration of a callback and
// released on every exit path, including a panic in the callback.
//
// The zero value holds the zero value of T, unlocked.
type MutexValue[T any] struct {
	mu Mutex
	v  T
}

// WithLock calls f with the guarded value locked. It panics if the
// value is already locked.
func (m *MutexValue[T]) WithLock(f func(p *T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.v)
}

// TryWithLock calls f with the guarded value locked and reports
// whether it acquired the lock. f is not called on failure.
func (m *MutexValue[T]) TryWithLock(f func(p *T)) bool {
	if !m.mu.TryLock() {
		return false
	}
	defer m.mu.Unlock()
	f(&m.v)
	return true
}

// Load returns a shallow copy of the guarded value.
func (m *MutexValue[T]) Load() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v
}

// Store replaces the guarded value with v.
func (m *MutexValue[T]) Store(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v = v
}

// Swap replaces the guarded value with v and returns the old value.
func (m *MutexValue[T]) Swap(v T) (old T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, m.v = m.v, v
	return old
}

// RWMutexValue is a value of type T guarded by an RWMutex, with the
// same scoped-access discipline as MutexValue.
//
// The zero value holds the zero value of T, unlocked.
type RWMutexValue[T any] struct {
	mu RWMutex
	v  T
}

// WithLock calls f with the guarded value write-locked. It panics if
// the value is locked in any mode.
func (m *RWMutexValue[T]) WithLock(f func(p *T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.v)
}

// TryWithLock calls f with the guarded value write-locked and reports
// whether it acquired the lock. f is not called on failure.
func (m *RWMutexValue[T]) TryWithLock(f func(p *T)) bool {
	if !m.mu.TryLock() {
		return false
	}
	defer m.mu.Unlock()
	f(&m.v)
	return true
}

// WithRLock calls f with the guarded value read-locked. f shares the
// value with any concurrent readers and must not mutate it. It panics
// if the value is write-locked.
func (m *RWMutexValue[T]) WithRLock(f func(p *T)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f(&m.v)
}

// TryWithRLock calls f with the guarded value read-locked and reports
// whether it acquired the lock. f is not called on failure.
func (m *RWMutexValue[T]) TryWithRLock(f func(p *T)) bool {
	if !m.mu.TryRLock() {
		return false
	}
	defer m.mu.RUnlock()
	f(&m.v)
	return true
}

// Load returns a shallow copy of the guarded value, taken under the
// read lock.
func (m *RWMutexValue[T]) Load() T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v
}

// Store replaces the guarded value with v under the write lock.
func (m *RWMutexValue[T]) Store(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v = v
}

// WithUpgradableLock calls f holding the upgradable read lock. f may
// read through the handle and, once it has decided to write, call
// [Upgradable.Upgrade] to finish with write access. Whichever mode the
// handle ends up in, the lock is released when f returns.
func (m *RWMutexValue[T]) WithUpgradableLock(f func(u *Upgradable[T])) {
	m.mu.LockUpgradable()
	u := &Upgradable[T]{m: m}
	defer u.unlock()
	f(u)
}

// Upgradable is the access handle passed to
// [RWMutexValue.WithUpgradableLock]. It starts with read access and
// may be upgraded to write access once.
type Upgradable[T any] struct {
	m        *RWMutexValue[T]
	upgraded bool
}

// Value returns the guarded value for reading. The caller must not
// mutate it before a successful Upgrade.
func (u *Upgradable[T]) Value() *T {
	return &u.m.v
}

// Upgrade converts the handle's read access into write access and
// calls f with the writable value. It panics if other readers are
// still present.
func (u *Upgradable[T]) Upgrade(f func(p *T)) {
	u.m.mu.Upgrade()
	u.upgraded = true
	f(&u.m.v)
}

// TryUpgrade is like Upgrade but reports failure instead of panicking
// when other readers are present. f is not called on failure.
func (u *Upgradable[T]) TryUpgrade(f func(p *T)) bool {
	if !u.m.mu.TryUpgrade() {
		return false
	}
	u.upgraded = true
	f(&u.m.v)
	return true
}

func (u *Upgradable[T]) unlock() {
	if u.upgraded {
		u.m.mu.Unlock()
	} else {
		u.m.mu.UnlockUpgradable()
	}
}

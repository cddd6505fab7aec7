// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package nosync provides the oneshot lock state machines without
// atomic operations.
//
// The types here behave exactly like their package oneshot
// counterparts but keep their state in plain fields, which makes
// every transition a couple of ordinary loads and stores. They are
// for locks that are only ever touched by one goroutine at a time,
// such as a lock confined to an event loop goroutine or one reached
// only under an outer lock, where the atomic operations of the
// concurrent variants are pure overhead.
//
// Nothing here detects misuse: concurrent access to these types is a
// data race.
package nosync

// Mutex is a mutual exclusion lock that panics instead of blocking.
// The zero value is an unlocked mutex.
type Mutex struct {
	locked bool
}

// Lock acquires m. It panics if m is already locked.
func (m *Mutex) Lock() {
	if !m.TryLock() {
		panic("nosync: Lock of an already locked Mutex")
	}
}

// TryLock attempts to acquire m and reports whether it succeeded.
// It has no effect on failure.
func (m *Mutex) TryLock() bool {
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases m.
//
// It must only be called by the current holder. Unlocking a Mutex
// that is not held corrupts the lock state and is not detected.
func (m *Mutex) Unlock() {
	m.locked = false
}

// UnlockFair is identical to Unlock. A one-shot mutex has no wait
// queue, so there is no waiter to hand the lock to.
func (m *Mutex) UnlockFair() {
	m.Unlock()
}

// IsLocked reports whether m is currently held.
func (m *Mutex) IsLocked() bool {
	return m.locked
}

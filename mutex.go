// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package oneshot

import "sync/atomic"

// Mutex is a mutual exclusion lock that panics instead of blocking.
// The zero value is an unlocked mutex.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	locked atomic.Bool
}

// Lock acquires m. It panics if m is already locked; it never blocks.
func (m *Mutex) Lock() {
	if !m.TryLock() {
		panic("oneshot: Lock of an already locked Mutex")
	}
}

// TryLock attempts to acquire m and reports whether it succeeded.
// It never blocks and has no effect on failure.
func (m *Mutex) TryLock() bool {
	return m.locked.CompareAndSwap(false, true)
}

// Unlock releases m.
//
// It must only be called by the current holder. Unlocking a Mutex
// that is not held corrupts the lock state and is not detected.
func (m *Mutex) Unlock() {
	m.locked.Store(false)
}

// UnlockFair is identical to Unlock. A one-shot mutex has no wait
// queue, so there is no waiter to hand the lock to.
func (m *Mutex) UnlockFair() {
	m.Unlock()
}

// IsLocked reports whether m is currently held. The answer may be
// stale as soon as it is produced.
func (m *Mutex) IsLocked() bool {
	return m.locked.Load()
}

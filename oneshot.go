// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package oneshot provides lock primitives that never block.
//
// A one-shot lock allows no contention: an acquisition that cannot
// proceed immediately either reports failure (the Try variants) or
// panics (the plain variants), instead of waiting for the holder to
// release. This converts a would-be deadlock into an immediate, loud
// failure, which is useful where contention is itself a bug: single
// goroutine event loops, callbacks that must not stall, or code that
// has to prove no deadlock can occur.
//
// The types in this package are safe for concurrent use. The nosync
// subpackage provides the same state machines without atomic
// operations, for locks that are only ever touched by one goroutine
// at a time.
package oneshot

import "sync"

// A Locker is a one-shot exclusive lock: Lock panics instead of
// blocking if the lock is already held.
type Locker interface {
	sync.Locker

	// TryLock attempts to acquire the lock and reports whether it
	// succeeded. It never blocks and has no effect on failure.
	TryLock() bool

	// IsLocked reports whether the lock is currently held. The answer
	// may be stale by the time the caller looks at it; use it for
	// diagnostics, never to gate access to protected data.
	IsLocked() bool
}

// A FairLocker is a Locker with a fair-unlock variant. One-shot locks
// keep no wait queue, so UnlockFair behaves identically to Unlock; the
// method exists so a one-shot lock can stand in for fairness-aware
// lock contracts.
type FairLocker interface {
	Locker

	UnlockFair()
}

// An RWLocker is a one-shot readers-writer lock. Lock and RLock panic
// instead of blocking on a conflicting holder.
type RWLocker interface {
	Locker

	RLock()
	TryRLock() bool
	RUnlock()

	// IsWriteLocked reports whether the lock is held for writing.
	// Advisory, like IsLocked.
	IsWriteLocked() bool
}

// A RecursiveRLocker is an RWLocker whose read lock may be safely
// re-acquired by a holder that already has it.
type RecursiveRLocker interface {
	RWLocker

	RLockRecursive()
	TryRLockRecursive() bool
}

// A DowngradingLocker is an RWLocker whose write lock can be converted
// to a read lock without an unlocked window in between.
type DowngradingLocker interface {
	RWLocker

	Downgrade()
}

// An UpgradableLocker is an RWLocker with a third mode: a single
// upgradable reader that can convert to a writer in place, provided
// no other readers remain.
type UpgradableLocker interface {
	RWLocker

	LockUpgradable()
	TryLockUpgradable() bool
	UnlockUpgradable()
	Upgrade()
	TryUpgrade() bool
}

// An UpgradableDowngradingLocker supports every conversion between
// the write, upgradable and read modes.
type UpgradableDowngradingLocker interface {
	UpgradableLocker
	DowngradingLocker

	DowngradeUpgradable()
	DowngradeToUpgradable()
}

var (
	_ FairLocker                  = (*Mutex)(nil)
	_ RecursiveRLocker            = (*RWMutex)(nil)
	_ UpgradableDowngradingLocker = (*RWMutex)(nil)
)

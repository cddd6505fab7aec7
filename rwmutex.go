// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package oneshot

import (
	"math"
	"sync/atomic"
)

// Bit layout of the RWMutex state word. The reader count lives above
// the two mode bits and moves in units of sharedUnit, so every
// transition is a single read-modify-write on one word.
const (
	exclusiveBit  uint64 = 1      // held for writing
	upgradableBit uint64 = 1 << 1 // one upgradable reader present
	sharedUnit    uint64 = 1 << 2 // one reader

	// sharedCutoff caps the reader count far below the point where it
	// would wrap into the mode bits. Wrapping would silently break
	// mutual exclusion, so crossing the cap panics instead.
	sharedCutoff = math.MaxUint64 / 2
)

// RWMutex is a readers-writer lock that panics instead of blocking.
// The zero value is an unlocked lock.
//
// The lock has three modes: any number of readers, at most one
// upgradable reader that can convert to a writer in place, and at
// most one writer, who excludes everyone else. No acquisition ever
// waits; a conflicting holder makes the plain methods panic and the
// Try methods report false.
//
// An RWMutex must not be copied after first use.
type RWMutex struct {
	state atomic.Uint64
}

// acquireShared adds one reader unit and returns the state word as it
// was at the instant of the add. It panics if the reader count is
// about to overflow.
func (rw *RWMutex) acquireShared() uint64 {
	old := rw.state.Add(sharedUnit) - sharedUnit
	if old > sharedCutoff {
		rw.state.Add(^(sharedUnit - 1))
		panic("oneshot: RLock overflow: too many readers")
	}
	return old
}

// RLock acquires rw for reading. It panics if rw is write-locked; it
// never blocks.
func (rw *RWMutex) RLock() {
	if !rw.TryRLock() {
		panic("oneshot: RLock of a write-locked RWMutex")
	}
}

// TryRLock attempts to acquire rw for reading and reports whether it
// succeeded. Readers exclude neither each other nor an upgradable
// reader; only a writer defeats the attempt.
//
// The reader unit is added before the write bit is checked and rolled
// back if a writer turned out to hold the lock. The rollback removes
// only this call's own unit, never another reader's, but an IsLocked
// snapshot taken in between may observe the transient unit.
func (rw *RWMutex) TryRLock() bool {
	old := rw.acquireShared()
	if old&exclusiveBit != 0 {
		rw.RUnlock()
		return false
	}
	return true
}

// RUnlock undoes a single successful RLock, TryRLock, or recursive
// variant.
//
// It must be called exactly once per successful read acquisition, by
// the holder. Excess calls corrupt the lock state and are not
// detected.
func (rw *RWMutex) RUnlock() {
	rw.state.Add(^(sharedUnit - 1))
}

// RLockRecursive acquires rw for reading, like RLock. The lock tracks
// no per-holder identity, so a repeated read acquisition by a current
// holder is the same transition as a first acquisition by anyone
// else; the separate name satisfies RecursiveRLocker.
func (rw *RWMutex) RLockRecursive() {
	rw.RLock()
}

// TryRLockRecursive is TryRLock; see RLockRecursive.
func (rw *RWMutex) TryRLockRecursive() bool {
	return rw.TryRLock()
}

// Lock acquires rw for writing. It panics if rw is held in any mode;
// it never blocks.
func (rw *RWMutex) Lock() {
	if !rw.TryLock() {
		panic("oneshot: Lock of an already locked RWMutex")
	}
}

// TryLock attempts to acquire rw for writing and reports whether it
// succeeded. It succeeds only from the fully unlocked state.
func (rw *RWMutex) TryLock() bool {
	return rw.state.CompareAndSwap(0, exclusiveBit)
}

// Unlock releases a write lock.
//
// It must only be called by the current writer. Unlocking an RWMutex
// that is not write-locked corrupts the lock state and is not
// detected.
func (rw *RWMutex) Unlock() {
	rw.state.And(^exclusiveBit)
}

// LockUpgradable acquires rw as the upgradable reader. It panics if
// an upgradable reader or a writer is already present; plain readers
// do not conflict.
func (rw *RWMutex) LockUpgradable() {
	if !rw.TryLockUpgradable() {
		panic("oneshot: LockUpgradable of an upgradable- or write-locked RWMutex")
	}
}

// TryLockUpgradable attempts to acquire rw as the upgradable reader
// and reports whether it succeeded.
//
// The upgradable bit is set before the prior state is examined and
// backed out on failure, but only when this call was the one that set
// it, so an existing upgradable holder is never stripped of the bit.
func (rw *RWMutex) TryLockUpgradable() bool {
	old := rw.state.Or(upgradableBit)
	if old&(upgradableBit|exclusiveBit) != 0 {
		if old&upgradableBit == 0 {
			rw.UnlockUpgradable()
		}
		return false
	}
	return true
}

// UnlockUpgradable releases the upgradable read lock.
//
// It must only be called by the current upgradable holder.
func (rw *RWMutex) UnlockUpgradable() {
	rw.state.And(^upgradableBit)
}

// Upgrade converts an upgradable read lock into a write lock. It
// panics if other readers are still present; it never waits for them
// to leave. The caller must hold the upgradable lock.
func (rw *RWMutex) Upgrade() {
	if !rw.TryUpgrade() {
		panic("oneshot: Upgrade of a RWMutex still read-locked by others")
	}
}

// TryUpgrade attempts to convert an upgradable read lock into a write
// lock and reports whether it succeeded. It fails while any plain
// reader remains, and has no effect on failure. The caller must hold
// the upgradable lock.
func (rw *RWMutex) TryUpgrade() bool {
	return rw.state.CompareAndSwap(upgradableBit, exclusiveBit)
}

// Downgrade converts a write lock into a read lock. The reader unit
// is taken before the write bit is dropped, so no observer ever sees
// an unlocked window in between: a concurrent TryLock fails
// throughout, and a concurrent TryRLock succeeds as soon as the write
// bit clears.
func (rw *RWMutex) Downgrade() {
	rw.acquireShared()
	rw.Unlock()
}

// DowngradeUpgradable converts an upgradable read lock into a plain
// read lock, with the same no-gap ordering as Downgrade.
func (rw *RWMutex) DowngradeUpgradable() {
	rw.acquireShared()
	rw.UnlockUpgradable()
}

// DowngradeToUpgradable converts a write lock into an upgradable read
// lock. The upgradable bit is set before the write bit is cleared;
// the intermediate state is more locked than either endpoint, so no
// conflicting acquisition can slip through the transition.
func (rw *RWMutex) DowngradeToUpgradable() {
	rw.state.Or(upgradableBit)
	rw.state.And(^exclusiveBit)
}

// IsLocked reports whether rw is held in any mode. The answer may be
// stale as soon as it is produced; use it for diagnostics, never to
// gate access to protected data.
func (rw *RWMutex) IsLocked() bool {
	return rw.state.Load() != 0
}

// IsWriteLocked reports whether rw is held for writing. Advisory,
// like IsLocked.
func (rw *RWMutex) IsWriteLocked() bool {
	return rw.state.Load()&exclusiveBit != 0
}

func (rw *RWMutex) isReadLocked() bool {
	return rw.state.Load()&^(exclusiveBit|upgradableBit) != 0
}

func (rw *RWMutex) isUpgradableLocked() bool {
	return rw.state.Load()&upgradableBit != 0
}

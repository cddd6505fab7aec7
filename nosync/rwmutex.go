// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package nosync

import "math"

// Bit layout of the RWMutex state word, identical to package oneshot:
// the reader count lives above the two mode bits and moves in units
// of sharedUnit.
const (
	exclusiveBit  uint64 = 1      // held for writing
	upgradableBit uint64 = 1 << 1 // one upgradable reader present
	sharedUnit    uint64 = 1 << 2 // one reader

	// sharedCutoff caps the reader count far below the point where it
	// would wrap into the mode bits.
	sharedCutoff = math.MaxUint64 / 2
)

// RWMutex is a readers-writer lock that panics instead of blocking,
// for use by a single goroutine at a time. The zero value is an
// unlocked lock.
//
// The state machine matches oneshot.RWMutex exactly: any number of
// readers, at most one upgradable reader, at most one writer, and
// every conversion between those modes. Only the representation
// differs: plain reads and writes instead of atomics.
type RWMutex struct {
	state uint64
}

// acquireShared adds one reader unit. It panics if the reader count
// is about to overflow.
func (rw *RWMutex) acquireShared() {
	if rw.state > sharedCutoff {
		panic("nosync: RLock overflow: too many readers")
	}
	rw.state += sharedUnit
}

// RLock acquires rw for reading. It panics if rw is write-locked.
func (rw *RWMutex) RLock() {
	if !rw.TryRLock() {
		panic("nosync: RLock of a write-locked RWMutex")
	}
}

// TryRLock attempts to acquire rw for reading and reports whether it
// succeeded. Only a writer defeats the attempt.
func (rw *RWMutex) TryRLock() bool {
	if rw.state&exclusiveBit != 0 {
		return false
	}
	rw.acquireShared()
	return true
}

// RUnlock undoes a single successful RLock, TryRLock, or recursive
// variant.
//
// It must be called exactly once per successful read acquisition.
// Excess calls corrupt the lock state and are not detected.
func (rw *RWMutex) RUnlock() {
	rw.state -= sharedUnit
}

// RLockRecursive acquires rw for reading, like RLock. The lock tracks
// no per-holder identity, so a repeated read acquisition by a current
// holder is the same transition as a first acquisition by anyone
// else.
func (rw *RWMutex) RLockRecursive() {
	rw.RLock()
}

// TryRLockRecursive is TryRLock; see RLockRecursive.
func (rw *RWMutex) TryRLockRecursive() bool {
	return rw.TryRLock()
}

// Lock acquires rw for writing. It panics if rw is held in any mode.
func (rw *RWMutex) Lock() {
	if !rw.TryLock() {
		panic("nosync: Lock of an already locked RWMutex")
	}
}

// TryLock attempts to acquire rw for writing and reports whether it
// succeeded. It succeeds only from the fully unlocked state.
func (rw *RWMutex) TryLock() bool {
	if rw.state != 0 {
		return false
	}
	rw.state = exclusiveBit
	return true
}

// Unlock releases a write lock.
//
// It must only be called by the current writer.
func (rw *RWMutex) Unlock() {
	rw.state &^= exclusiveBit
}

// LockUpgradable acquires rw as the upgradable reader. It panics if
// an upgradable reader or a writer is already present.
func (rw *RWMutex) LockUpgradable() {
	if !rw.TryLockUpgradable() {
		panic("nosync: LockUpgradable of an upgradable- or write-locked RWMutex")
	}
}

// TryLockUpgradable attempts to acquire rw as the upgradable reader
// and reports whether it succeeded. Plain readers do not conflict.
func (rw *RWMutex) TryLockUpgradable() bool {
	if rw.state&(upgradableBit|exclusiveBit) != 0 {
		return false
	}
	rw.state |= upgradableBit
	return true
}

// UnlockUpgradable releases the upgradable read lock.
//
// It must only be called by the current upgradable holder.
func (rw *RWMutex) UnlockUpgradable() {
	rw.state &^= upgradableBit
}

// Upgrade converts an upgradable read lock into a write lock. It
// panics if other readers are still present. The caller must hold the
// upgradable lock.
func (rw *RWMutex) Upgrade() {
	if !rw.TryUpgrade() {
		panic("nosync: Upgrade of a RWMutex still read-locked by others")
	}
}

// TryUpgrade attempts to convert an upgradable read lock into a write
// lock and reports whether it succeeded. It fails while any plain
// reader remains, and has no effect on failure.
func (rw *RWMutex) TryUpgrade() bool {
	if rw.state != upgradableBit {
		return false
	}
	rw.state = exclusiveBit
	return true
}

// Downgrade converts a write lock into a read lock.
func (rw *RWMutex) Downgrade() {
	rw.acquireShared()
	rw.Unlock()
}

// DowngradeUpgradable converts an upgradable read lock into a plain
// read lock.
func (rw *RWMutex) DowngradeUpgradable() {
	rw.acquireShared()
	rw.UnlockUpgradable()
}

// DowngradeToUpgradable converts a write lock into an upgradable read
// lock.
func (rw *RWMutex) DowngradeToUpgradable() {
	rw.state ^= exclusiveBit | upgradableBit
}

// IsLocked reports whether rw is held in any mode.
func (rw *RWMutex) IsLocked() bool {
	return rw.state != 0
}

// IsWriteLocked reports whether rw is held for writing.
func (rw *RWMutex) IsWriteLocked() bool {
	return rw.state&exclusiveBit != 0
}

func (rw *RWMutex) isReadLocked() bool {
	return rw.state&^(exclusiveBit|upgradableBit) != 0
}

func (rw *RWMutex) isUpgradableLocked() bool {
	return rw.state&upgradableBit != 0
}

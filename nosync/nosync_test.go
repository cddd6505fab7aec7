// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package nosync

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tailscale/oneshot"
)

// The single-owner variants satisfy the same capability contract as
// the concurrent ones; consumers can be written against the
// interfaces and take either.
var (
	_ oneshot.FairLocker                  = (*Mutex)(nil)
	_ oneshot.RecursiveRLocker            = (*RWMutex)(nil)
	_ oneshot.UpgradableDowngradingLocker = (*RWMutex)(nil)
)

func wantPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		recover()
	}()
	fn()
	t.Fatal("failed to panic")
}

func TestMutex(t *testing.T) {
	var m Mutex
	if m.IsLocked() {
		t.Fatal("zero Mutex reports locked")
	}
	m.Lock()
	if !m.IsLocked() {
		t.Fatal("IsLocked = false while held")
	}
	if m.TryLock() {
		t.Fatal("TryLock succeeded while held")
	}
	wantPanic(t, m.Lock)
	m.Unlock()
	if m.IsLocked() {
		t.Fatal("IsLocked = true after Unlock")
	}
	m.Lock()
	m.UnlockFair()
	if !m.TryLock() {
		t.Fatal("TryLock after UnlockFair failed")
	}
	m.Unlock()
}

func TestRWMutexModes(t *testing.T) {
	var rw RWMutex

	rw.Lock()
	if rw.TryRLock() || rw.TryLock() || rw.TryLockUpgradable() {
		t.Fatal("acquisition succeeded while write-locked")
	}
	wantPanic(t, rw.RLock)
	rw.Unlock()

	rw.RLock()
	rw.RLockRecursive()
	if rw.TryLock() {
		t.Fatal("TryLock succeeded with readers present")
	}
	if !rw.TryLockUpgradable() {
		t.Fatal("TryLockUpgradable failed with only plain readers present")
	}
	if rw.TryUpgrade() {
		t.Fatal("TryUpgrade succeeded with readers present")
	}
	wantPanic(t, rw.Upgrade)
	rw.RUnlock()
	rw.RUnlock()
	if !rw.TryUpgrade() {
		t.Fatal("TryUpgrade failed with no readers present")
	}
	rw.Unlock()
	if rw.IsLocked() {
		t.Fatal("IsLocked = true after release")
	}
}

func TestRWMutexDowngrades(t *testing.T) {
	var rw RWMutex

	rw.Lock()
	rw.Downgrade()
	if rw.IsWriteLocked() {
		t.Fatal("IsWriteLocked = true after Downgrade")
	}
	if !rw.TryRLock() {
		t.Fatal("TryRLock failed after Downgrade")
	}
	rw.RUnlock()
	rw.RUnlock()

	rw.Lock()
	rw.DowngradeToUpgradable()
	if !rw.isUpgradableLocked() {
		t.Fatal("upgradable bit not set after DowngradeToUpgradable")
	}
	if rw.TryLock() {
		t.Fatal("TryLock succeeded with an upgradable reader present")
	}
	if !rw.TryRLock() {
		t.Fatal("TryRLock failed with an upgradable reader present")
	}
	rw.RUnlock()

	rw.DowngradeUpgradable()
	if rw.isUpgradableLocked() {
		t.Fatal("upgradable bit still set after DowngradeUpgradable")
	}
	if !rw.isReadLocked() {
		t.Fatal("no reader present after DowngradeUpgradable")
	}
	rw.RUnlock()
	if rw.IsLocked() {
		t.Fatal("IsLocked = true after release")
	}
}

// The state machine must match the concurrent variant transition for
// transition; walk both through the same script and compare the
// advisory snapshots after every step.
func TestRWMutexMatchesOneshot(t *testing.T) {
	var concurrent oneshot.RWMutex
	var plain RWMutex

	type snapshot struct {
		Step          string
		Locked, Write bool
	}
	steps := []struct {
		name       string
		concurrent func()
		plain      func()
	}{
		{"RLock", concurrent.RLock, plain.RLock},
		{"LockUpgradable", concurrent.LockUpgradable, plain.LockUpgradable},
		{"RLock", concurrent.RLock, plain.RLock},
		{"RUnlock", concurrent.RUnlock, plain.RUnlock},
		{"DowngradeUpgradable", concurrent.DowngradeUpgradable, plain.DowngradeUpgradable},
		{"RUnlock", concurrent.RUnlock, plain.RUnlock},
		{"RUnlock", concurrent.RUnlock, plain.RUnlock},
		{"Lock", concurrent.Lock, plain.Lock},
		{"DowngradeToUpgradable", concurrent.DowngradeToUpgradable, plain.DowngradeToUpgradable},
		{"Upgrade", concurrent.Upgrade, plain.Upgrade},
		{"Downgrade", concurrent.Downgrade, plain.Downgrade},
		{"RUnlock", concurrent.RUnlock, plain.RUnlock},
	}

	var want, got []snapshot
	for _, s := range steps {
		s.concurrent()
		s.plain()
		want = append(want, snapshot{s.name, concurrent.IsLocked(), concurrent.IsWriteLocked()})
		got = append(got, snapshot{s.name, plain.IsLocked(), plain.IsWriteLocked()})
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("variants diverged (-oneshot +nosync):\n%s", diff)
	}
}

func TestRWMutexReaderOverflow(t *testing.T) {
	var rw RWMutex
	rw.state = sharedCutoff + sharedUnit
	wantPanic(t, func() { rw.TryRLock() })
	if got := rw.state; got != sharedCutoff+sharedUnit {
		t.Fatalf("state after overflow panic = %#x", got)
	}
}

func TestMutexAllocs(t *testing.T) {
	var m Mutex
	if n := int(testing.AllocsPerRun(1000, func() {
		m.Lock()
		m.Unlock()
	})); n != 0 {
		t.Errorf("AllocsPerRun = %d, want 0", n)
	}
}

func BenchmarkMutex(b *testing.B) {
	var m Mutex
	for range b.N {
		m.Lock()
		m.Unlock()
	}
}

func BenchmarkRWMutexRLock(b *testing.B) {
	var rw RWMutex
	for range b.N {
		rw.RLock()
		rw.RUnlock()
	}
}

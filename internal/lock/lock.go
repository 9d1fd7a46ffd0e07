// Package lock provides keyed mutual exclusion.
//
// Wallet and membership updates are read-check-write sequences. They take a lock
// on "user:<id>" or "house:<id>" before touching the store so that concurrent
// requests for the same user or house are applied one at a time.
package lock

import (
	"context"
	"sort"
)

// Locker acquires exclusive locks by key.
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// UserKey is the lock key for a user's wallet and house pointer.
func UserKey(id string) string { return "user:" + id }

// HouseKey is the lock key for a house's membership lists and wallet.
func HouseKey(id string) string { return "house:" + id }

// All acquires every key in sorted order, so that two callers locking
// overlapping sets cannot deadlock. Empty and duplicate keys are skipped.
func All(ctx context.Context, l Locker, keys ...string) (func(), error) {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, k := range sorted {
		unlock, err := l.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

//go:build !deadlock

// Package syncutil provides the mutex types used across go-secbus. By
// default they are plain sync mutexes with zero overhead; building with
// -tags=deadlock swaps in github.com/sasha-s/go-deadlock so lock-ordering
// bugs between a transport instance and its logging sink are caught in
// development builds.
package syncutil

import "sync"

// Mutex wraps sync.Mutex. Build with -tags=deadlock for deadlock detection.
type Mutex struct {
	sync.Mutex
}

// RWMutex wraps sync.RWMutex. Build with -tags=deadlock for deadlock detection.
type RWMutex struct {
	sync.RWMutex
}

// Copyright 2026 The go-secbus Authors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// SchedulerBackend arms a runtime timer whose expiry callback releases a
// one-slot semaphore. Join blocks on the semaphore until the callback gives
// it, so the wait yields the processor instead of spinning. This is the
// default backend.
type SchedulerBackend struct{}

// Name implements Backend.
func (SchedulerBackend) Name() string { return "scheduler" }

// Arm implements Backend.
func (SchedulerBackend) Arm(d time.Duration) (Handle, error) {
	h := &schedHandle{sem: make(chan struct{}, 1)}
	if d <= 0 {
		h.elapsed.Store(true)
		h.sem <- struct{}{}
		return h, nil
	}
	h.expiry = time.AfterFunc(d, func() {
		h.elapsed.Store(true)
		// The semaphore holds at most one token; a second give after a
		// racing Release is dropped rather than blocking the callback.
		select {
		case h.sem <- struct{}{}:
		default:
		}
	})
	return h, nil
}

type schedHandle struct {
	sem         chan struct{}
	expiry      *time.Timer
	elapsed     atomic.Bool
	releaseOnce sync.Once
}

func (h *schedHandle) Elapsed() bool {
	return h.elapsed.Load()
}

func (h *schedHandle) Join() error {
	<-h.sem
	h.Release()
	return nil
}

func (h *schedHandle) Release() {
	h.releaseOnce.Do(func() {
		if h.expiry != nil {
			h.expiry.Stop()
		}
	})
}

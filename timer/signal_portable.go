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

//go:build !linux

package timer

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// SignalBackend on non-Linux hosts arms a runtime timer whose expiry
// callback flips an atomic flag. The observable semantics match the Linux
// timerfd variant: the elapse arrives asynchronously and Join busy-polls the
// flag instead of blocking. Select SchedulerBackend where a blocking wait is
// wanted.
type SignalBackend struct{}

// Name implements Backend.
func (SignalBackend) Name() string { return "signal" }

// Arm implements Backend.
func (SignalBackend) Arm(d time.Duration) (Handle, error) {
	h := &signalHandle{}
	if d <= 0 {
		h.elapsed.Store(true)
		return h, nil
	}
	h.alarm = time.AfterFunc(d, func() {
		h.elapsed.Store(true)
	})
	return h, nil
}

type signalHandle struct {
	alarm       *time.Timer
	elapsed     atomic.Bool
	releaseOnce sync.Once
}

func (h *signalHandle) Elapsed() bool {
	return h.elapsed.Load()
}

func (h *signalHandle) Join() error {
	for !h.elapsed.Load() {
		runtime.Gosched()
	}
	h.Release()
	return nil
}

func (h *signalHandle) Release() {
	h.releaseOnce.Do(func() {
		if h.alarm != nil {
			h.alarm.Stop()
		}
	})
}

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

//go:build linux

package timer

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ashitaka1/go-secbus/status"
)

// SignalBackend arms an OS-level one-shot alarm (a Linux timerfd) whose
// expiry is observed asynchronously and published through an atomic flag.
// Join busy-polls that flag instead of blocking in the OS; the spin is
// bounded by scheduling granularity, not a true block, so callers must not
// assume yielding behavior. Select SchedulerBackend where a blocking wait is
// wanted.
type SignalBackend struct{}

// Name implements Backend.
func (SignalBackend) Name() string { return "signal" }

// Arm implements Backend.
func (SignalBackend) Arm(d time.Duration) (Handle, error) {
	h := &signalHandle{fd: -1, done: make(chan struct{})}
	if d <= 0 {
		h.elapsed.Store(true)
		close(h.done)
		return h, nil
	}

	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC)
	if err != nil {
		return nil, status.Newf(status.ModuleTimer, "set", status.ErrUnspecified, "timerfd create: %v", err)
	}
	spec := unix.ItimerSpec{Value: unix.NsecToTimespec(d.Nanoseconds())}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		// Failure path releases the half-armed alarm before returning.
		_ = unix.Close(fd)
		return nil, status.Newf(status.ModuleTimer, "set", status.ErrUnspecified, "timerfd settime: %v", err)
	}

	h.fd = fd
	go h.watch()
	return h, nil
}

// signalHandle holds the armed alarm. The elapsed flag is written by the
// watcher goroutine and read by the owner; both sides go through
// sync/atomic, and no lock exists that the expiry path could re-enter.
type signalHandle struct {
	done        chan struct{}
	fd          int
	elapsed     atomic.Bool
	releaseOnce sync.Once
	closeErr    error
}

// watch blocks on the timerfd until the alarm fires, then publishes the
// elapse. It is the asynchronous counterpart of a signal handler: the only
// shared state it touches is the atomic flag.
func (h *signalHandle) watch() {
	var buf [8]byte
	for {
		_, err := unix.Read(h.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		break
	}
	h.elapsed.Store(true)
	close(h.done)
}

func (h *signalHandle) Elapsed() bool {
	return h.elapsed.Load()
}

func (h *signalHandle) Join() error {
	for !h.elapsed.Load() {
		runtime.Gosched()
	}
	if err := h.release(); err != nil {
		// The elapse has already been observed; report the cleanup
		// failure without undoing it.
		return status.Newf(status.ModuleTimer, "join", status.ErrUnspecified, "closing alarm: %v", err)
	}
	return nil
}

func (h *signalHandle) Release() {
	_ = h.release()
}

func (h *signalHandle) release() error {
	h.releaseOnce.Do(func() {
		if h.fd < 0 {
			return
		}
		if !h.elapsed.Load() {
			// Force an immediate expiry so the watcher drains the
			// descriptor before it is closed.
			spec := unix.ItimerSpec{Value: unix.Timespec{Nsec: 1}}
			_ = unix.TimerfdSettime(h.fd, 0, &spec, nil)
		}
		<-h.done
		h.closeErr = unix.Close(h.fd)
	})
	return h.closeErr
}

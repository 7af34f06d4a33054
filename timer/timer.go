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

// Package timer provides the one-shot timer used to enforce guard time
// between bus transactions.
//
// A Timer is armed with Set, observed with HasElapsed or Join, and released
// with Destroy. The underlying countdown mechanism is a Backend chosen at the
// composition root; all backends provide identical externally-observable
// semantics even though their wake primitives differ (asynchronous OS timer,
// scheduler callback, deadline arithmetic). Call sites never select a backend.
package timer

import (
	"math"
	"time"

	"github.com/ashitaka1/go-secbus/status"
)

// maxSettableMillis is the largest duration, in whole milliseconds after
// ceiling conversion, that the backends' countdown registers can represent.
const maxSettableMillis = math.MaxUint32

// Handle is the armed backend state of a Timer. It is created by Backend.Arm
// and released exactly once, either by a Join that observed the elapse or by
// an explicit Release.
type Handle interface {
	// Elapsed reports whether the countdown has reached zero. Never blocks.
	Elapsed() bool

	// Join blocks the caller until the countdown has fully elapsed, then
	// releases the backend resources. A cleanup failure after the elapse
	// was observed is reported but does not undo the elapse.
	Join() error

	// Release frees the backend resources without waiting. Safe to call
	// more than once.
	Release()
}

// Backend arms the platform countdown mechanism behind a Timer.
type Backend interface {
	// Arm starts a one-shot countdown of the given duration. On any
	// intermediate failure all partially-created resources are released
	// before the error is returned.
	Arm(d time.Duration) (Handle, error)

	// Name identifies the backend in logs and diagnostics.
	Name() string
}

// Timer is a single one-shot duration. The zero state (and the state after
// Destroy) is unarmed; an unarmed Timer is elapsed by definition.
//
// A Timer is owned by a single execution context. The only concurrency it
// tolerates is the backend's expiry notification racing against the owner;
// that race is confined to the Handle implementations.
type Timer struct {
	backend  Backend
	handle   Handle
	duration time.Duration
}

// New returns an unarmed Timer using the given backend. A nil backend
// selects DefaultBackend.
func New(b Backend) *Timer {
	if b == nil {
		b = DefaultBackend()
	}
	return &Timer{backend: b}
}

// DefaultBackend is the backend used when the composition root does not pick
// one. The scheduler backend blocks instead of spinning, which is the safe
// choice on a general-purpose OS.
func DefaultBackend() Backend {
	return SchedulerBackend{}
}

// Set arms the timer for the given duration. A zero duration arms a timer
// that is already elapsed. If the timer is currently armed, the previous
// countdown is released first.
func (t *Timer) Set(d time.Duration) error {
	if t == nil {
		return status.New(status.ModuleTimer, "set", status.ErrIllegalArgument)
	}
	if d < 0 {
		return status.Newf(status.ModuleTimer, "set", status.ErrIllegalArgument, "negative duration %v", d)
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > maxSettableMillis {
		return status.Newf(status.ModuleTimer, "set", status.ErrIllegalArgument, "duration %v exceeds backend range", d)
	}

	if t.handle != nil {
		t.handle.Release()
		t.handle = nil
	}

	h, err := t.backend.Arm(d)
	if err != nil {
		return err
	}
	t.handle = h
	t.duration = d
	return nil
}

// HasElapsed reports whether the timer's duration is over. A timer that was
// never set is, per definition, already elapsed. Never blocks.
func (t *Timer) HasElapsed() bool {
	if t == nil || t.handle == nil {
		return true
	}
	return t.handle.Elapsed()
}

// Join blocks until the timer has elapsed and consumes the armed state.
// Joining a timer that was never set (or was already consumed) reports
// status.ErrNotSet rather than a generic argument error, because callers
// legitimately probe for a pending timer before waiting.
func (t *Timer) Join() error {
	if t == nil || t.handle == nil {
		return status.New(status.ModuleTimer, "join", status.ErrNotSet)
	}
	h := t.handle
	t.handle = nil
	return h.Join()
}

// Duration returns the duration the timer was last set with.
func (t *Timer) Duration() time.Duration {
	if t == nil {
		return 0
	}
	return t.duration
}

// Destroy releases all backend resources and resets the timer to its
// unarmed, elapsed state. Idempotent; safe on a never-set timer.
func (t *Timer) Destroy() {
	if t == nil {
		return
	}
	if t.handle != nil {
		t.handle.Release()
		t.handle = nil
	}
	t.duration = 0
}

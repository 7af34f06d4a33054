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

package secbus

import (
	"errors"
	"time"

	"github.com/ashitaka1/go-secbus/status"
	"github.com/ashitaka1/go-secbus/timer"
)

// Guard enforces the minimum idle interval a secure element needs between
// the end of one bus transaction and the start of the next. A transport
// calls Await before every operation and Restart after every operation
// attempt; enforcing the wait at the start of the next operation lets the
// caller's other work overlap with the guard interval.
//
// A Guard holds at most one pending timer and is owned by exactly one
// transport instance; the framework's per-instance serialization means it
// needs no locking of its own.
type Guard struct {
	backend  timer.Backend
	pending  *timer.Timer
	duration time.Duration
}

// NewGuard returns a disabled Guard (zero duration) using the given timer
// backend. A nil backend selects timer.DefaultBackend.
func NewGuard(backend timer.Backend) *Guard {
	if backend == nil {
		backend = timer.DefaultBackend()
	}
	return &Guard{backend: backend}
}

// Duration returns the configured guard time. Zero means disabled.
func (g *Guard) Duration() time.Duration {
	return g.duration
}

// SetDuration sets the guard time. It affects the next Restart; a pending
// timer keeps the duration it was armed with.
func (g *Guard) SetDuration(d time.Duration) {
	g.duration = d
}

// Pending reports whether a guard timer is currently armed.
func (g *Guard) Pending() bool {
	return g.pending != nil
}

// Await blocks until any pending guard timer has elapsed and releases it.
// A timer that reports "not set" means no guard was pending and counts as
// success; every other join failure is propagated.
func (g *Guard) Await() error {
	if g.pending == nil {
		return nil
	}
	err := g.pending.Join()
	g.pending.Destroy()
	g.pending = nil
	if err != nil && errors.Is(err, status.ErrNotSet) {
		err = nil
	}
	return err
}

// Restart arms a fresh guard timer for the configured duration, destroying
// any previous one first. With a zero duration the policy is a no-op and no
// timer is armed. Transports call this after every operation attempt,
// success or failure, so the next attempt never starts inside the device's
// recovery window.
func (g *Guard) Restart() error {
	if g.pending != nil {
		g.pending.Destroy()
		g.pending = nil
	}
	if g.duration <= 0 {
		return nil
	}
	t := timer.New(g.backend)
	if err := t.Set(g.duration); err != nil {
		return err
	}
	g.pending = t
	return nil
}

// Stop destroys any pending guard timer without waiting for it. Used on the
// transport's destroy path; idempotent.
func (g *Guard) Stop() {
	if g.pending != nil {
		g.pending.Destroy()
		g.pending = nil
	}
}

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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashitaka1/go-secbus/status"
	"github.com/ashitaka1/go-secbus/timer"
)

func TestGuardDisabledNeverArms(t *testing.T) {
	t.Parallel()
	g := NewGuard(nil)

	require.NoError(t, g.Restart())
	assert.False(t, g.Pending())

	// With no pending timer Await returns immediately.
	start := time.Now()
	require.NoError(t, g.Await())
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuardEnforcesInterval(t *testing.T) {
	t.Parallel()
	const guardTime = 40 * time.Millisecond

	g := NewGuard(timer.CountdownBackend{})
	g.SetDuration(guardTime)

	start := time.Now()
	require.NoError(t, g.Restart())
	require.True(t, g.Pending())
	require.NoError(t, g.Await())

	assert.GreaterOrEqual(t, time.Since(start), guardTime)
	assert.False(t, g.Pending())
}

func TestGuardAwaitConsumesPendingTimer(t *testing.T) {
	t.Parallel()
	g := NewGuard(timer.SchedulerBackend{})
	g.SetDuration(5 * time.Millisecond)

	require.NoError(t, g.Restart())
	require.NoError(t, g.Await())

	// A second await has nothing to wait for.
	start := time.Now()
	require.NoError(t, g.Await())
	assert.Less(t, time.Since(start), 5*time.Millisecond)
}

func TestGuardAwaitTreatsNotSetAsSuccess(t *testing.T) {
	t.Parallel()
	g := NewGuard(nil)
	// A pending timer that was never armed joins to "not set"; the policy
	// treats that as "no guard was pending".
	g.pending = timer.New(nil)
	require.NoError(t, g.Await())
	assert.False(t, g.Pending())
}

func TestGuardRestartReplacesPendingTimer(t *testing.T) {
	t.Parallel()
	g := NewGuard(timer.CountdownBackend{})
	g.SetDuration(time.Hour)
	require.NoError(t, g.Restart())

	g.SetDuration(10 * time.Millisecond)
	start := time.Now()
	require.NoError(t, g.Restart())
	require.NoError(t, g.Await())
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuardStopDropsPendingTimer(t *testing.T) {
	t.Parallel()
	g := NewGuard(timer.CountdownBackend{})
	g.SetDuration(time.Hour)
	require.NoError(t, g.Restart())

	g.Stop()
	g.Stop()
	assert.False(t, g.Pending())

	start := time.Now()
	require.NoError(t, g.Await())
	assert.Less(t, time.Since(start), time.Second)
}

// failingBackend simulates a backend whose arm path fails, e.g. exhausted OS
// timer resources.
type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }

func (failingBackend) Arm(time.Duration) (timer.Handle, error) {
	return nil, status.New(status.ModuleTimer, "set", status.ErrUnspecified)
}

func TestGuardRestartPropagatesArmFailure(t *testing.T) {
	t.Parallel()
	g := NewGuard(failingBackend{})
	g.SetDuration(time.Millisecond)

	err := g.Restart()
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnspecified))
	assert.False(t, g.Pending())
}

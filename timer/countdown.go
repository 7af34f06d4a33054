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

import "time"

// CountdownBackend models a hardware down-counter: arming records a deadline
// on the monotonic clock, an elapsed check reads the remaining count, and
// Join sleeps out whatever is left. It allocates no OS resources, so Release
// has nothing to free.
type CountdownBackend struct{}

// Name implements Backend.
func (CountdownBackend) Name() string { return "countdown" }

// Arm implements Backend.
func (CountdownBackend) Arm(d time.Duration) (Handle, error) {
	return &countdownHandle{deadline: time.Now().Add(d)}, nil
}

type countdownHandle struct {
	deadline time.Time
}

func (h *countdownHandle) Elapsed() bool {
	return !time.Now().Before(h.deadline)
}

func (h *countdownHandle) Join() error {
	if remaining := time.Until(h.deadline); remaining > 0 {
		time.Sleep(remaining)
	}
	return nil
}

func (h *countdownHandle) Release() {}

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

// Package secbus is the transport core of a secure-element communication
// stack. It defines the Layer contract that bus transports implement for the
// surrounding layered-protocol framework, the injected Logger capability,
// and the guard-time policy that keeps a minimum idle interval between
// consecutive bus transactions.
//
// Concrete transports live in the transport subpackages (transport/i2c on
// periph.io, transport/uart on go.bug.st/serial). The timer primitive behind
// the guard-time policy lives in the timer subpackage; its backend is chosen
// once, at the composition root. Logging sinks live in the logger
// subpackage.
//
// Framing, secure-element command semantics and retry policy belong to the
// layers stacked on top of a Layer; nothing in this package retries a failed
// operation, and the only implicit wait is the guard-time join.
package secbus

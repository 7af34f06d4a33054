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

// Package status defines the tri-part status codes used by every fallible
// operation in go-secbus: which module failed, which operation failed, and
// why. Callers normally branch only on success-vs-not, but the triple is
// preserved for diagnostics and the reason can be matched with errors.Is.
package status

import (
	"errors"
	"fmt"
)

// Module identifiers carried in status codes.
const (
	ModuleTimer    = "timer"
	ModuleI2C      = "i2c"
	ModuleUART     = "uart"
	ModuleProtocol = "protocol"
)

// Failure reasons. These are the only reasons a status code can carry;
// match them with errors.Is.
var (
	// ErrIllegalArgument reports a parameter error detected before any
	// resource was touched.
	ErrIllegalArgument = errors.New("illegal argument")
	// ErrOutOfMemory reports a resource allocation failure.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrUnspecified reports a bus or backend failure with no more
	// specific classification.
	ErrUnspecified = errors.New("unspecified error")
	// ErrNotSet reports an operation on a timer that was never armed.
	// Callers probing "is there a guard timer to wait for" treat it as
	// equivalent to success.
	ErrNotSet = errors.New("timer not set")
	// ErrStackInvalid reports a call that reached a layer whose state is
	// missing, i.e. a mis-assembled or already-destroyed protocol stack.
	ErrStackInvalid = errors.New("protocol stack invalid")
)

// Error is the tri-part status code as a Go error. Reason is one of the
// sentinel errors above and is exposed through Unwrap so that
// errors.Is(err, status.ErrNotSet) works across wrapping.
type Error struct {
	Reason   error
	Module   string
	Function string
	Detail   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %v: %s", e.Module, e.Function, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %v", e.Module, e.Function, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Reason
}

// New returns a status code for the given module, function and reason.
func New(module, function string, reason error) *Error {
	return &Error{Module: module, Function: function, Reason: reason}
}

// Newf returns a status code with additional formatted detail.
func Newf(module, function string, reason error, format string, args ...any) *Error {
	return &Error{Module: module, Function: function, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// IsReason reports whether err carries the given failure reason.
func IsReason(err, reason error) bool {
	return errors.Is(err, reason)
}

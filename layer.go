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

import "context"

const (
	// MaxTransferLen is the largest number of bytes a transport accepts in
	// a single transmit or receive.
	MaxTransferLen = 0xFFFF_FFFF

	// LengthUnknown is the framework's sentinel for "read until the frame
	// says how long it is". The transports in this module cannot support
	// unknown-length reads; that requires a framing layer above them.
	LengthUnknown = -1
)

// LayerType identifies a Layer implementation.
type LayerType string

const (
	// LayerI2C is the I2C bus transport.
	LayerI2C LayerType = "i2c"
	// LayerUART is the serial bus transport.
	LayerUART LayerType = "uart"
	// LayerMock is the scripted in-memory layer for testing.
	LayerMock LayerType = "mock"
)

// Layer is the callback contract the layered-protocol framework requires
// from every protocol layer. The transports in this module implement it at
// the bottom of the stack; higher layers (framing, secure channel) wrap a
// Layer and implement it again.
//
// The framework serializes calls per instance; a Layer never sees two
// concurrent operations on itself.
type Layer interface {
	// Activate performs the layer's activation handshake and returns the
	// response, if any. Bus transports have nothing to negotiate and
	// report an empty response.
	Activate(ctx context.Context) ([]byte, error)

	// Transmit sends data to the secure element. The full length is
	// written or an error is returned.
	Transmit(ctx context.Context, data []byte) error

	// Receive reads exactly expectedLen bytes from the secure element.
	// On failure no buffer is returned.
	Receive(ctx context.Context, expectedLen int) ([]byte, error)

	// Close releases the layer's resources. Safe to call repeatedly and
	// after a failed construction.
	Close() error

	// Type identifies the layer implementation.
	Type() LayerType
}

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
	"context"
	"time"

	"github.com/ashitaka1/go-secbus/internal/syncutil"
	"github.com/ashitaka1/go-secbus/status"
)

// MockLayer is a scripted in-memory Layer for testing the protocol layers
// stacked on top of a transport. Responses are queued in order; transmitted
// frames are recorded for inspection.
type MockLayer struct {
	transmitErr error
	receiveErr  error
	transmitted [][]byte
	responses   [][]byte
	delay       time.Duration
	mu          syncutil.Mutex
	closed      bool
}

// NewMockLayer returns an open MockLayer with no scripted responses.
func NewMockLayer() *MockLayer {
	return &MockLayer{}
}

// Activate implements Layer.
func (m *MockLayer) Activate(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, status.New(status.ModuleProtocol, "activate", status.ErrStackInvalid)
	}
	return nil, nil
}

// Transmit implements Layer, recording the data for later inspection.
func (m *MockLayer) Transmit(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return status.New(status.ModuleProtocol, "transmit", status.ErrIllegalArgument)
	}

	m.mu.Lock()
	closed, delay, injected := m.closed, m.delay, m.transmitErr
	m.mu.Unlock()

	if closed {
		return status.New(status.ModuleProtocol, "transmit", status.ErrStackInvalid)
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if injected != nil {
		return injected
	}

	m.mu.Lock()
	m.transmitted = append(m.transmitted, append([]byte(nil), data...))
	m.mu.Unlock()
	return nil
}

// Receive implements Layer, returning the next queued response. With no
// response queued it returns expectedLen zero bytes.
func (m *MockLayer) Receive(ctx context.Context, expectedLen int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if expectedLen <= 0 {
		return nil, status.New(status.ModuleProtocol, "receive", status.ErrIllegalArgument)
	}

	m.mu.Lock()
	closed, delay, injected := m.closed, m.delay, m.receiveErr
	m.mu.Unlock()

	if closed {
		return nil, status.New(status.ModuleProtocol, "receive", status.ErrStackInvalid)
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if injected != nil {
		return nil, injected
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}
	return make([]byte, expectedLen), nil
}

// Close implements Layer.
func (m *MockLayer) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Type implements Layer.
func (*MockLayer) Type() LayerType {
	return LayerMock
}

// QueueResponse appends a response returned by a later Receive.
func (m *MockLayer) QueueResponse(data []byte) {
	m.mu.Lock()
	m.responses = append(m.responses, append([]byte(nil), data...))
	m.mu.Unlock()
}

// SetTransmitError injects an error for subsequent Transmit calls.
func (m *MockLayer) SetTransmitError(err error) {
	m.mu.Lock()
	m.transmitErr = err
	m.mu.Unlock()
}

// SetReceiveError injects an error for subsequent Receive calls.
func (m *MockLayer) SetReceiveError(err error) {
	m.mu.Lock()
	m.receiveErr = err
	m.mu.Unlock()
}

// SetDelay makes each operation sleep to simulate bus latency.
func (m *MockLayer) SetDelay(d time.Duration) {
	m.mu.Lock()
	m.delay = d
	m.mu.Unlock()
}

// Transmitted returns copies of all frames passed to Transmit, in order.
func (m *MockLayer) Transmitted() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.transmitted))
	for i, frame := range m.transmitted {
		out[i] = append([]byte(nil), frame...)
	}
	return out
}

// Reset clears recorded frames, queued responses, injected errors and the
// closed state.
func (m *MockLayer) Reset() {
	m.mu.Lock()
	m.transmitted = nil
	m.responses = nil
	m.transmitErr = nil
	m.receiveErr = nil
	m.delay = 0
	m.closed = false
	m.mu.Unlock()
}

var _ Layer = (*MockLayer)(nil)

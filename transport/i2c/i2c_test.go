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

package i2c

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	secbus "github.com/ashitaka1/go-secbus"
	"github.com/ashitaka1/go-secbus/status"
	"github.com/ashitaka1/go-secbus/timer"
)

var errInjected = errors.New("injected bus failure")

// busOp is one scripted transaction on the fake bus.
type busOp struct {
	err  error
	w    []byte
	r    []byte
	addr uint16
}

// fakeBus implements i2c.Bus with a scripted sequence of transactions,
// recording the device address each one selected.
type fakeBus struct {
	t    *testing.T
	ops  []busOp
	next int
}

func newFakeBus(t *testing.T, ops ...busOp) *fakeBus {
	t.Helper()
	return &fakeBus{t: t, ops: ops}
}

func (b *fakeBus) String() string { return "fake-i2c" }

func (b *fakeBus) SetSpeed(physic.Frequency) error { return nil }

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.t.Helper()
	if b.next >= len(b.ops) {
		b.t.Fatalf("unexpected transaction %d (addr 0x%02X, w % X)", b.next, addr, w)
	}
	op := b.ops[b.next]
	b.next++

	assert.Equal(b.t, op.addr, addr, "device address for transaction %d", b.next-1)
	if !bytes.Equal(op.w, w) {
		b.t.Fatalf("transaction %d wrote % X, want % X", b.next-1, w, op.w)
	}
	if op.err != nil {
		return op.err
	}
	if len(r) > 0 {
		require.Len(b.t, op.r, len(r), "scripted read length for transaction %d", b.next-1)
		copy(r, op.r)
	}
	return nil
}

// exhausted reports whether every scripted transaction was consumed.
func (b *fakeBus) exhausted() bool { return b.next == len(b.ops) }

func TestNewWithBusRejectsNilBus(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrIllegalArgument)
	assert.Nil(t, tr)
}

func TestNewWithBusRejectsBadAddress(t *testing.T) {
	t.Parallel()
	for _, addr := range []uint16{0x00, 0x100, 0xFFFF} {
		tr, err := NewWithBus(newFakeBus(t), WithAddress(addr))
		require.Error(t, err, "address 0x%X", addr)
		assert.ErrorIs(t, err, status.ErrIllegalArgument)
		assert.Nil(t, tr)
	}
}

func TestActivateReportsEmptyResponse(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)

	resp, err := tr.Activate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp)
}

func TestTransmitWritesAllBytes(t *testing.T) {
	t.Parallel()
	apdu := []byte{0x00, 0xA4, 0x04, 0x00}
	bus := newFakeBus(t, busOp{addr: DefaultAddress, w: apdu})
	tr, err := NewWithBus(bus)
	require.NoError(t, err)

	require.NoError(t, tr.Transmit(context.Background(), apdu))
	assert.True(t, bus.exhausted())
}

func TestTransmitRejectsBadArgumentsWithoutBusContact(t *testing.T) {
	t.Parallel()
	// An empty script means any bus contact fails the test.
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)

	err = tr.Transmit(context.Background(), nil)
	assert.ErrorIs(t, err, status.ErrIllegalArgument)

	err = tr.Transmit(context.Background(), []byte{})
	assert.ErrorIs(t, err, status.ErrIllegalArgument)
}

func TestTransmitReportsBusError(t *testing.T) {
	t.Parallel()
	bus := newFakeBus(t, busOp{addr: DefaultAddress, w: []byte{0x01}, err: errInjected})
	tr, err := NewWithBus(bus)
	require.NoError(t, err)

	err = tr.Transmit(context.Background(), []byte{0x01})
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrUnspecified)
}

func TestReceiveReturnsExactBuffer(t *testing.T) {
	t.Parallel()
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	bus := newFakeBus(t, busOp{addr: DefaultAddress, r: payload})
	tr, err := NewWithBus(bus)
	require.NoError(t, err)

	resp, err := tr.Receive(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, payload, resp)
	assert.True(t, bus.exhausted())
}

func TestReceiveFailureReturnsNoBuffer(t *testing.T) {
	t.Parallel()
	bus := newFakeBus(t, busOp{addr: DefaultAddress, r: make([]byte, 5), err: errInjected})
	tr, err := NewWithBus(bus)
	require.NoError(t, err)

	resp, err := tr.Receive(context.Background(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrUnspecified)
	assert.Nil(t, resp)
}

func TestReceiveRejectsBadLengths(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)
	ctx := context.Background()

	for _, n := range []int{0, -2, secbus.LengthUnknown} {
		resp, err := tr.Receive(ctx, n)
		require.Error(t, err, "expectedLen %d", n)
		assert.ErrorIs(t, err, status.ErrIllegalArgument)
		assert.Nil(t, resp)
	}
}

// TestSelectTransmitReceiveScenario walks the canonical exchange: select the
// element at 0x18, send a command, read a 2-byte response. Every transaction
// must carry the device address.
func TestSelectTransmitReceiveScenario(t *testing.T) {
	t.Parallel()
	apdu := []byte{0x00, 0xA4, 0x04, 0x00}
	bus := newFakeBus(t,
		busOp{addr: 0x18, w: apdu},
		busOp{addr: 0x18, r: []byte{0x90, 0x00}},
	)
	tr, err := NewWithBus(bus, WithAddress(0x18), WithGuardTime(5*time.Millisecond))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, tr.Transmit(ctx, apdu))
	resp, err := tr.Receive(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 0x00}, resp)
	assert.True(t, bus.exhausted())
}

func TestGuardTimeSeparatesOperations(t *testing.T) {
	t.Parallel()
	const guardTime = 50 * time.Millisecond

	for name, backend := range map[string]timer.Backend{
		"signal":    timer.SignalBackend{},
		"scheduler": timer.SchedulerBackend{},
		"countdown": timer.CountdownBackend{},
	} {
		backend := backend
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			bus := newFakeBus(t,
				busOp{addr: DefaultAddress, w: []byte{0x01}},
				busOp{addr: DefaultAddress, r: []byte{0xFF}},
			)
			tr, err := NewWithBus(bus,
				WithGuardTime(guardTime),
				WithTimerBackend(backend),
			)
			require.NoError(t, err)

			ctx := context.Background()
			start := time.Now()
			require.NoError(t, tr.Transmit(ctx, []byte{0x01}))
			_, err = tr.Receive(ctx, 1)
			require.NoError(t, err)

			// The receive may not start until the guard interval armed at
			// the end of the transmit has fully elapsed.
			assert.GreaterOrEqual(t, time.Since(start), guardTime)
		})
	}
}

func TestZeroGuardTimeNeverBlocks(t *testing.T) {
	t.Parallel()
	ops := make([]busOp, 0, 20)
	for i := 0; i < 10; i++ {
		ops = append(ops,
			busOp{addr: DefaultAddress, w: []byte{0x01}},
			busOp{addr: DefaultAddress, r: []byte{0xFF}},
		)
	}
	tr, err := NewWithBus(newFakeBus(t, ops...))
	require.NoError(t, err)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, tr.Transmit(ctx, []byte{0x01}))
		_, err := tr.Receive(ctx, 1)
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGuardTimerArmedAfterFailedOperation(t *testing.T) {
	t.Parallel()
	const guardTime = 50 * time.Millisecond
	bus := newFakeBus(t,
		busOp{addr: DefaultAddress, w: []byte{0x01}, err: errInjected},
		busOp{addr: DefaultAddress, w: []byte{0x02}},
	)
	tr, err := NewWithBus(bus, WithGuardTime(guardTime))
	require.NoError(t, err)

	ctx := context.Background()
	start := time.Now()
	require.Error(t, tr.Transmit(ctx, []byte{0x01}))

	// The guard interval protects the next attempt even though the first
	// one failed on the bus.
	require.NoError(t, tr.Transmit(ctx, []byte{0x02}))
	assert.GreaterOrEqual(t, time.Since(start), guardTime)
}

func TestSetAddressTakesEffectOnNextOperation(t *testing.T) {
	t.Parallel()
	bus := newFakeBus(t,
		busOp{addr: 0x18, w: []byte{0x01}},
		busOp{addr: 0x30, w: []byte{0x02}},
	)
	tr, err := NewWithBus(bus, WithAddress(0x18))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, tr.Transmit(ctx, []byte{0x01}))
	require.NoError(t, tr.SetAddress(0x30))
	require.NoError(t, tr.Transmit(ctx, []byte{0x02}))
	assert.True(t, bus.exhausted())
}

func TestSetAddressValidation(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)

	assert.ErrorIs(t, tr.SetAddress(0x00), status.ErrIllegalArgument)
	assert.ErrorIs(t, tr.SetAddress(0x100), status.ErrIllegalArgument)
	assert.Equal(t, uint16(DefaultAddress), tr.Address())
}

func TestSetClockFrequencyOnlyCaches(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultClockFrequency, tr.ClockFrequency())
	require.NoError(t, tr.SetClockFrequency(100*physic.KiloHertz))
	assert.Equal(t, 100*physic.KiloHertz, tr.ClockFrequency())
	assert.ErrorIs(t, tr.SetClockFrequency(0), status.ErrIllegalArgument)
}

func TestSetGuardTime(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)

	assert.Zero(t, tr.GuardTime())
	require.NoError(t, tr.SetGuardTime(time.Millisecond))
	assert.Equal(t, time.Millisecond, tr.GuardTime())
}

func TestCloseIsIdempotentAndInvalidatesInstance(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	ctx := context.Background()
	assert.ErrorIs(t, tr.Transmit(ctx, []byte{0x01}), status.ErrStackInvalid)
	_, err = tr.Receive(ctx, 1)
	assert.ErrorIs(t, err, status.ErrStackInvalid)
	_, err = tr.Activate(ctx)
	assert.ErrorIs(t, err, status.ErrStackInvalid)
	assert.ErrorIs(t, tr.SetAddress(0x18), status.ErrStackInvalid)
	assert.ErrorIs(t, tr.SetGuardTime(0), status.ErrStackInvalid)
}

func TestContextCancellationCheckedBeforeBusContact(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, tr.Transmit(ctx, []byte{0x01}), context.Canceled)
	_, err = tr.Receive(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseBusPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/dev/i2c-1", parseBusPath("/dev/i2c-1"))
	assert.Equal(t, "/dev/i2c-1", parseBusPath("/dev/i2c-1:0x18"))
	assert.Equal(t, "1", parseBusPath("1"))
}

func TestTransportType(t *testing.T) {
	t.Parallel()
	tr, err := NewWithBus(newFakeBus(t))
	require.NoError(t, err)
	assert.Equal(t, secbus.LayerI2C, tr.Type())
}

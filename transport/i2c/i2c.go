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

// Package i2c provides the I2C bus transport for secure elements. It
// implements the secbus.Layer contract on top of periph.io and applies the
// guard-time policy around every bus exchange.
package i2c

import (
	"context"
	"io"
	"strings"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	secbus "github.com/ashitaka1/go-secbus"
	"github.com/ashitaka1/go-secbus/status"
	"github.com/ashitaka1/go-secbus/timer"
)

const (
	// DefaultAddress is the secure element's 7-bit I2C address.
	DefaultAddress = 0x18

	// DefaultClockFrequency is the cached clock frequency installed at
	// construction. Informational only, see SetClockFrequency.
	DefaultClockFrequency = 400 * physic.KiloHertz

	logSource = "secbus-i2c"
)

// Transport is an I2C secure-element transport. It owns its bus handle
// exclusively for the handle's lifetime; concurrent access to the same bus
// from outside this layer is undefined. The surrounding framework serializes
// operations per instance.
type Transport struct {
	bus     i2c.Bus
	closer  io.Closer
	log     secbus.Logger
	guard   *secbus.Guard
	busName string
	clock   physic.Frequency
	addr    uint16
}

// Option configures a Transport at construction.
type Option func(*config)

type config struct {
	log       secbus.Logger
	backend   timer.Backend
	addr      uint16
	clock     physic.Frequency
	guardTime time.Duration
}

// WithAddress sets the device address (1 byte, 0x01-0xFF).
func WithAddress(addr uint16) Option {
	return func(c *config) { c.addr = addr }
}

// WithLogger injects the logging capability. The transport does not own the
// logger; the caller remains responsible for its lifecycle.
func WithLogger(l secbus.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithGuardTime sets the minimum idle interval between bus transactions.
func WithGuardTime(d time.Duration) Option {
	return func(c *config) { c.guardTime = d }
}

// WithTimerBackend selects the timer backend used for guard-time
// enforcement. Defaults to timer.DefaultBackend.
func WithTimerBackend(b timer.Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithClockFrequency sets the cached clock frequency.
func WithClockFrequency(f physic.Frequency) Option {
	return func(c *config) { c.clock = f }
}

// parseBusPath strips an ":0xNN" address suffix from detection-style paths,
// accepting "/dev/i2c-1:0x18" as well as a bare "/dev/i2c-1".
func parseBusPath(path string) string {
	bus, _, _ := strings.Cut(path, ":")
	return bus
}

// New opens the named I2C bus and returns a transport bound to it. The
// transport owns the bus and releases it on Close.
func New(busName string, opts ...Option) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, status.Newf(status.ModuleI2C, "initialize", status.ErrUnspecified, "periph host init: %v", err)
	}
	bus, err := i2creg.Open(parseBusPath(busName))
	if err != nil {
		return nil, status.Newf(status.ModuleI2C, "initialize", status.ErrUnspecified, "open %s: %v", busName, err)
	}
	t, err := NewWithBus(bus, opts...)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	t.busName = busName
	t.closer = bus
	return t, nil
}

// NewWithBus returns a transport on an already-opened bus. The caller keeps
// ownership of the bus handle; Close does not release it. A nil bus is the
// "not opened" sentinel and is rejected before any state is allocated.
func NewWithBus(bus i2c.Bus, opts ...Option) (*Transport, error) {
	if bus == nil {
		return nil, status.Newf(status.ModuleI2C, "initialize", status.ErrIllegalArgument, "bus not opened")
	}

	cfg := config{addr: DefaultAddress, clock: DefaultClockFrequency}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.addr == 0 || cfg.addr > 0xFF {
		return nil, status.Newf(status.ModuleI2C, "initialize", status.ErrIllegalArgument,
			"device address must be in range 0x01 to 0xFF (0x%X given)", cfg.addr)
	}
	if cfg.log == nil {
		cfg.log = secbus.NopLogger()
	}

	guard := secbus.NewGuard(cfg.backend)
	guard.SetDuration(cfg.guardTime)

	return &Transport{
		bus:     bus,
		busName: bus.String(),
		addr:    cfg.addr,
		clock:   cfg.clock,
		guard:   guard,
		log:     cfg.log,
	}, nil
}

// state verifies the transport has not been destroyed. Callbacks reaching a
// destroyed instance mean the protocol stack is mis-assembled, which is a
// configuration bug rather than a runtime condition.
func (t *Transport) state(fn string) error {
	if t == nil || t.bus == nil {
		if t != nil && t.log != nil {
			t.log.Log(logSource, secbus.LevelFatal, "%s called on destroyed transport", fn)
		}
		return status.New(status.ModuleI2C, fn, status.ErrStackInvalid)
	}
	return nil
}

// Activate implements secbus.Layer. The I2C transport never negotiates at
// the bus level; activation is meaningful only for the layers above.
func (t *Transport) Activate(ctx context.Context) ([]byte, error) {
	if err := t.state("activate"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Transmit implements secbus.Layer. It awaits any pending guard timer,
// selects the device address, writes all bytes and arms a fresh guard timer
// before returning.
func (t *Transport) Transmit(ctx context.Context, data []byte) error {
	if err := t.state("transmit"); err != nil {
		return err
	}
	if len(data) == 0 {
		t.log.Log(logSource, secbus.LevelError, "transmit called with empty data")
		return status.New(status.ModuleI2C, "transmit", status.ErrIllegalArgument)
	}
	if int64(len(data)) > secbus.MaxTransferLen {
		t.log.Log(logSource, secbus.LevelError,
			"can only send up to %d bytes (%d requested)", int64(secbus.MaxTransferLen), len(data))
		return status.New(status.ModuleI2C, "transmit", status.ErrIllegalArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.guard.Await(); err != nil {
		t.log.Log(logSource, secbus.LevelError, "error awaiting guard time: %v", err)
		return err
	}

	t.log.LogBytes(logSource, secbus.LevelInfo, ">> ", data, " ")

	// Device select happens per transaction so a SetAddress between
	// operations takes effect on the next exchange.
	dev := i2c.Dev{Bus: t.bus, Addr: t.addr}
	if err := dev.Tx(data, nil); err != nil {
		t.log.Log(logSource, secbus.LevelError, "error transmitting data: %v", err)
		if gerr := t.guard.Restart(); gerr != nil {
			t.log.Log(logSource, secbus.LevelError, "could not start guard time timer: %v", gerr)
		}
		return status.Newf(status.ModuleI2C, "transmit", status.ErrUnspecified, "i2c write: %v", err)
	}

	if err := t.guard.Restart(); err != nil {
		t.log.Log(logSource, secbus.LevelError, "could not start guard time timer: %v", err)
		return err
	}
	return nil
}

// Receive implements secbus.Layer. It awaits any pending guard timer,
// selects the device address, reads exactly expectedLen bytes and arms a
// fresh guard timer. On failure no buffer is returned.
func (t *Transport) Receive(ctx context.Context, expectedLen int) ([]byte, error) {
	if err := t.state("receive"); err != nil {
		return nil, err
	}
	if expectedLen == secbus.LengthUnknown {
		t.log.Log(logSource, secbus.LevelError, "unknown-length reads require a framing layer above this transport")
		return nil, status.New(status.ModuleI2C, "receive", status.ErrIllegalArgument)
	}
	if expectedLen <= 0 || int64(expectedLen) > secbus.MaxTransferLen {
		t.log.Log(logSource, secbus.LevelError,
			"can only read between 1 and %d bytes (%d requested)", int64(secbus.MaxTransferLen), expectedLen)
		return nil, status.New(status.ModuleI2C, "receive", status.ErrIllegalArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.guard.Await(); err != nil {
		t.log.Log(logSource, secbus.LevelError, "error awaiting guard time: %v", err)
		return nil, err
	}

	buf := make([]byte, expectedLen)
	dev := i2c.Dev{Bus: t.bus, Addr: t.addr}
	if err := dev.Tx(nil, buf); err != nil {
		t.log.Log(logSource, secbus.LevelError, "error reading data: %v", err)
		if gerr := t.guard.Restart(); gerr != nil {
			t.log.Log(logSource, secbus.LevelError, "could not start guard time timer: %v", gerr)
		}
		return nil, status.Newf(status.ModuleI2C, "receive", status.ErrUnspecified, "i2c read: %v", err)
	}

	t.log.LogBytes(logSource, secbus.LevelInfo, "<< ", buf, " ")

	if err := t.guard.Restart(); err != nil {
		t.log.Log(logSource, secbus.LevelError, "could not start guard time timer: %v", err)
		return nil, err
	}
	return buf, nil
}

// Close implements secbus.Layer. It destroys the pending guard timer and
// releases the bus handle if the transport opened it. Safe to call multiple
// times and after a failed construction.
func (t *Transport) Close() error {
	if t == nil || t.bus == nil {
		return nil
	}
	t.guard.Stop()
	t.bus = nil
	if t.closer != nil {
		closer := t.closer
		t.closer = nil
		if err := closer.Close(); err != nil {
			return status.Newf(status.ModuleI2C, "destroy", status.ErrUnspecified, "closing bus: %v", err)
		}
	}
	return nil
}

// Type implements secbus.Layer.
func (*Transport) Type() secbus.LayerType {
	return secbus.LayerI2C
}

// ClockFrequency returns the cached clock frequency.
func (t *Transport) ClockFrequency() physic.Frequency {
	return t.clock
}

// SetClockFrequency caches the requested clock frequency. On this backend
// the electrical bus timing is fixed by the host platform's boot-time
// configuration, so the call cannot change the real clock; the cached value
// is informational.
func (t *Transport) SetClockFrequency(f physic.Frequency) error {
	if err := t.state("set clock frequency"); err != nil {
		return err
	}
	if f <= 0 {
		t.log.Log(logSource, secbus.LevelError, "cannot set clock frequency to %s", f)
		return status.New(status.ModuleI2C, "set clock frequency", status.ErrIllegalArgument)
	}
	t.clock = f
	t.log.Log(logSource, secbus.LevelInfo,
		"cached clock frequency %s; bus timing is fixed by the platform and unchanged", f)
	return nil
}

// Address returns the cached device address.
func (t *Transport) Address() uint16 {
	return t.addr
}

// SetAddress sets the device address used for subsequent operations.
func (t *Transport) SetAddress(addr uint16) error {
	if err := t.state("set address"); err != nil {
		return err
	}
	if addr == 0 || addr > 0xFF {
		t.log.Log(logSource, secbus.LevelError,
			"device address must be in range 0x01 to 0xFF (0x%X given)", addr)
		return status.New(status.ModuleI2C, "set address", status.ErrIllegalArgument)
	}
	t.addr = addr
	t.log.Log(logSource, secbus.LevelDebug, "set device address to 0x%02X", addr)
	return nil
}

// GuardTime returns the configured guard time.
func (t *Transport) GuardTime() time.Duration {
	return t.guard.Duration()
}

// SetGuardTime sets the minimum idle interval enforced between bus
// transactions. Takes effect after the next operation completes.
func (t *Transport) SetGuardTime(d time.Duration) error {
	if err := t.state("set guard time"); err != nil {
		return err
	}
	t.guard.SetDuration(d)
	t.log.Log(logSource, secbus.LevelDebug, "set guard time to %v", d)
	return nil
}

var _ secbus.Layer = (*Transport)(nil)

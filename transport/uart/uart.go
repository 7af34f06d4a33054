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

// Package uart provides the serial bus transport for secure elements with a
// UART interface. It implements the secbus.Layer contract on top of
// go.bug.st/serial and applies the same guard-time discipline as the I2C
// transport. The link is point-to-point, so there is no device address to
// select; the baud rate, unlike the I2C clock, can be changed live.
package uart

import (
	"context"
	"errors"
	"io"
	"time"

	"go.bug.st/serial"

	secbus "github.com/ashitaka1/go-secbus"
	"github.com/ashitaka1/go-secbus/status"
	"github.com/ashitaka1/go-secbus/timer"
)

const (
	// DefaultBaudRate is the serial speed used when none is configured.
	DefaultBaudRate = 115200

	// DefaultReadTimeout bounds a single port read so a silent element
	// surfaces as a short read instead of a hang.
	DefaultReadTimeout = 500 * time.Millisecond

	logSource = "secbus-uart"
)

// Port is the subset of serial.Port this transport needs. go.bug.st's
// serial.Port satisfies it; tests substitute a scripted implementation.
type Port interface {
	io.ReadWriteCloser
	SetMode(mode *serial.Mode) error
	SetReadTimeout(t time.Duration) error
}

// Transport is a serial secure-element transport. The port is exclusively
// owned by the transport for the handle's lifetime; the surrounding
// framework serializes operations per instance.
type Transport struct {
	port     Port
	log      secbus.Logger
	guard    *secbus.Guard
	portName string
	baud     int
	owned    bool
}

// Option configures a Transport at construction.
type Option func(*config)

type config struct {
	log         secbus.Logger
	backend     timer.Backend
	baud        int
	guardTime   time.Duration
	readTimeout time.Duration
}

// WithBaudRate sets the serial speed.
func WithBaudRate(baud int) Option {
	return func(c *config) { c.baud = baud }
}

// WithLogger injects the logging capability.
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

// WithReadTimeout bounds a single port read.
func WithReadTimeout(d time.Duration) Option {
	return func(c *config) { c.readTimeout = d }
}

// New opens the named serial port and returns a transport bound to it. The
// transport owns the port and releases it on Close.
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: cfg.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, status.Newf(status.ModuleUART, "initialize", status.ErrUnspecified, "open %s: %v", portName, err)
	}
	if err := port.SetReadTimeout(cfg.readTimeout); err != nil {
		_ = port.Close()
		return nil, status.Newf(status.ModuleUART, "initialize", status.ErrUnspecified, "set read timeout: %v", err)
	}

	t := build(port, portName, &cfg)
	t.owned = true
	return t, nil
}

// NewWithPort returns a transport on an already-opened port. The caller
// keeps ownership of the port; Close does not release it. A nil port is the
// "not opened" sentinel and is rejected before any state is allocated.
func NewWithPort(port Port, portName string, opts ...Option) (*Transport, error) {
	if port == nil {
		return nil, status.Newf(status.ModuleUART, "initialize", status.ErrIllegalArgument, "port not opened")
	}
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return build(port, portName, &cfg), nil
}

func defaults() config {
	return config{baud: DefaultBaudRate, readTimeout: DefaultReadTimeout}
}

func validate(cfg *config) error {
	if cfg.baud <= 0 {
		return status.Newf(status.ModuleUART, "initialize", status.ErrIllegalArgument, "baud rate %d", cfg.baud)
	}
	if cfg.log == nil {
		cfg.log = secbus.NopLogger()
	}
	return nil
}

func build(port Port, portName string, cfg *config) *Transport {
	guard := secbus.NewGuard(cfg.backend)
	guard.SetDuration(cfg.guardTime)
	return &Transport{
		port:     port,
		portName: portName,
		baud:     cfg.baud,
		guard:    guard,
		log:      cfg.log,
	}
}

func (t *Transport) state(fn string) error {
	if t == nil || t.port == nil {
		if t != nil && t.log != nil {
			t.log.Log(logSource, secbus.LevelFatal, "%s called on destroyed transport", fn)
		}
		return status.New(status.ModuleUART, fn, status.ErrStackInvalid)
	}
	return nil
}

// Activate implements secbus.Layer. Nothing is negotiated at the serial
// level; activation is meaningful only for the layers above.
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
// writes all bytes and arms a fresh guard timer before returning.
func (t *Transport) Transmit(ctx context.Context, data []byte) error {
	if err := t.state("transmit"); err != nil {
		return err
	}
	if len(data) == 0 {
		t.log.Log(logSource, secbus.LevelError, "transmit called with empty data")
		return status.New(status.ModuleUART, "transmit", status.ErrIllegalArgument)
	}
	if int64(len(data)) > secbus.MaxTransferLen {
		t.log.Log(logSource, secbus.LevelError,
			"can only send up to %d bytes (%d requested)", int64(secbus.MaxTransferLen), len(data))
		return status.New(status.ModuleUART, "transmit", status.ErrIllegalArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.guard.Await(); err != nil {
		t.log.Log(logSource, secbus.LevelError, "error awaiting guard time: %v", err)
		return err
	}

	t.log.LogBytes(logSource, secbus.LevelInfo, ">> ", data, " ")

	n, err := t.port.Write(data)
	if err == nil && n != len(data) {
		err = errors.New("short write")
	}
	if err != nil {
		t.log.Log(logSource, secbus.LevelError, "error transmitting data: %v", err)
		if gerr := t.guard.Restart(); gerr != nil {
			t.log.Log(logSource, secbus.LevelError, "could not start guard time timer: %v", gerr)
		}
		return status.Newf(status.ModuleUART, "transmit", status.ErrUnspecified, "serial write: %v", err)
	}

	if err := t.guard.Restart(); err != nil {
		t.log.Log(logSource, secbus.LevelError, "could not start guard time timer: %v", err)
		return err
	}
	return nil
}

// Receive implements secbus.Layer. It awaits any pending guard timer, reads
// exactly expectedLen bytes and arms a fresh guard timer. On failure no
// buffer is returned.
func (t *Transport) Receive(ctx context.Context, expectedLen int) ([]byte, error) {
	if err := t.state("receive"); err != nil {
		return nil, err
	}
	if expectedLen == secbus.LengthUnknown {
		t.log.Log(logSource, secbus.LevelError, "unknown-length reads require a framing layer above this transport")
		return nil, status.New(status.ModuleUART, "receive", status.ErrIllegalArgument)
	}
	if expectedLen <= 0 || int64(expectedLen) > secbus.MaxTransferLen {
		t.log.Log(logSource, secbus.LevelError,
			"can only read between 1 and %d bytes (%d requested)", int64(secbus.MaxTransferLen), expectedLen)
		return nil, status.New(status.ModuleUART, "receive", status.ErrIllegalArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.guard.Await(); err != nil {
		t.log.Log(logSource, secbus.LevelError, "error awaiting guard time: %v", err)
		return nil, err
	}

	buf := make([]byte, expectedLen)
	if _, err := io.ReadFull(t.port, buf); err != nil {
		t.log.Log(logSource, secbus.LevelError, "error reading data: %v", err)
		if gerr := t.guard.Restart(); gerr != nil {
			t.log.Log(logSource, secbus.LevelError, "could not start guard time timer: %v", gerr)
		}
		return nil, status.Newf(status.ModuleUART, "receive", status.ErrUnspecified, "serial read: %v", err)
	}

	t.log.LogBytes(logSource, secbus.LevelInfo, "<< ", buf, " ")

	if err := t.guard.Restart(); err != nil {
		t.log.Log(logSource, secbus.LevelError, "could not start guard time timer: %v", err)
		return nil, err
	}
	return buf, nil
}

// Close implements secbus.Layer. It destroys the pending guard timer and
// releases the port if the transport opened it. Safe to call multiple times
// and after a failed construction.
func (t *Transport) Close() error {
	if t == nil || t.port == nil {
		return nil
	}
	t.guard.Stop()
	port := t.port
	t.port = nil
	if t.owned {
		if err := port.Close(); err != nil {
			return status.Newf(status.ModuleUART, "destroy", status.ErrUnspecified, "closing port: %v", err)
		}
	}
	return nil
}

// Type implements secbus.Layer.
func (*Transport) Type() secbus.LayerType {
	return secbus.LayerUART
}

// BaudRate returns the current serial speed.
func (t *Transport) BaudRate() int {
	return t.baud
}

// SetBaudRate reconfigures the serial speed. Unlike the I2C clock frequency
// this takes effect immediately on the open port.
func (t *Transport) SetBaudRate(baud int) error {
	if err := t.state("set baud rate"); err != nil {
		return err
	}
	if baud <= 0 {
		t.log.Log(logSource, secbus.LevelError, "cannot set baud rate to %d", baud)
		return status.New(status.ModuleUART, "set baud rate", status.ErrIllegalArgument)
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if err := t.port.SetMode(mode); err != nil {
		t.log.Log(logSource, secbus.LevelError, "error setting baud rate: %v", err)
		return status.Newf(status.ModuleUART, "set baud rate", status.ErrUnspecified, "set mode: %v", err)
	}
	t.baud = baud
	t.log.Log(logSource, secbus.LevelDebug, "set baud rate to %d", baud)
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

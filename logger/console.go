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

// Package logger provides sinks for the secbus.Logger capability: a plain
// console sink, a queued sink that hands formatting off to a worker
// goroutine, and an adapter onto zerolog. All sinks are best-effort; none of
// them turns a logging failure into a functional failure.
package logger

import (
	"fmt"
	"io"
	"time"

	secbus "github.com/ashitaka1/go-secbus"
	"github.com/ashitaka1/go-secbus/internal/hexutil"
	"github.com/ashitaka1/go-secbus/internal/syncutil"
)

// Console writes timestamped, leveled text lines to an io.Writer. Messages
// below the minimum level are dropped.
type Console struct {
	w   io.Writer
	min secbus.LogLevel
	mu  syncutil.Mutex
}

// NewConsole returns a console sink writing to w at the given minimum level.
func NewConsole(w io.Writer, min secbus.LogLevel) *Console {
	return &Console{w: w, min: min}
}

// Log implements secbus.Logger.
func (c *Console) Log(source string, level secbus.LogLevel, format string, args ...any) {
	if level < c.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("15:04:05.000")
	c.mu.Lock()
	_, _ = fmt.Fprintf(c.w, "%s %-5s [%s] %s\n", ts, level, source, msg)
	c.mu.Unlock()
}

// LogBytes implements secbus.Logger.
func (c *Console) LogBytes(source string, level secbus.LogLevel, prefix string, data []byte, sep string) {
	if level < c.min {
		return
	}
	c.Log(source, level, "%s%s", prefix, hexutil.Join(data, sep))
}

var _ secbus.Logger = (*Console)(nil)

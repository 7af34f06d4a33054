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

package logger

import (
	"fmt"
	"sync"
	"sync/atomic"

	secbus "github.com/ashitaka1/go-secbus"
	"github.com/ashitaka1/go-secbus/internal/hexutil"
)

// DefaultQueueDepth is the queue capacity used when none is given.
const DefaultQueueDepth = 64

type queuedEntry struct {
	source string
	msg    string
	level  secbus.LogLevel
}

// Queued wraps another sink and dispatches log calls through a bounded
// queue drained by a single worker goroutine, keeping formatting and I/O off
// the caller's execution context. When the queue is full the message is
// dropped and counted; logging stays best-effort, it never blocks a bus
// operation.
type Queued struct {
	inner     secbus.Logger
	ch        chan queuedEntry
	done      chan struct{}
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// NewQueued returns a queued sink wrapping inner. A depth <= 0 selects
// DefaultQueueDepth. The worker runs until Close.
func NewQueued(inner secbus.Logger, depth int) *Queued {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	q := &Queued{
		inner: inner,
		ch:    make(chan queuedEntry, depth),
		done:  make(chan struct{}),
	}
	go q.worker()
	return q
}

func (q *Queued) worker() {
	for e := range q.ch {
		q.inner.Log(e.source, e.level, "%s", e.msg)
	}
	close(q.done)
}

// Log implements secbus.Logger. The message is formatted on the caller's
// side so the arguments are captured at call time, then handed to the
// worker.
func (q *Queued) Log(source string, level secbus.LogLevel, format string, args ...any) {
	q.enqueue(source, level, fmt.Sprintf(format, args...))
}

// LogBytes implements secbus.Logger.
func (q *Queued) LogBytes(source string, level secbus.LogLevel, prefix string, data []byte, sep string) {
	q.enqueue(source, level, prefix+hexutil.Join(data, sep))
}

func (q *Queued) enqueue(source string, level secbus.LogLevel, msg string) {
	select {
	case q.ch <- queuedEntry{source: source, level: level, msg: msg}:
	default:
		q.dropped.Add(1)
	}
}

// Dropped returns the number of messages discarded because the queue was
// full.
func (q *Queued) Dropped() uint64 {
	return q.dropped.Load()
}

// Close drains the queue and stops the worker. Messages logged after Close
// are discarded. Idempotent.
func (q *Queued) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
		<-q.done
	})
}

var _ secbus.Logger = (*Queued)(nil)

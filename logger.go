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

// LogLevel classifies log messages emitted through the Logger capability.
type LogLevel int

// Log levels, in increasing severity.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the logging capability injected into a transport instance. It is
// constructed by the composition root and passed in explicitly; there is no
// process-wide default. Implementations live in the logger subpackage.
//
// Logging is best-effort: implementations must not turn a logging failure
// into a functional failure, and transports never check an error from it.
type Logger interface {
	// Log records a formatted message attributed to source.
	Log(source string, level LogLevel, format string, args ...any)

	// LogBytes records a byte string as hex octets separated by sep,
	// prefixed with prefix (conventionally ">> " for outgoing and "<< "
	// for incoming data).
	LogBytes(source string, level LogLevel, prefix string, data []byte, sep string)
}

// NopLogger returns a Logger that discards everything. Transports fall back
// to it when no logger is injected so call sites stay unconditional.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Log(string, LogLevel, string, ...any)             {}
func (nopLogger) LogBytes(string, LogLevel, string, []byte, string) {}

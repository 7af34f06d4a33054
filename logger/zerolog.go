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
	"strings"

	"github.com/rs/zerolog"

	secbus "github.com/ashitaka1/go-secbus"
)

// Zerolog adapts a zerolog.Logger to the secbus.Logger capability for hosts
// that already run structured logging.
type Zerolog struct {
	log zerolog.Logger
}

// NewZerolog returns a sink writing through l.
func NewZerolog(l zerolog.Logger) *Zerolog {
	return &Zerolog{log: l}
}

// Log implements secbus.Logger.
func (z *Zerolog) Log(source string, level secbus.LogLevel, format string, args ...any) {
	z.log.WithLevel(toZerologLevel(level)).Str("source", source).Msgf(format, args...)
}

// LogBytes implements secbus.Logger. The bytes go into a structured field;
// the prefix (">> " / "<< ") becomes the message.
func (z *Zerolog) LogBytes(source string, level secbus.LogLevel, prefix string, data []byte, _ string) {
	z.log.WithLevel(toZerologLevel(level)).
		Str("source", source).
		Hex("data", data).
		Msg(strings.TrimSpace(prefix))
}

// toZerologLevel maps capability levels onto zerolog's. WithLevel does not
// exit the process at FatalLevel, which is what best-effort logging needs.
func toZerologLevel(level secbus.LogLevel) zerolog.Level {
	switch level {
	case secbus.LevelDebug:
		return zerolog.DebugLevel
	case secbus.LevelInfo:
		return zerolog.InfoLevel
	case secbus.LevelWarn:
		return zerolog.WarnLevel
	case secbus.LevelError:
		return zerolog.ErrorLevel
	case secbus.LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

var _ secbus.Logger = (*Zerolog)(nil)

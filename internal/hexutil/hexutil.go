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

// Package hexutil formats byte slices for the LogBytes logging capability.
package hexutil

import "strings"

const hexDigits = "0123456789ABCDEF"

// Join renders data as upper-case hex octets separated by sep.
func Join(data []byte, sep string) string {
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(data)*(2+len(sep)) - len(sep))
	for i, v := range data {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteByte(hexDigits[v>>4])
		b.WriteByte(hexDigits[v&0x0F])
	}
	return b.String()
}

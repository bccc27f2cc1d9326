// This file is part of Palo.
//
// Palo is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Palo is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Palo.  If not, see <https://www.gnu.org/licenses/>.

// Package logger is a minimal, dependency-free logging facility used
// by the hardware, transport and filesystem packages for events that do
// not stop the caller: disk and Ethernet I/O failures, dropped protocol
// packets, a freshly formatted volume.
//
// It deliberately has no notion of levels or structured fields; the tag
// is enough to grep a session log for one subsystem.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// SetOutput redirects all subsequent log lines. Primarily useful in tests
// that want to capture or silence output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Log writes a single pre-formatted line tagged with the given subsystem.
func Log(tag, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s: %s\n", tag, msg)
}

// Logf is Log with fmt.Sprintf-style formatting.
func Logf(tag, format string, args ...interface{}) {
	Log(tag, fmt.Sprintf(format, args...))
}

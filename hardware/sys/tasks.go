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

// Package sys defines the closed set of micro-task identities shared by
// the decoder, the CPU core, and every peripheral controller: a fixed
// enum with per-variant dispatch tables rather than virtual dispatch.
package sys

// Task identifies one of the sixteen cooperative micro-tasks. Beyond
// "tasks 0..15" and "the emulator task never blocks", the exact number
// assigned to each named task is an implementation decision (see
// DESIGN.md); this assignment keeps the named tasks in the low,
// contiguous range and leaves 9-15 unused-but-legal slots.
type Task int

const (
	TaskEmulator Task = iota
	TaskDiskSector
	TaskDiskWord
	TaskEthernet
	TaskDisplayWord
	TaskDisplayCursor
	TaskDisplayVert
	TaskParity
	TaskMemoryRefresh

	// NumTasks is the fixed task-table size.
	NumTasks = 16
)

// Valid reports whether t is a legal task number.
func (t Task) Valid() bool {
	return t >= 0 && int(t) < NumTasks
}

// String names the known tasks and falls back to a numeric label for the
// unused slots, so disassembly and debugger output never needs a bounds
// check of its own.
func (t Task) String() string {
	switch t {
	case TaskEmulator:
		return "EMULATOR"
	case TaskDiskSector:
		return "DISK_SECTOR"
	case TaskDiskWord:
		return "DISK_WORD"
	case TaskEthernet:
		return "ETHERNET"
	case TaskDisplayWord:
		return "DISPLAY_WORD"
	case TaskDisplayCursor:
		return "DISPLAY_CURSOR"
	case TaskDisplayVert:
		return "DISPLAY_VERT"
	case TaskParity:
		return "PARITY"
	case TaskMemoryRefresh:
		return "MEMORY_REFRESH"
	default:
		if t.Valid() {
			return "UNUSED"
		}
		return "INVALID"
	}
}

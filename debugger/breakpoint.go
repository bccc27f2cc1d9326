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

// Package debugger implements the breakpoint/step engine spec.md
// section 4.9 describes: wildcard-matched breakpoints on task, ntask,
// MPC, a masked MIR comparison, and an on-task-switch predicate, plus
// the step/continue/next-task control the CLI debugger surface drives.
package debugger

import (
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/palerr"
)

// Wildcard values: a field set to one of these never participates in a
// match.
const (
	WildcardTask  = 0xFF
	WildcardNTask = 0xFF
	WildcardMPC   = 0xFFFF
)

// MaxBreakpoints is the fixed breakpoint table size (spec.md section
// 4.9); slot 0 is reserved for the transient stepping predicate used by
// NextTask, leaving 1023 user-addressable slots.
const MaxBreakpoints = 1024

// Breakpoint is one match condition. Every non-wildcard field must agree
// for the breakpoint to fire.
type Breakpoint struct {
	Enable bool

	Task  uint8  // WildcardTask matches any
	NTask uint8  // WildcardNTask matches any
	MPC   uint16 // WildcardMPC matches any

	OnTaskSwitch bool

	// MIRMask == 0 disables the MIR filter entirely; otherwise the
	// breakpoint fires only when (mir & MIRMask) == MIRFormat.
	MIRFormat uint32
	MIRMask   uint32
}

// Snapshot is the CPU state a breakpoint is matched against, taken once
// per step after the step has fully completed (spec.md section 4.9: "the
// simulator checks breakpoints after each step").
type Snapshot struct {
	Task        sys.Task
	NTask       sys.Task
	MPC         uint16
	MIR         uint32
	TaskSwitched bool
}

// Matches reports whether every non-wildcard field of b agrees with s.
func (b Breakpoint) Matches(s Snapshot) bool {
	if !b.Enable {
		return false
	}
	if b.Task != WildcardTask && sys.Task(b.Task) != s.Task {
		return false
	}
	if b.NTask != WildcardNTask && sys.Task(b.NTask) != s.NTask {
		return false
	}
	if b.MPC != WildcardMPC && b.MPC != s.MPC {
		return false
	}
	if b.OnTaskSwitch && !s.TaskSwitched {
		return false
	}
	if b.MIRMask != 0 && (s.MIR&b.MIRMask) != b.MIRFormat {
		return false
	}
	return true
}

// Table is the breakpoint table: a fixed array of slots, index 0
// reserved for the transient step predicate.
type Table struct {
	slots [MaxBreakpoints]*Breakpoint
}

// NewTable returns an empty breakpoint table.
func NewTable() *Table {
	return &Table{}
}

// Add installs bp in the lowest available slot at or above 1, returning
// that slot. Returns a Resource error when the table is full (spec.md
// section 7).
func (t *Table) Add(bp Breakpoint) (int, error) {
	for slot := 1; slot < MaxBreakpoints; slot++ {
		if t.slots[slot] == nil {
			cp := bp
			t.slots[slot] = &cp
			return slot, nil
		}
	}
	return 0, palerr.New(palerr.Resource, "debugger: breakpoint table full")
}

// Remove clears slot. Removing slot 0 or an already-empty slot is a no-op.
func (t *Table) Remove(slot int) {
	if slot < 1 || slot >= MaxBreakpoints {
		return
	}
	t.slots[slot] = nil
}

// Clear empties every user breakpoint, leaving the transient slot
// untouched.
func (t *Table) Clear() {
	for slot := 1; slot < MaxBreakpoints; slot++ {
		t.slots[slot] = nil
	}
}

// SetTransient installs bp in the reserved slot 0, used by NextTask to
// request a one-shot halt on the next task switch.
func (t *Table) SetTransient(bp Breakpoint) {
	cp := bp
	t.slots[0] = &cp
}

// ClearTransient empties slot 0.
func (t *Table) ClearTransient() {
	t.slots[0] = nil
}

// List returns every occupied slot index in ascending order, including 0
// if the transient predicate is armed.
func (t *Table) List() []int {
	var out []int
	for slot, bp := range t.slots {
		if bp != nil {
			out = append(out, slot)
		}
	}
	return out
}

// Get returns the breakpoint at slot, or (Breakpoint{}, false) if empty.
func (t *Table) Get(slot int) (Breakpoint, bool) {
	if slot < 0 || slot >= MaxBreakpoints || t.slots[slot] == nil {
		return Breakpoint{}, false
	}
	return *t.slots[slot], true
}

// Check returns the lowest-numbered occupied slot whose breakpoint
// matches s, or (0, false) if none does.
func (t *Table) Check(s Snapshot) (int, bool) {
	for slot, bp := range t.slots {
		if bp != nil && bp.Matches(s) {
			return slot, true
		}
	}
	return 0, false
}

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

package debugger_test

import (
	"testing"

	"github.com/petersieg/palo/debugger"
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/internal/palotest"
)

func TestBreakpointWildcardMatch(t *testing.T) {
	bp := debugger.Breakpoint{
		Enable: true,
		Task:   debugger.WildcardTask,
		NTask:  debugger.WildcardNTask,
		MPC:    debugger.WildcardMPC,
	}
	s := debugger.Snapshot{Task: sys.TaskDiskWord, NTask: sys.TaskEmulator, MPC: 0x37}
	if !bp.Matches(s) {
		t.Fatalf("all-wildcard breakpoint should match anything")
	}
}

func TestBreakpointTaskFilter(t *testing.T) {
	bp := debugger.Breakpoint{
		Enable: true,
		Task:   uint8(sys.TaskDiskWord),
		NTask:  debugger.WildcardNTask,
		MPC:    debugger.WildcardMPC,
	}
	if !bp.Matches(debugger.Snapshot{Task: sys.TaskDiskWord}) {
		t.Fatalf("expected match on exact task")
	}
	if bp.Matches(debugger.Snapshot{Task: sys.TaskEmulator}) {
		t.Fatalf("expected no match on differing task")
	}
}

func TestBreakpointDisabledNeverMatches(t *testing.T) {
	bp := debugger.Breakpoint{
		Enable: false,
		Task:   debugger.WildcardTask,
		NTask:  debugger.WildcardNTask,
		MPC:    debugger.WildcardMPC,
	}
	if bp.Matches(debugger.Snapshot{}) {
		t.Fatalf("a disabled breakpoint must never match")
	}
}

func TestBreakpointMIRMask(t *testing.T) {
	bp := debugger.Breakpoint{
		Enable:    true,
		Task:      debugger.WildcardTask,
		NTask:     debugger.WildcardNTask,
		MPC:       debugger.WildcardMPC,
		MIRFormat: 0x0010_0000,
		MIRMask:   0x00F0_0000,
	}
	if !bp.Matches(debugger.Snapshot{MIR: 0x0010_1234}) {
		t.Fatalf("expected match when masked bits agree")
	}
	if bp.Matches(debugger.Snapshot{MIR: 0x0020_1234}) {
		t.Fatalf("expected no match when masked bits disagree")
	}
}

func TestBreakpointOnTaskSwitch(t *testing.T) {
	bp := debugger.Breakpoint{
		Enable:       true,
		Task:         debugger.WildcardTask,
		NTask:        debugger.WildcardNTask,
		MPC:          debugger.WildcardMPC,
		OnTaskSwitch: true,
	}
	if bp.Matches(debugger.Snapshot{TaskSwitched: false}) {
		t.Fatalf("expected no match without a task switch")
	}
	if !bp.Matches(debugger.Snapshot{TaskSwitched: true}) {
		t.Fatalf("expected match on a task switch")
	}
}

func TestTableAddRemoveClear(t *testing.T) {
	tbl := debugger.NewTable()
	bp := debugger.Breakpoint{Enable: true, Task: debugger.WildcardTask, NTask: debugger.WildcardNTask, MPC: 5}

	slot, err := tbl.Add(bp)
	palotest.ExpectSuccess(t, err)
	if slot == 0 {
		t.Fatalf("slot 0 is reserved for the transient predicate")
	}

	got, ok := tbl.Get(slot)
	if !ok {
		t.Fatalf("expected breakpoint at slot %d", slot)
	}
	palotest.ExpectEquality(t, got.MPC, uint16(5))

	tbl.Remove(slot)
	if _, ok := tbl.Get(slot); ok {
		t.Fatalf("expected slot %d to be empty after Remove", slot)
	}

	slot2, err := tbl.Add(bp)
	palotest.ExpectSuccess(t, err)
	tbl.Clear()
	if _, ok := tbl.Get(slot2); ok {
		t.Fatalf("expected Clear to empty every user slot")
	}
}

func TestTableFullReturnsResourceError(t *testing.T) {
	tbl := debugger.NewTable()
	bp := debugger.Breakpoint{Enable: true, Task: debugger.WildcardTask, NTask: debugger.WildcardNTask, MPC: debugger.WildcardMPC}
	for i := 1; i < debugger.MaxBreakpoints; i++ {
		if _, err := tbl.Add(bp); err != nil {
			t.Fatalf("unexpected error filling table at slot %d: %v", i, err)
		}
	}
	_, err := tbl.Add(bp)
	palotest.ExpectFailure(t, err)
}

func TestTableTransientSlotSeparateFromUserSlots(t *testing.T) {
	tbl := debugger.NewTable()
	tbl.SetTransient(debugger.Breakpoint{Enable: true, Task: debugger.WildcardTask, NTask: debugger.WildcardNTask, MPC: debugger.WildcardMPC, OnTaskSwitch: true})

	slot, hit := tbl.Check(debugger.Snapshot{TaskSwitched: true})
	palotest.ExpectEquality(t, slot, 0)
	if !hit {
		t.Fatalf("expected the transient predicate to fire")
	}

	tbl.ClearTransient()
	if _, hit := tbl.Check(debugger.Snapshot{TaskSwitched: true}); hit {
		t.Fatalf("expected no match after ClearTransient")
	}
}

func TestTableCheckFirstMatchWins(t *testing.T) {
	tbl := debugger.NewTable()
	low, err := tbl.Add(debugger.Breakpoint{Enable: true, Task: debugger.WildcardTask, NTask: debugger.WildcardNTask, MPC: debugger.WildcardMPC})
	palotest.ExpectSuccess(t, err)
	_, err = tbl.Add(debugger.Breakpoint{Enable: true, Task: debugger.WildcardTask, NTask: debugger.WildcardNTask, MPC: debugger.WildcardMPC})
	palotest.ExpectSuccess(t, err)

	slot, hit := tbl.Check(debugger.Snapshot{})
	if !hit {
		t.Fatalf("expected a match")
	}
	palotest.ExpectEquality(t, slot, low)
}

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

package debugger

import (
	"github.com/petersieg/palo/hardware/sim"
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/notifications"
)

// Reason identifies why Continue or NextTask returned.
type Reason int

const (
	ReasonBreakpoint Reason = iota
	ReasonSimError
	ReasonStepLimit
)

// Result reports how a run ended.
type Result struct {
	Reason Reason
	Slot   int // the matching breakpoint slot, valid when Reason == ReasonBreakpoint
	Err    error
	Steps  int
}

// Engine drives a *sim.Simulator one step at a time, checking the
// breakpoint table after every completed step (spec.md section 4.9).
type Engine struct {
	Sim   *sim.Simulator
	Table *Table
}

// New wraps s with a fresh, empty breakpoint table.
func New(s *sim.Simulator) *Engine {
	return &Engine{Sim: s, Table: NewTable()}
}

func (e *Engine) snapshot(prevTask sys.Task) Snapshot {
	c := e.Sim.CPU
	s := Snapshot{
		Task:         c.CTask,
		NTask:        c.NTask,
		MPC:          uint16(c.TaskMPC[c.CTask]),
		MIR:          c.MIRValue(),
		TaskSwitched: c.CTask != prevTask,
	}
	if s.TaskSwitched {
		e.Sim.Env.NotifyEvent(notifications.NotifyTaskSwitch, prevTask, s.Task)
	}
	return s
}

// Step advances the simulator by exactly one microinstruction and
// returns the post-step snapshot, independent of any armed breakpoint.
func (e *Engine) Step() (Snapshot, error) {
	prevTask := e.Sim.CPU.CTask
	if err := e.Sim.Step(); err != nil {
		return Snapshot{}, err
	}
	return e.snapshot(prevTask), nil
}

// Continue steps the simulator until a breakpoint fires, the step runs
// into an error, or maxSteps steps have executed (maxSteps <= 0 means
// unbounded).
func (e *Engine) Continue(maxSteps int) Result {
	steps := 0
	for maxSteps <= 0 || steps < maxSteps {
		prevTask := e.Sim.CPU.CTask
		if err := e.Sim.Step(); err != nil {
			return Result{Reason: ReasonSimError, Err: err, Steps: steps}
		}
		steps++
		if slot, hit := e.Table.Check(e.snapshot(prevTask)); hit {
			e.Sim.Env.NotifyEvent(notifications.NotifyBreakpoint, slot)
			return Result{Reason: ReasonBreakpoint, Slot: slot, Steps: steps}
		}
	}
	return Result{Reason: ReasonStepLimit, Steps: steps}
}

// NextTask arms the transient slot-0 predicate for a halt on the next
// task switch away from the current task, then runs to completion via
// Continue, clearing the transient predicate afterward regardless of
// outcome.
func (e *Engine) NextTask(maxSteps int) Result {
	e.Table.SetTransient(Breakpoint{
		Enable:       true,
		Task:         WildcardTask,
		NTask:        WildcardNTask,
		MPC:          WildcardMPC,
		OnTaskSwitch: true,
	})
	defer e.Table.ClearTransient()
	return e.Continue(maxSteps)
}

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
	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/hardware/sim"
	"github.com/petersieg/palo/internal/palotest"
)

func newTestSim() *sim.Simulator {
	env := environment.New(environment.AltoII3K, nil)
	return sim.New(env)
}

func TestEngineStepAdvancesSnapshot(t *testing.T) {
	e := debugger.New(newTestSim())
	_, err := e.Step()
	palotest.ExpectSuccess(t, err)
}

func TestEngineContinueStopsAtStepLimit(t *testing.T) {
	e := debugger.New(newTestSim())
	res := e.Continue(10)
	palotest.ExpectEquality(t, res.Reason, debugger.ReasonStepLimit)
	palotest.ExpectEquality(t, res.Steps, 10)
}

func TestEngineContinueStopsAtBreakpoint(t *testing.T) {
	e := debugger.New(newTestSim())
	slot, err := e.Table.Add(debugger.Breakpoint{
		Enable: true,
		Task:   debugger.WildcardTask,
		NTask:  debugger.WildcardNTask,
		MPC:    debugger.WildcardMPC,
	})
	palotest.ExpectSuccess(t, err)

	res := e.Continue(100)
	palotest.ExpectEquality(t, res.Reason, debugger.ReasonBreakpoint)
	palotest.ExpectEquality(t, res.Slot, slot)
	palotest.ExpectEquality(t, res.Steps, 1)
}

func TestEngineNextTaskClearsTransientAfterwards(t *testing.T) {
	e := debugger.New(newTestSim())
	e.NextTask(5)
	if _, ok := e.Table.Get(0); ok {
		t.Fatalf("expected the transient slot to be cleared after NextTask returns")
	}
}

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

package cpu_test

import (
	"testing"

	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/hardware/cpu"
	"github.com/petersieg/palo/hardware/mc"
	"github.com/petersieg/palo/hardware/memory"
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/internal/palotest"
)

// encode packs the structured fields of one microinstruction into the raw
// 32-bit word the decoder expects.
func encode(rsel int, aluf mc.ALUF, bs mc.BS, f1 mc.F1, f2 mc.F2, loadT, loadL bool, next int) uint32 {
	var w uint32
	w |= uint32(rsel&0x1F) << 27
	w |= uint32(int(aluf)&0xF) << 23
	w |= uint32(int(bs)&0x7) << 20
	w |= uint32(int(f1)&0xF) << 16
	w |= uint32(int(f2)&0xF) << 12
	if loadT {
		w |= 1 << 11
	}
	if loadL {
		w |= 1 << 10
	}
	w |= uint32(next & 0x3FF)
	return w
}

func newTestCPU() (*cpu.CPU, *memory.Memory) {
	env := environment.New(environment.AltoII3K, nil)
	mem := memory.New()
	c := cpu.New(env, mem, nil, nil)
	return c, mem
}

// TestResetThenNOPCycle drives the concrete "reset + single NOP cycle"
// scenario: with microcode[0]=0 on all banks, one step advances the cycle
// counter and leaves every other piece of state at its reset default.
func TestResetThenNOPCycle(t *testing.T) {
	c, _ := newTestCPU()

	err := c.Step()
	palotest.ExpectSuccess(t, err)

	palotest.ExpectEquality(t, c.Cycle, uint64(1))
	palotest.ExpectEquality(t, c.CTask, sys.TaskEmulator)
	palotest.ExpectEquality(t, c.TaskMPC[sys.TaskEmulator], 0)
	palotest.ExpectEquality(t, c.MIRValue(), uint32(0))
	palotest.ExpectEquality(t, c.Pending, uint16(1<<sys.TaskEmulator))
}

// TestLoadMARThenReadMD drives the concrete "LOAD_MAR then READ_MD"
// scenario: priming 0o100/0o101, then stepping through a LOAD_MAR
// followed by two READ_MD accesses yields the low word, then the high
// word, in that order.
func TestLoadMARThenReadMD(t *testing.T) {
	c, mem := newTestCPU()
	mem.Poke(sys.TaskEmulator, false, 0o100, 0xAAAA)
	mem.Poke(sys.TaskEmulator, false, 0o101, 0x5555)

	loadMAR := encode(0, mc.AluBus, mc.BsReadR, mc.F1LoadMAR, mc.F2None, false, false, 1)
	readMD := encode(0, mc.AluBus, mc.BsReadMD, mc.F1None, mc.F2None, false, true, 1)
	c.Microcode[0][0] = loadMAR
	c.Microcode[0][1] = readMD

	c.R[0] = 0o100

	// Cycle 1: executes the reset NOP, fetches loadMAR for next cycle.
	palotest.ExpectSuccess(t, c.Step())
	// Cycle 2: executes loadMAR, starting the memory pipeline.
	palotest.ExpectSuccess(t, c.Step())
	palotest.ExpectEquality(t, mem.Active(), true)
	palotest.ExpectEquality(t, mem.MemLow, uint16(0xAAAA))
	palotest.ExpectEquality(t, mem.MemHigh, uint16(0x5555))

	// Cycle 3: executes readMD, loading L with mem_low.
	palotest.ExpectSuccess(t, c.Step())
	palotest.ExpectEquality(t, c.L, uint16(0xAAAA))

	// Cycle 4: executes readMD again, loading L with mem_high.
	palotest.ExpectSuccess(t, c.Step())
	palotest.ExpectEquality(t, c.L, uint16(0x5555))
}

// TestTaskPriorityPicksHighestNumber exercises the task-priority property:
// if tasks A and B are both pending with A>B, after F1=TASK, ntask=A.
func TestTaskPriorityPicksHighestNumber(t *testing.T) {
	c, _ := newTestCPU()
	c.Pending = 1<<sys.TaskEmulator | 1<<sys.TaskDiskWord | 1<<sys.TaskEthernet

	task := encode(0, mc.AluBus, mc.BsReadR, mc.F1Task, mc.F2None, false, false, 0)
	c.Microcode[0][0] = task

	palotest.ExpectSuccess(t, c.Step()) // NOP, fetches task instruction
	palotest.ExpectSuccess(t, c.Step()) // executes F1=TASK
	palotest.ExpectEquality(t, c.NTask, sys.TaskEthernet)
}

// TestEmulatorCannotBlock exercises the property that F1=BLOCK issued by
// the emulator task is fatal and otherwise changes nothing.
func TestEmulatorCannotBlock(t *testing.T) {
	c, _ := newTestCPU()
	block := encode(0, mc.AluBus, mc.BsReadR, mc.F1Block, mc.F2None, false, false, 0)
	c.Microcode[0][0] = block

	palotest.ExpectSuccess(t, c.Step()) // NOP, fetches the block instruction
	pendingBefore := c.Pending

	err := c.Step()
	palotest.ExpectFailure(t, err)
	palotest.ExpectEquality(t, c.Pending, pendingBefore)

	// Once fatal, every subsequent Step refuses to advance.
	cycleAfterFault := c.Cycle
	err = c.Step()
	palotest.ExpectFailure(t, err)
	palotest.ExpectEquality(t, c.Cycle, cycleAfterFault)
}

// TestResetClearsFatalError confirms Reset is the only way to clear the
// CPU's sticky error state.
func TestResetClearsFatalError(t *testing.T) {
	c, _ := newTestCPU()
	block := encode(0, mc.AluBus, mc.BsReadR, mc.F1Block, mc.F2None, false, false, 0)
	c.Microcode[0][0] = block

	palotest.ExpectSuccess(t, c.Step())
	palotest.ExpectFailure(t, c.Step())

	c.Reset()
	palotest.ExpectSuccess(t, c.Step())
}

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

package cpu

import (
	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/hardware/alu"
	"github.com/petersieg/palo/hardware/mc"
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/notifications"
	"github.com/petersieg/palo/palerr"
)

const (
	mpcIndexMask = 0x3FF
	mpcBankMask  = 0xC00

	// condBit is the single NEXT bit that every conditional F2 (BUSEQ0,
	// SHLT0, SHEQ0, ALUCY, BUSODD) ORs in when its condition holds. Real
	// Alto microcode reserves one bit of NEXT for exactly this purpose;
	// which bit it is has no bearing on correctness as long as it is
	// used consistently (see DESIGN.md).
	condBit = 0x008
)

// rfile adapts *CPU to alu.RegisterFile.
type rfile struct{ c *CPU }

func (r rfile) Read(rsel int) uint16 { return r.c.R[rsel&0x1F] }

// sfile adapts *CPU to alu.SRegisterFile.
type sfile struct{ c *CPU }

func (s sfile) ReadS(bank, rsel int) uint16 { return s.c.S[bank&0x7][rsel&0x1F] }

func (c *CPU) fatal(err error) error {
	var pe *palerr.Error
	if e, ok := err.(*palerr.Error); ok {
		pe = e
	} else {
		pe = palerr.New(palerr.Programmer, err.Error())
	}
	fe := &FatalError{Cause: pe}
	c.Err = fe
	c.env.NotifyEvent(notifications.NotifyHalt, pe)
	return fe
}

// Step executes exactly one simulated cycle: bus read, ALU, shifter,
// F1/F2 side effects, write-back, memory tick, and task switch. It never blocks.
func (c *CPU) Step() error {
	if c.Err != nil {
		return c.Err
	}

	m, err := mc.Predecode(c.env, c.TaskMPC[c.CTask], c.mir, c.CTask)
	if err != nil {
		return c.fatal(err)
	}

	// F1=BLOCK in the emulator task is fatal and leaves all other state
	// untouched.
	if m.F1 == mc.F1Block && c.CTask == sys.TaskEmulator {
		return c.fatal(palerr.New(palerr.Programmer, "BLOCK issued from the emulator task"))
	}

	rsel := alu.ModifiedRSEL(c.CTask, m.F2, m.RSEL, c.IR)

	bus := alu.Select(c.CTask, m.BS, rsel, alu.Sources{
		R:         rfile{c},
		S:         sfile{c},
		P:         c.peripherals,
		IR:        c.IR,
		MemLow:    c.mem.MemLow,
		MemHigh:   c.mem.MemHigh,
		MemWhich:  &c.mem.MemWhich,
		MouseBits: c.mouseBits,
		SBank:     c.SBank[c.CTask],
	})

	// RSNF: emulator-only override of the BS_NONE default.
	if c.CTask == sys.TaskEmulator && m.F1 == mc.F1RSNF && m.BS == mc.BsNone && c.extras != nil {
		bus = c.extras.EthernetAddressHigh()
	}

	if m.BSUseCROM {
		bus &= c.ConstantROM[m.ConstAddr&0x1F]
	}

	aluResult, err := alu.Compute(m.ALUF, bus, c.T, c.Skip)
	if err != nil {
		return c.fatal(err)
	}

	shOut := alu.Shift(m.F1, alu.ShifterInput{
		L:     c.L,
		T:     c.T,
		Carry: c.Carry,
		Dns:   c.Dns,
		Magic: m.F2 == mc.F2Magic,
	})
	c.Carry = shOut.Carry

	c.writeback(m, rsel, bus, aluResult, shOut)

	nextExtra, err := c.applyF1(m, bus)
	if err != nil {
		return c.fatal(err)
	}
	nextExtra |= c.applyF2(m, bus, aluResult, shOut)

	c.mem.Tick()
	c.advance(nextExtra & mpcIndexMask)
	c.Cycle++

	return nil
}

// writeback commits the cycle's results in a fixed order: R-file write,
// S-bank write, L/carry/M, then T.
func (c *CPU) writeback(m mc.MC, rsel int, bus uint16, aluResult alu.Result, shOut alu.ShifterOutput) {
	if m.BS == mc.BsLoadR && !m.UseConstant {
		c.R[rsel&0x1F] = shOut.L
	}

	if m.RAMTask && m.BS == mc.BsTaskSpecial2 && isRAMCapable(c.CTask) {
		c.S[c.SBank[c.CTask]&0x7][rsel&0x1F] = c.M
	}

	if m.LoadL {
		c.L = aluResult.Value
		c.ALUCarry = aluResult.Carry
		if c.CTask == sys.TaskEmulator {
			c.M = aluResult.Value
		}
	}

	if m.LoadT {
		if m.ALUF == mc.AluBusAndTWB {
			c.T = aluResult.Value
		} else {
			c.T = bus
		}
	}
}

// isRAMCapable reports whether task may hold a private S-register bank.
// Every task but the emulator addresses S registers this way; the
// emulator uses ESRB instead.
func isRAMCapable(t sys.Task) bool { return t != sys.TaskEmulator }

// applyF1 performs every F1 side effect except the shifter (already
// applied) and returns this instruction's NEXT contribution, which for
// every F1 code is zero - only F2 codes contribute to NEXT.
func (c *CPU) applyF1(m mc.MC, bus uint16) (int, error) {
	switch m.F1 {
	case mc.F1LoadMAR:
		c.startMemoryCycle(bus)
	case mc.F1Task:
		c.NTask = highestPending(c.Pending)
	case mc.F1Block:
		c.Pending &^= 1 << uint(c.CTask)
	case mc.F1RamSwmode:
		if c.CTask == sys.TaskEmulator {
			c.MicrocodeBank = int(bus & 1)
		}
	case mc.F1RamWrtram:
		c.Microcode[c.currentBank()][c.TaskMPC[c.CTask]&mpcIndexMask] = uint32(c.T)<<16 | uint32(bus)
	case mc.F1RamRdram:
		c.T = uint16(c.Microcode[c.currentBank()][c.TaskMPC[c.CTask]&mpcIndexMask])
	case mc.F1RamLoadSRB:
		if c.env.Is3K() {
			c.SBank[c.CTask] = int(bus & 0x7)
		} else {
			c.SBank[c.CTask] = 0
		}
	case mc.F1LoadRMR:
		if c.CTask == sys.TaskEmulator {
			c.RMR = bus
		}
	case mc.F1LoadESRB:
		if c.CTask == sys.TaskEmulator {
			c.ESRB = int(bus & 0x7)
		}
	case mc.F1STARTF:
		if c.extras != nil {
			c.extras.StartF(c.CTask, bus)
		}
	}
	return 0, nil
}

// startMemoryCycle resolves the paired address per system type and starts
// the memory pipeline.
func (c *CPU) startMemoryCycle(bus uint16) {
	addr := bus
	var pair uint16
	if c.env.System == environment.AltoI {
		pair = addr | 1
	} else {
		pair = addr ^ 1
	}
	// extended is resolved definitively once F2=STORE_MD runs; see storeMD.
	c.mem.StartCycle(c.CTask, false, addr, pair)
}

// applyF2 performs every F2 side effect and returns this instruction's
// NEXT contribution.
func (c *CPU) applyF2(m mc.MC, bus uint16, aluResult alu.Result, shOut alu.ShifterOutput) int {
	extra := 0
	switch m.F2 {
	case mc.F2BusEq0:
		if bus == 0 {
			extra |= condBit
		}
	case mc.F2ShLt0:
		if shOut.L&0x8000 != 0 {
			extra |= condBit
		}
	case mc.F2ShEq0:
		if shOut.L == 0 {
			extra |= condBit
		}
	case mc.F2Bus:
		extra |= int(bus) & mpcIndexMask
	case mc.F2AluCY:
		if aluResult.Carry {
			extra |= condBit
		}
	case mc.F2StoreMD:
		c.storeMD(bus)
	case mc.F2LoadIR:
		c.IR = bus
		c.Skip = false
		nibble := int((bus>>15)&1)<<3 | int((bus>>8)&0x7)
		extra |= (nibble & 0xF) << 6
	case mc.F2BusOdd:
		if bus&1 != 0 {
			extra |= condBit
		}
	case mc.F2LoadDNS:
		c.Dns = true
	case mc.F2IDisp:
		extra |= int((c.IR>>12)&0xF)
	case mc.F2ACSource, mc.F2ACDest:
		// handled entirely by alu.ModifiedRSEL before the bus read.
	case mc.F2Magic:
		// handled entirely by the shifter's Magic input.
	case mc.F2TaskSpecial:
		if c.peripherals != nil {
			c.peripherals.TaskSpecialWrite(c.CTask, m.RSEL, bus)
		}
	}
	return extra
}

// storeMD implements F2=STORE_MD: on an Alto II, the target pairs with
// MAR according to MemWhich, and this is also the point at which
// MemExtended is finally known for this access.
func (c *CPU) storeMD(bus uint16) {
	target := c.mem.MAR
	if c.env.System != environment.AltoI {
		c.mem.MemExtended = true
		if c.mem.MemWhich {
			target = c.mem.MAR ^ 1
		}
	} else if c.mem.MemWhich {
		target = c.mem.MAR | 1
	}
	c.mem.StoreMD(target, bus)
}

// currentBank returns the writable-control-store bank the current task
// fetches from. Only the emulator task can switch banks (F1=RAM_SWMODE);
// every other task always runs from bank 0.
func (c *CPU) currentBank() int {
	if c.CTask == sys.TaskEmulator {
		return c.MicrocodeBank
	}
	return 0
}

// highestPending returns the highest-numbered pending task.
// Pending always has at least the emulator bit set, so this never
// operates on an empty mask.
func highestPending(pending uint16) sys.Task {
	for t := sys.NumTasks - 1; t >= 0; t-- {
		if pending&(1<<uint(t)) != 0 {
			return sys.Task(t)
		}
	}
	return sys.TaskEmulator
}

// advance fetches the microinstruction the current task will execute on
// its next turn and folds this cycle's NEXT contribution into its saved
// program counter before switching to ntask. The fetch must use the mpc
// that was just read from task_mpc[ctask], not a second, possibly stale
// read - that pipelining is what lets mir always hold the instruction
// fetched one cycle ago.
func (c *CPU) advance(nextExtra int) {
	mpc := c.TaskMPC[c.CTask]
	bank := mpc & mpcBankMask
	mcode := c.Microcode[c.currentBank()][mpc&mpcIndexMask]

	newMPC := bank | (int(mcode) & mpcIndexMask) | nextExtra
	c.TaskMPC[c.CTask] = newMPC
	c.mir = mcode

	if c.CTask != c.NTask {
		c.env.NotifyEvent(notifications.NotifyTaskSwitch, c.CTask, c.NTask)
	}
	c.CTask = c.NTask
}

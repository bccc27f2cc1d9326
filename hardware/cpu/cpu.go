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

// Package cpu implements the CPU core step: the
// orchestration of bus read, ALU, shifter, F1/F2 side effects,
// write-back, and task switch into a single simulated cycle.
package cpu

import (
	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/hardware/alu"
	"github.com/petersieg/palo/hardware/memory"
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/notifications"
	"github.com/petersieg/palo/palerr"
)

// FatalError is the CPU's sticky error state. It wraps the palerr.Error that caused it.
type FatalError struct {
	Cause *palerr.Error
}

func (e *FatalError) Error() string { return e.Cause.Error() }
func (e *FatalError) Unwrap() error { return e.Cause }

// EmulatorExtras is the narrow hook the CPU uses for the two F1 codes
// whose behavior is tied to a peripheral rather than the datapath: RSNF
// (emulator task only; bus source override returning the Ethernet address
// high byte when BS=NONE) and STARTF (issued from any task; dispatches a
// start command to whichever peripheral owns it). Satisfied by hardware/sim.Simulator.
type EmulatorExtras interface {
	EthernetAddressHigh() uint16

	// StartF dispatches a start command to whichever peripheral owns
	// task: disk (seek/transfer direction), ethernet (enable/disable),
	// or display (vertical sync). Every task may issue STARTF; only the
	// owning controller's interpretation of the bus value matters.
	StartF(task sys.Task, command uint16)
}

// CPU holds all per-cycle state. Memory is owned by a
// separate package (hardware/memory) and referenced here because LOAD_MAR
// and STORE_MD are CPU-driven side effects against it.
type CPU struct {
	env *environment.Environment
	mem *memory.Memory

	peripherals alu.Peripherals
	extras      EmulatorExtras

	// R and S register files.
	R [32]uint16
	S [8][32]uint16

	// TaskMPC is the saved micro-program-counter per task.
	TaskMPC [sys.NumTasks]int

	// SBank is the S-register bank currently selected per task (3 bits),
	// and ESRB is the emulator's own bank register for LOAD_ESRB.
	SBank [sys.NumTasks]int
	ESRB  int

	// RMR is the Reset Mode Register, loaded by the emulator-only
	// LOAD_RMR F1.
	RMR uint16

	// MicrocodeBank selects which of the two writable control-store
	// banks the emulator task is currently executing from (F1=RAM_SWMODE).
	MicrocodeBank int

	// Microcode is the writable control store: two banks of 1024 32-bit
	// microinstructions, loaded from a ROM file at boot (hardware/rom)
	// and mutable at runtime via RAM_WRTRAM/RAM_RDRAM.
	Microcode [2][1024]uint32

	// ConstantROM is the 32-entry constant ROM addressed directly by
	// RSEL; the real hardware's 8-bit address that combines RSEL and BS
	// is not modeled.
	ConstantROM [32]uint16

	CTask, NTask sys.Task
	Pending      uint16

	mir uint32

	T, L, M uint16
	IR      uint16

	ALUCarry bool
	Skip     bool
	Carry    bool // the nova-style carry flag
	Dns      bool

	// mouseBits is the live mouse-quadrature/button word latched by the
	// mouse controller; read by BS=READ_MOUSE.
	mouseBits uint16

	Cycle uint64

	// Err is the sticky fatal error; once set, Step refuses to advance
	// until Reset clears it.
	Err *FatalError
}

// New creates a CPU with all tasks pending the emulator bit only, its
// post-reset state.
func New(env *environment.Environment, mem *memory.Memory, peripherals alu.Peripherals, extras EmulatorExtras) *CPU {
	c := &CPU{env: env, mem: mem, peripherals: peripherals, extras: extras}
	c.Reset()
	return c
}

// Reset restores the CPU to its post-reset state:
// all registers zeroed, ctask=ntask=0, pending = 1<<EMULATOR only, cycle
// counter restarted, sticky error cleared.
func (c *CPU) Reset() {
	c.R = [32]uint16{}
	c.S = [8][32]uint16{}
	c.TaskMPC = [sys.NumTasks]int{}
	c.SBank = [sys.NumTasks]int{}
	c.ESRB = 0
	c.RMR = 0
	c.MicrocodeBank = 0
	c.CTask = sys.TaskEmulator
	c.NTask = sys.TaskEmulator
	c.Pending = 1 << sys.TaskEmulator
	c.mir = 0
	c.T, c.L, c.M = 0, 0, 0
	c.IR = 0
	c.ALUCarry = false
	c.Skip = false
	c.Carry = false
	c.Dns = false
	c.Cycle = 0
	c.Err = nil
	c.mem.Reset()
	c.env.NotifyEvent(notifications.NotifyReset)
}

// MIRValue returns the currently latched 32-bit microinstruction.
func (c *CPU) MIRValue() uint32 { return c.mir }

// SetMouseBits latches the mouse controller's current quadrature/button
// word for the next BS=READ_MOUSE bus access.
func (c *CPU) SetMouseBits(v uint16) { c.mouseBits = v }

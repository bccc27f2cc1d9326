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

// Package mc implements the microcode decoder: a pure
// function that predecodes a 32-bit microinstruction into the structured
// fields consumed by the bus, ALU, shifter, and write-back stages.
package mc

// Bit layout of a 32-bit microinstruction, MSB first:
//
//	RSEL(5) ALUF(4) BS(3) F1(4) F2(4) T(1) L(1) NEXT(10)
const (
	rselShift = 27
	rselMask  = 0x1F

	alufShift = 23
	alufMask  = 0xF

	bsShift = 20
	bsMask  = 0x7

	f1Shift = 16
	f1Mask  = 0xF

	f2Shift = 12
	f2Mask  = 0xF

	loadTBit = 11
	loadLBit = 10

	nextMask = 0x3FF
)

// ALUF names the ALU opcode table. Values above BusAndTWB
// are undefined and fatal at execution time.
type ALUF int

const (
	AluBus ALUF = iota
	AluT
	AluBusOrT
	AluBusAndT
	AluBusXorT
	AluBusPlus1
	AluBusMinus1
	AluBusPlusT
	AluBusMinusT
	AluBusMinusTMinus1
	AluBusPlusTPlus1
	AluBusPlusSkip
	AluBusAndNotT
	AluBusAndTWB
	aluUndefinedLo
	aluUndefinedHi
)

// Defined reports whether the opcode is one of the fourteen named
// operations; codes 14 and 15 are undefined and are a fatal CPU error.
func (a ALUF) Defined() bool {
	return a >= AluBus && a <= AluBusAndTWB
}

// BS names the bus-source selector. Values 6 and 7 are
// reinterpreted per-task by the bus-source stage (hardware/alu).
type BS int

const (
	BsReadR BS = iota
	BsLoadR
	BsNone
	BsReadMD
	BsReadMouse
	BsReadDisp
	BsTaskSpecial1
	BsTaskSpecial2
)

// F1 names the first function code. Codes 5 through 12 are
// task-specific; hardware/cpu applies RAM_SWMODE, LOAD_RMR, LOAD_ESRB and
// RSNF only in the emulator task and the others in any task. Codes 13 to
// 15 are the shifter's LLSH1, LRSH1 and LLCY8 (see hardware/alu).
type F1 int

const (
	F1None F1 = iota
	F1Constant
	F1LoadMAR
	F1Task
	F1Block
	// task-specific, interpreted by the owning task's controller
	F1RamSwmode
	F1RamWrtram
	F1RamRdram
	F1RamLoadSRB
	F1LoadRMR
	F1LoadESRB
	F1RSNF
	F1STARTF
)

// F2 names the second function code.
type F2 int

const (
	F2None F2 = iota
	F2BusEq0
	F2ShLt0
	F2ShEq0
	F2Bus
	F2AluCY
	F2StoreMD
	F2LoadIR
	F2BusOdd
	F2LoadDNS
	F2IDisp
	F2ACSource
	F2ACDest
	F2Magic

	// F2TaskSpecial commits the bus to whichever register RSEL selects
	// in the current task's controller (disk, ethernet, display). See
	// alu.Peripherals.TaskSpecialWrite.
	F2TaskSpecial
)

// MC is the fully predecoded form of one microinstruction, the sole output
// of Predecode and the sole input to every later pipeline stage.
type MC struct {
	RSEL int
	ALUF ALUF
	BS   BS
	F1   F1
	F2   F2

	LoadT bool
	LoadL bool

	Next int

	// UseConstant is true when F1 or F2 explicitly requests constant-ROM
	// addressing via RSEL (F1=CONSTANT, F2=ACSOURCE, F2=ACDEST).
	UseConstant bool

	// BSUseCROM is true when the constant ROM contributes to the
	// wired-AND bus model for this instruction, i.e. when UseConstant is
	// set and BS is not READ_R or LOAD_R.
	BSUseCROM bool

	// ConstAddr is the address into the constant ROM; always RSEL, valid
	// whenever BSUseCROM is set.
	ConstAddr int

	// RAMTask is true when the current task may address a private
	// S-register bank, which is only meaningful on an Alto II 3K-RAM
	// system.
	RAMTask bool
}

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

// Package memory implements the Alto's main memory subsystem: four
// 64K-word banks, per-task extended-memory bank registers, the two-word
// memory pipeline, and the pipeline cycle counter. It is owned
// exclusively by the CPU goroutine and performs O(1) array accesses
// only - no blocking, no I/O.
package memory

import "github.com/petersieg/palo/hardware/sys"

// NumBanks is the number of 64K-word main-memory banks.
const NumBanks = 4

// bankWords is the word count of one bank (a full 16-bit address space).
const bankWords = 1 << 16

// idleCycle is the saturated, "no memory operation outstanding" value of
// the pipeline cycle counter.
const idleCycle = 0xFFFF

// maxActiveCycles is how many cycles after LOAD_MAR the pipeline stays
// active before it is forced back to idle.
const maxActiveCycles = 10

// Memory is the main-memory subsystem. All fields are exported because the
// CPU core (package hardware/cpu) reads and writes them directly as part
// of one cycle's bus/write-back stages; Memory itself only owns the
// storage and the pipeline bookkeeping.
type Memory struct {
	banks [NumBanks][]uint16

	// XMBanks holds the extended-memory bank register per task: low 2
	// bits = extended bank, next 2 bits = normal bank, and the upper 12
	// bits read back as all-ones.
	XMBanks [sys.NumTasks]uint16

	// MemCycle counts cycles since the most recent LOAD_MAR; idleCycle
	// when no memory operation is outstanding.
	MemCycle uint16

	// MemTask is the task that issued the outstanding memory operation.
	MemTask sys.Task

	// MemLow/MemHigh are the two words fetched by the outstanding
	// operation (paired low/high addresses), valid while MemCycle <=
	// maxActiveCycles.
	MemLow, MemHigh uint16

	// MemExtended records whether the outstanding operation addresses
	// extended memory. LOAD_MAR starts the operation with it false; on an
	// Alto II the CPU sets it when STORE_MD runs.
	MemExtended bool

	// MemWhich toggles between low and high word on each READ_MD bus
	// access.
	MemWhich bool

	// MAR is the memory address register.
	MAR uint16
}

// New allocates four zeroed 64K-word banks and an idle pipeline.
func New() *Memory {
	m := &Memory{MemCycle: idleCycle}
	for i := range m.banks {
		m.banks[i] = make([]uint16, bankWords)
	}
	return m
}

// Reset clears the pipeline state but leaves bank contents untouched -
// main memory survives a CPU reset on real hardware.
func (m *Memory) Reset() {
	m.MemCycle = idleCycle
	m.MemLow = 0
	m.MemHigh = 0
	m.MemExtended = false
	m.MemWhich = false
	m.MAR = 0
}

// NormalBank returns the normal-memory bank index for task.
func (m *Memory) NormalBank(task sys.Task) int {
	return int((m.XMBanks[task] >> 2) & 0x3)
}

// ExtendedBank returns the extended-memory bank index for task.
func (m *Memory) ExtendedBank(task sys.Task) int {
	return int(m.XMBanks[task] & 0x3)
}

// ReadXMBanks returns the per-task extended-memory bank register with the
// upper 12 bits forced to one, as required when read by microcode.
func (m *Memory) ReadXMBanks(task sys.Task) uint16 {
	return (m.XMBanks[task] & 0xF) | 0xFFF0
}

// bank resolves which of the four banks an access belongs to.
func (m *Memory) bank(task sys.Task, extended bool) []uint16 {
	if extended {
		return m.banks[m.ExtendedBank(task)]
	}
	return m.banks[m.NormalBank(task)]
}

// Peek reads one word without affecting pipeline state - used by the
// debugger and the simulator's register dump, never by the datapath
// itself.
func (m *Memory) Peek(task sys.Task, extended bool, addr uint16) uint16 {
	return m.bank(task, extended)[addr]
}

// Poke writes one word without affecting pipeline state.
func (m *Memory) Poke(task sys.Task, extended bool, addr uint16, value uint16) {
	m.bank(task, extended)[addr] = value
}

// StartCycle implements F1=LOAD_MAR's memory-side effect: loads MAR,
// immediately reads both the low and high words of the pair, and resets
// the pipeline cycle counter to zero (the caller's task-switch step then
// advances it to one).
//
// pairAddr is the already-computed paired address (addr|1 on Alto I,
// addr^1 on Alto II); the caller is responsible for computing it
// according to system type.
func (m *Memory) StartCycle(task sys.Task, extended bool, addr, pairAddr uint16) {
	m.MAR = addr
	m.MemTask = task
	m.MemExtended = extended
	m.MemCycle = 0
	m.MemWhich = false

	bank := m.bank(task, extended)
	if addr < pairAddr {
		m.MemLow, m.MemHigh = bank[addr], bank[pairAddr]
	} else {
		m.MemLow, m.MemHigh = bank[pairAddr], bank[addr]
	}
}

// StoreMD implements F2=STORE_MD: writes bus to mar or to
// its paired address depending on MemWhich and system type. storeAddr is
// the already-resolved target (mar or mar^1/mar|1) computed by the
// caller.
func (m *Memory) StoreMD(storeAddr uint16, value uint16) {
	bank := m.bank(m.MemTask, m.MemExtended)
	bank[storeAddr] = value
	if storeAddr < m.MAR {
		m.MemLow = value
	} else {
		m.MemHigh = value
	}
}

// Tick advances the pipeline cycle counter by one, saturating to idle
// once the pipeline has been active for more than maxActiveCycles cycles.
// It is called once per CPU cycle regardless of whether this cycle's
// instruction touched memory.
func (m *Memory) Tick() {
	if m.MemCycle == idleCycle {
		return
	}
	if m.MemCycle >= maxActiveCycles {
		m.MemCycle = idleCycle
		return
	}
	m.MemCycle++
}

// Active reports whether a memory operation's two words are still valid
// for READ_MD.
func (m *Memory) Active() bool {
	return m.MemCycle != idleCycle && m.MemCycle <= maxActiveCycles
}

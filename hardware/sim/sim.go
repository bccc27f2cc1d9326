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

// Package sim assembles a complete Alto: the CPU core, main memory, and
// the five peripheral controllers, wired together behind the narrow
// interfaces the CPU core depends on (alu.Peripherals, cpu.EmulatorExtras).
// This is the package cmd/psim drives directly.
package sim

import (
	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/hardware/cpu"
	"github.com/petersieg/palo/hardware/mc"
	"github.com/petersieg/palo/hardware/memory"
	"github.com/petersieg/palo/hardware/peripherals/disk"
	"github.com/petersieg/palo/hardware/peripherals/display"
	"github.com/petersieg/palo/hardware/peripherals/ethernet"
	"github.com/petersieg/palo/hardware/peripherals/keyboard"
	"github.com/petersieg/palo/hardware/peripherals/mouse"
	"github.com/petersieg/palo/hardware/rom"
	"github.com/petersieg/palo/hardware/sys"
)

// Simulator owns every piece of a running Alto and is the sole point of
// contact between the datapath and its peripherals.
type Simulator struct {
	Env *environment.Environment
	Mem *memory.Memory
	CPU *cpu.CPU

	Disk     *disk.Controller
	Ethernet *ethernet.Controller
	Display  *display.Controller
	Keyboard *keyboard.Controller
	Mouse    *mouse.Controller
}

// New assembles a Simulator. The CPU is constructed with this Simulator
// as both its alu.Peripherals and its cpu.EmulatorExtras.
func New(env *environment.Environment) *Simulator {
	s := &Simulator{
		Env:      env,
		Mem:      memory.New(),
		Disk:     disk.New(),
		Ethernet: ethernet.New(),
		Display:  display.New(),
		Keyboard: keyboard.New(),
		Mouse:    mouse.New(),
	}
	s.CPU = cpu.New(env, s.Mem, s, s)
	return s
}

// Reset restores the CPU, memory pipeline and every peripheral to their
// post-power-up state. Main memory contents and ROM images survive.
func (s *Simulator) Reset() {
	s.CPU.Reset()
	s.Disk.Reset()
	s.Display.Reset()
	s.Keyboard.Reset()
	s.Ethernet.Reset()
	s.Mouse.Reset()
}

// LoadConstantROM installs the constant ROM contents.
func (s *Simulator) LoadConstantROM(words [rom.ConstantSize]uint16) {
	s.CPU.ConstantROM = words
}

// LoadMicrocodeROM installs one bank's worth of microcode (0 or 1).
func (s *Simulator) LoadMicrocodeROM(bank int, words [rom.MicrocodeSize]uint32) {
	s.CPU.Microcode[bank&0x1] = words
}

// Step advances every peripheral by one cycle, folds in any resulting
// task wake signals, latches the live mouse state, and finally steps the
// CPU core.
func (s *Simulator) Step() error {
	diskWake := s.Disk.Tick()
	dispWake := s.Display.Tick()
	ethWake := s.Ethernet.Tick()

	if diskWake.Sector {
		s.CPU.Pending |= 1 << sys.TaskDiskSector
	}
	if diskWake.Word {
		s.CPU.Pending |= 1 << sys.TaskDiskWord
	}
	if dispWake.Word {
		s.CPU.Pending |= 1 << sys.TaskDisplayWord
	}
	if dispWake.Cursor {
		s.CPU.Pending |= 1 << sys.TaskDisplayCursor
	}
	if dispWake.Vert {
		s.CPU.Pending |= 1 << sys.TaskDisplayVert
	}
	if ethWake {
		s.CPU.Pending |= 1 << sys.TaskEthernet
	}

	s.CPU.SetMouseBits(s.Mouse.Bits())
	s.CPU.S[0][0] = s.Keyboard.Word(0)
	s.CPU.S[0][1] = s.Keyboard.Word(1)
	s.CPU.S[0][2] = s.Keyboard.Word(2)
	s.CPU.S[0][3] = s.Keyboard.Word(3)

	return s.CPU.Step()
}

// DiskReadKStat satisfies alu.Peripherals.
func (s *Simulator) DiskReadKStat() uint16 { return s.Disk.ReadKStat() }

// DiskReadKData satisfies alu.Peripherals.
func (s *Simulator) DiskReadKData() uint16 { return s.Disk.ReadKData() }

// EthEIDFCT satisfies alu.Peripherals.
func (s *Simulator) EthEIDFCT() uint16 { return s.Ethernet.EthEIDFCT() }

// TaskSpecialWrite satisfies alu.Peripherals, routing a task-specific
// register write to the controller that owns task.
func (s *Simulator) TaskSpecialWrite(task sys.Task, rsel int, value uint16) {
	switch task {
	case sys.TaskDiskSector, sys.TaskDiskWord:
		s.Disk.Write(rsel, value)
	case sys.TaskEthernet:
		s.Ethernet.Write(rsel, value)
	case sys.TaskDisplayWord, sys.TaskDisplayCursor, sys.TaskDisplayVert:
		s.Display.Write(rsel, value)
	}
}

// EthernetAddressHigh satisfies cpu.EmulatorExtras.
func (s *Simulator) EthernetAddressHigh() uint16 { return s.Ethernet.EthernetAddressHigh() }

// StartF satisfies cpu.EmulatorExtras, routing an emulator STARTF command
// to the controller that owns task.
func (s *Simulator) StartF(task sys.Task, command uint16) {
	switch task {
	case sys.TaskDiskSector, sys.TaskDiskWord:
		s.Disk.StartF(command)
	case sys.TaskEthernet:
		s.Ethernet.StartF(command)
	case sys.TaskDisplayWord, sys.TaskDisplayCursor, sys.TaskDisplayVert:
		s.Display.StartF(command)
	}
}

// Disassemble decodes one raw microinstruction word into a short,
// human-readable mnemonic line.
func (s *Simulator) Disassemble(mir uint32, task sys.Task) (string, error) {
	m, err := mc.Predecode(s.Env, 0, mir, task)
	if err != nil {
		return "", err
	}
	return disassemble(m), nil
}

// DumpRegisters renders the CPU's working registers and flags, used by
// the GUI façade's debugger overlay.
func (s *Simulator) DumpRegisters() string {
	return dumpRegisters(s.CPU)
}

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

package alu

import (
	"github.com/petersieg/palo/hardware/mc"
	"github.com/petersieg/palo/hardware/sys"
)

// Peripherals is the minimal read surface the bus-source stage needs from
// the disk and Ethernet controllers for the task-specific BS codes
// (DSK_READ_KSTAT, DSK_READ_KDATA, ETH_EIDFCT). Satisfied by
// hardware/peripherals/disk.Controller and hardware/peripherals/ethernet.Controller.
type Peripherals interface {
	DiskReadKStat() uint16
	DiskReadKData() uint16
	EthEIDFCT() uint16

	// TaskSpecialWrite commits a bus value to whichever register RSEL
	// selects in the owning task's controller. This is the write-side
	// counterpart of BS_TASK_SPECIAL1/2: rather than enumerate the full
	// per-task F2 alphabet (STROBE, LOAD_KSTAT, LOAD_KDATA, LOAD_KCOM,
	// LOAD_KADR, INCRECNO, CLRSTAT, ...) as distinct microcode fields,
	// every task-specific register load is dispatched through one F2
	// code keyed by RSEL.
	TaskSpecialWrite(task sys.Task, rsel int, value uint16)
}

// RegisterFile is the minimal read/write surface onto the R file needed to
// resolve BS_READ_R.
type RegisterFile interface {
	Read(rsel int) uint16
}

// SRegisterFile resolves the task-specific BS_TASK_SPECIAL codes for RAM
// tasks (RAM_READ_S_LOCATION / RAM_LOAD_S_LOCATION).
type SRegisterFile interface {
	ReadS(bank, rsel int) uint16
}

// Sources bundles every input the bus-source stage may need to read from:
// the R and S register files, the peripheral read surface, the
// instruction register, and the memory pipeline's two latched words.
type Sources struct {
	R  RegisterFile
	S  SRegisterFile
	P  Peripherals
	IR uint16

	MemLow, MemHigh uint16
	MemWhich        *bool // toggled on every READ_MD access

	MouseBits uint16

	SBank int // the current task's S-register bank
}

// ModifiedRSEL applies the emulator task's RSEL override: F2 codes
// ACSOURCE / ACDEST / LOAD_DNS overwrite the low two bits of RSEL with
// bits derived from IR.
func ModifiedRSEL(ctask sys.Task, f2 mc.F2, rsel int, ir uint16) int {
	if ctask != sys.TaskEmulator {
		return rsel
	}
	switch f2 {
	case mc.F2ACSource:
		return (rsel &^ 0x3) | int(^(ir>>13)&0x3)
	case mc.F2ACDest, mc.F2LoadDNS:
		return (rsel &^ 0x3) | int(^(ir>>11)&0x3)
	default:
		return rsel
	}
}

// Select resolves a bus source to its 16-bit value. The constant-ROM
// contribution is NOT applied here - the CPU core ANDs it in separately
// per the wired-AND bus model once the constant ROM value is available
// to it.
func Select(ctask sys.Task, bs mc.BS, rsel int, src Sources) uint16 {
	switch bs {
	case mc.BsReadR:
		return src.R.Read(rsel)
	case mc.BsLoadR:
		return 0
	case mc.BsReadMD:
		if src.MemWhich != nil && *src.MemWhich {
			*src.MemWhich = false
			return src.MemHigh
		}
		if src.MemWhich != nil {
			*src.MemWhich = true
		}
		return src.MemLow
	case mc.BsReadMouse:
		return src.MouseBits & 0xFFF0
	case mc.BsReadDisp:
		if src.IR&0x8000 != 0 {
			return 0xFF00 | (src.IR & 0xFF)
		}
		return src.IR & 0xFF
	case mc.BsTaskSpecial1:
		return taskSpecial1(ctask, rsel, src)
	case mc.BsTaskSpecial2:
		return taskSpecial2(ctask, rsel, src)
	default: // mc.BsNone
		return 0xFFFF
	}
}

func taskSpecial1(ctask sys.Task, rsel int, src Sources) uint16 {
	switch ctask {
	case sys.TaskEthernet:
		if src.P != nil {
			return src.P.EthEIDFCT()
		}
	case sys.TaskDiskSector, sys.TaskDiskWord:
		if src.P != nil {
			return src.P.DiskReadKStat()
		}
	default:
		if src.S != nil {
			return src.S.ReadS(src.SBank, rsel)
		}
	}
	return 0xFFFF
}

func taskSpecial2(ctask sys.Task, rsel int, src Sources) uint16 {
	switch ctask {
	case sys.TaskDiskSector, sys.TaskDiskWord:
		if src.P != nil {
			return src.P.DiskReadKData()
		}
	default:
		if src.S != nil {
			return src.S.ReadS(src.SBank, rsel)
		}
	}
	return 0xFFFF
}

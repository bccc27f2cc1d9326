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

// Package alu implements the pure combinational datapath primitives shared
// by every task: the ALU opcode table, the shifter, and bus-source
// selection. Nothing here touches CPU state directly;
// every function takes its inputs as arguments and returns its outputs,
// so it can be unit tested in isolation and reused unchanged by every
// task's cycle.
package alu

import (
	"github.com/petersieg/palo/hardware/mc"
	"github.com/petersieg/palo/palerr"
)

// Result is the outcome of one ALU evaluation.
type Result struct {
	Value uint16
	Carry bool
}

// Compute evaluates the ALU opcode table. Carry-out is bit
// 16 of the 17-bit computation. An undefined opcode (14 or 15) is a fatal
// CPU error. skip is the CPU's skip flip-flop, consumed only by
// BUS_PLUS_SKIP.
func Compute(op mc.ALUF, bus, t uint16, skip bool) (Result, error) {
	if !op.Defined() {
		return Result{}, palerr.Newf(palerr.Programmer, "alu: undefined opcode %d", op)
	}

	var wide uint32

	switch op {
	case mc.AluBus:
		wide = uint32(bus)
	case mc.AluT:
		wide = uint32(t)
	case mc.AluBusOrT:
		wide = uint32(bus | t)
	case mc.AluBusAndT, mc.AluBusAndTWB:
		wide = uint32(bus & t)
	case mc.AluBusXorT:
		wide = uint32(bus ^ t)
	case mc.AluBusPlus1:
		wide = uint32(bus) + 1
	case mc.AluBusMinus1:
		wide = uint32(bus) + 0xFFFF // bus - 1, mod 2^17 via two's complement add
	case mc.AluBusPlusT:
		wide = uint32(bus) + uint32(t)
	case mc.AluBusMinusT:
		wide = uint32(bus) + uint32(^t) + 1
	case mc.AluBusMinusTMinus1:
		wide = uint32(bus) + uint32(^t)
	case mc.AluBusPlusTPlus1:
		wide = uint32(bus) + uint32(t) + 1
	case mc.AluBusPlusSkip:
		if skip {
			wide = uint32(bus) + 1
		} else {
			wide = uint32(bus)
		}
	case mc.AluBusAndNotT:
		wide = uint32(bus &^ t)
	}

	return Result{
		Value: uint16(wide),
		Carry: wide&0x10000 != 0,
	}, nil
}

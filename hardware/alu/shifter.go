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

import "github.com/petersieg/palo/hardware/mc"

// ShifterInput bundles the values the shifter needs beyond the F1 code
// itself.
type ShifterInput struct {
	L     uint16
	T     uint16
	Carry bool // the nova-style carry flag, valid when Dns or Magic is set
	Dns   bool
	Magic bool // F2 == MAGIC
}

// ShifterOutput is the shifted value of L plus the updated nova carry,
// which is only meaningful when the nova/dns injection path was taken.
type ShifterOutput struct {
	L     uint16
	Carry bool
}

// Shift implements the shifter. F1 values other than
// LLSH1, LRSH1 and LLCY8 pass L through unchanged.
//
// The shifter's three F1 codes are universal (not task-specific) on real
// Alto hardware, reserved out of the same 4-bit F1 space as the
// emulator-only and RAM-task-only codes in package mc. They are kept
// local to the shifter because no other stage interprets them.
const (
	llsh1 mc.F1 = 13
	lrsh1 mc.F1 = 14
	llcy8 mc.F1 = 15
)

func Shift(f1 mc.F1, in ShifterInput) ShifterOutput {
	switch f1 {
	case llsh1:
		return llsh1Shift(in)
	case lrsh1:
		return lrsh1Shift(in)
	case llcy8:
		return ShifterOutput{L: llcy8Rotate(in.L), Carry: in.Carry}
	default:
		return ShifterOutput{L: in.L, Carry: in.Carry}
	}
}

func llsh1Shift(in ShifterInput) ShifterOutput {
	injected := uint16(0)
	newCarry := in.Carry
	if in.Magic {
		injected = (in.T >> 15) & 1
	} else if in.Dns {
		if in.Carry {
			injected = 1
		}
		newCarry = (in.L>>15)&1 != 0
	}
	return ShifterOutput{L: (in.L << 1) | injected, Carry: newCarry}
}

func lrsh1Shift(in ShifterInput) ShifterOutput {
	injected := uint16(0)
	newCarry := in.Carry
	if in.Magic {
		injected = (in.T & 1) << 15
	} else if in.Dns {
		if in.Carry {
			injected = 1 << 15
		}
		newCarry = in.L&1 != 0
	}
	return ShifterOutput{L: (in.L >> 1) | injected, Carry: newCarry}
}

func llcy8Rotate(l uint16) uint16 {
	return (l << 8) | (l >> 8)
}

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

package alu_test

import (
	"testing"

	"github.com/petersieg/palo/hardware/alu"
	"github.com/petersieg/palo/hardware/mc"
	"github.com/petersieg/palo/internal/palotest"
)

// TestALURoundTrip checks the three ALU round-trip identities: BUS+T-T,
// BUS&T|BUS&~T, and BUS^T^T all recover BUS.
func TestALURoundTrip(t *testing.T) {
	buses := []uint16{0, 1, 0xFFFF, 0x8000, 0x1234, 0xBEEF}
	ts := []uint16{0, 1, 0xFFFF, 0x00FF, 0xFF00, 0x5A5A}

	for _, bus := range buses {
		for _, tval := range ts {
			sum, err := alu.Compute(mc.AluBusPlusT, bus, tval, false)
			palotest.ExpectSuccess(t, err)
			diff, err := alu.Compute(mc.AluBusMinusT, sum.Value, tval, false)
			palotest.ExpectSuccess(t, err)
			palotest.ExpectEquality(t, diff.Value, bus)

			andT, err := alu.Compute(mc.AluBusAndT, bus, tval, false)
			palotest.ExpectSuccess(t, err)
			andNotT, err := alu.Compute(mc.AluBusAndNotT, bus, tval, false)
			palotest.ExpectSuccess(t, err)
			palotest.ExpectEquality(t, andT.Value|andNotT.Value, bus)

			x1, err := alu.Compute(mc.AluBusXorT, bus, tval, false)
			palotest.ExpectSuccess(t, err)
			x2, err := alu.Compute(mc.AluBusXorT, x1.Value, tval, false)
			palotest.ExpectSuccess(t, err)
			palotest.ExpectEquality(t, x2.Value, bus)
		}
	}
}

func TestALUUndefinedOpcodeIsFatal(t *testing.T) {
	_, err := alu.Compute(mc.ALUF(14), 0, 0, false)
	palotest.ExpectFailure(t, err)
	_, err = alu.Compute(mc.ALUF(15), 0, 0, false)
	palotest.ExpectFailure(t, err)
}

// TestShifterLaws checks two shifter identities. LLCY8 is its own inverse.
// Composing a one-bit right shift with a one-bit left shift, both with
// Dns and Magic false, only ever clears the bit that fell off the low end
// (bit 0); the high end (bit 15) survives unless Dns-style carry chaining
// deliberately discards it, which the plain zero-fill path does not do.
func TestShifterLaws(t *testing.T) {
	vals := []uint16{0, 1, 0xFFFF, 0x8001, 0x4000, 0x5A5A, 0xA5A5}

	for _, l := range vals {
		cy1 := alu.Shift(15, alu.ShifterInput{L: l})
		cy2 := alu.Shift(15, alu.ShifterInput{L: cy1.L})
		palotest.ExpectEquality(t, cy2.L, l)

		right := alu.Shift(14, alu.ShifterInput{L: l})
		left := alu.Shift(13, alu.ShifterInput{L: right.L})
		palotest.ExpectEquality(t, left.L, l&0xFFFE)
	}
}

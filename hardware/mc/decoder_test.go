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

package mc_test

import (
	"math"
	"testing"

	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/hardware/mc"
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/internal/palotest"
)

// TestPredecodeTotal sweeps a representative set of MIR values against
// every task 0..15 and checks Predecode always returns a well-defined
// structure and never errors.
func TestPredecodeTotal(t *testing.T) {
	env := environment.New(environment.AltoII3K, nil)

	samples := []uint32{
		0,
		math.MaxUint32,
		0x12345678,
		0xFFFF0000,
		0x0000FFFF,
	}

	for _, mir := range samples {
		for task := 0; task < sys.NumTasks; task++ {
			got, err := mc.Predecode(env, 0, mir, sys.Task(task))
			palotest.ExpectSuccess(t, err)
			if got.RSEL < 0 || got.RSEL > 31 {
				t.Errorf("RSEL out of range: %d", got.RSEL)
			}
			if got.Next < 0 || got.Next > 0x3FF {
				t.Errorf("Next out of range: %d", got.Next)
			}
		}
	}
}

func TestPredecodeRejectsOutOfRangeTask(t *testing.T) {
	env := environment.New(environment.AltoII3K, nil)
	_, err := mc.Predecode(env, 0, 0, sys.Task(16))
	palotest.ExpectFailure(t, err)
}

func TestPredecodeFieldExtraction(t *testing.T) {
	env := environment.New(environment.AltoII1K, nil)

	// RSEL=0b10101 (0x15), ALUF=0b0110, BS=0b011, F1=0b0010, F2=0b0101,
	// T=1, L=0, NEXT=0b1010101010
	mir := uint32(0x15)<<27 | uint32(0x6)<<23 | uint32(0x3)<<20 | uint32(0x2)<<16 | uint32(0x5)<<12 | 1<<11 | 0<<10 | 0x2AA

	got, err := mc.Predecode(env, 0, mir, sys.TaskEmulator)
	palotest.ExpectSuccess(t, err)
	palotest.ExpectEquality(t, got.RSEL, 0x15)
	palotest.ExpectEquality(t, got.ALUF, mc.ALUF(0x6))
	palotest.ExpectEquality(t, got.BS, mc.BS(0x3))
	palotest.ExpectEquality(t, got.F1, mc.F1(0x2))
	palotest.ExpectEquality(t, got.F2, mc.F2(0x5))
	palotest.ExpectEquality(t, got.LoadT, true)
	palotest.ExpectEquality(t, got.LoadL, false)
	palotest.ExpectEquality(t, got.Next, 0x2AA)
	palotest.ExpectEquality(t, got.RAMTask, false)
}

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

package memory_test

import (
	"testing"

	"github.com/petersieg/palo/hardware/memory"
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/internal/palotest"
)

// TestMemoryPipeline drives LOAD_MAR followed by a run of READ_MD cycles
// and checks the pipeline stays active for exactly ten cycles.
func TestMemoryPipeline(t *testing.T) {
	m := memory.New()

	m.Poke(sys.TaskEmulator, false, 0o100, 0xAAAA)
	m.Poke(sys.TaskEmulator, false, 0o101, 0x5555)

	m.StartCycle(sys.TaskEmulator, false, 0o100, 0o101)
	palotest.ExpectEquality(t, m.MemLow, uint16(0xAAAA))
	palotest.ExpectEquality(t, m.MemHigh, uint16(0x5555))
	palotest.ExpectEquality(t, m.Active(), true)

	for i := 0; i < maxActiveCyclesForTest; i++ {
		palotest.ExpectEquality(t, m.Active(), true)
		m.Tick()
	}
	palotest.ExpectEquality(t, m.Active(), true) // cycle is now exactly 10, still active
	m.Tick()
	palotest.ExpectEquality(t, m.Active(), false)
}

const maxActiveCyclesForTest = 10

func TestXMBanksUpperBitsForcedToOne(t *testing.T) {
	m := memory.New()
	m.XMBanks[sys.TaskEmulator] = 0x5 // low nibble only
	got := m.ReadXMBanks(sys.TaskEmulator)
	palotest.ExpectEquality(t, got>>4, uint16(0xFFF))
	palotest.ExpectEquality(t, got&0xF, uint16(0x5))
}

func TestBankIsolation(t *testing.T) {
	m := memory.New()
	m.XMBanks[sys.TaskEmulator] = 0x0
	m.XMBanks[sys.TaskDiskSector] = 0x4 // normal bank 1 for disk sector task

	m.Poke(sys.TaskEmulator, false, 10, 111)
	m.Poke(sys.TaskDiskSector, false, 10, 222)

	palotest.ExpectEquality(t, m.Peek(sys.TaskEmulator, false, 10), uint16(111))
	palotest.ExpectEquality(t, m.Peek(sys.TaskDiskSector, false, 10), uint16(222))
}

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

package mc

import (
	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/hardware/sys"
	"github.com/petersieg/palo/palerr"
)

// Predecode consumes the raw 32-bit microinstruction plus the task it will
// execute under, and emits the structured form used by every subsequent
// pipeline stage. It is a pure function: same inputs, same MC, always.
//
// The only failure mode is a programmer error: an out-of-range task for
// the given system type. Every other combination of bits is well-defined,
// even if a particular task will never legally see it.
func Predecode(env *environment.Environment, mpc int, mir uint32, ctask sys.Task) (MC, error) {
	if !ctask.Valid() {
		return MC{}, palerr.Newf(palerr.Programmer, "predecode: task %d out of range", ctask)
	}

	m := MC{
		RSEL:  int(mir>>rselShift) & rselMask,
		ALUF:  ALUF(int(mir>>alufShift) & alufMask),
		BS:    BS(int(mir>>bsShift) & bsMask),
		F1:    F1(int(mir>>f1Shift) & f1Mask),
		F2:    F2(int(mir>>f2Shift) & f2Mask),
		LoadT: mir&(1<<loadTBit) != 0,
		LoadL: mir&(1<<loadLBit) != 0,
		Next:  int(mir) & nextMask,
	}

	m.UseConstant = m.F1 == F1Constant || m.F2 == F2ACSource || m.F2 == F2ACDest
	m.BSUseCROM = m.UseConstant && m.BS != BsReadR && m.BS != BsLoadR
	m.ConstAddr = m.RSEL

	m.RAMTask = env.Is3K()

	return m, nil
}

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

package sim

import (
	"fmt"
	"strings"

	"github.com/petersieg/palo/hardware/cpu"
	"github.com/petersieg/palo/hardware/mc"
)

var alufNames = [...]string{
	"BUS", "T", "BUS OR T", "BUS AND T", "BUS XOR T", "BUS+1", "BUS-1",
	"BUS+T", "BUS-T", "BUS-T-1", "BUS+T+1", "BUS+SKIP", "BUS AND NOT T",
	"BUS AND T WB",
}

var bsNames = [...]string{
	"READ_R", "LOAD_R", "NONE", "READ_MD", "READ_MOUSE", "READ_DISP",
	"TASK_SPECIAL_1", "TASK_SPECIAL_2",
}

var f1Names = [...]string{
	"", "CONSTANT", "LOAD_MAR", "TASK", "BLOCK", "RAM_SWMODE",
	"RAM_WRTRAM", "RAM_RDRAM", "RAM_LOAD_SRB", "LOAD_RMR", "LOAD_ESRB",
	"RSNF", "STARTF",
}

var f2Names = [...]string{
	"", "BUS=0", "SH<0", "SH=0", "BUS", "ALUCY", "STORE_MD", "LOAD_IR",
	"BUS_ODD", "LOAD_DNS", "IDISP", "ACSOURCE", "ACDEST", "MAGIC",
	"TASK_SPECIAL",
}

func name(table []string, i int) string {
	if i < 0 || i >= len(table) || table[i] == "" {
		return fmt.Sprintf("?%d", i)
	}
	return table[i]
}

// disassemble renders one predecoded microinstruction as a short,
// space-separated mnemonic line: ALUF, BS, F1 and F2 only when they are
// not the all-zero no-op value, plus the RSEL and NEXT fields.
func disassemble(m mc.MC) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("R%d", m.RSEL))
	parts = append(parts, name(alufNames[:], int(m.ALUF)))
	if m.BS != mc.BsReadR {
		parts = append(parts, name(bsNames[:], int(m.BS)))
	}
	if m.F1 != mc.F1None {
		parts = append(parts, name(f1Names[:], int(m.F1)))
	}
	if m.F2 != mc.F2None {
		parts = append(parts, name(f2Names[:], int(m.F2)))
	}
	if m.LoadT {
		parts = append(parts, "T<-")
	}
	if m.LoadL {
		parts = append(parts, "L<-")
	}
	parts = append(parts, fmt.Sprintf("NEXT=%03o", m.Next))
	return strings.Join(parts, " ")
}

// dumpRegisters renders the CPU's full visible register set as a
// multi-line report, one logical group per line.
func dumpRegisters(c *cpu.CPU) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycle=%d ctask=%s ntask=%s pending=%04x\n", c.Cycle, c.CTask, c.NTask, c.Pending)
	fmt.Fprintf(&b, "t=%04x l=%04x m=%04x ir=%04x\n", c.T, c.L, c.M, c.IR)
	fmt.Fprintf(&b, "aluCarry=%t skip=%t carry=%t dns=%t\n", c.ALUCarry, c.Skip, c.Carry, c.Dns)
	fmt.Fprintf(&b, "esrb=%o rmr=%04x microcodeBank=%d\n", c.ESRB, c.RMR, c.MicrocodeBank)
	if c.Err != nil {
		fmt.Fprintf(&b, "halted: %v\n", c.Err)
	}
	return b.String()
}

// This file is part of dwarfrefine.
//
// dwarfrefine is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// dwarfrefine is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with dwarfrefine.  If not, see <https://www.gnu.org/licenses/>.

// Package locexpr covers the two DWARF expression-level components of
// spec.md: classifying an existing expression as const-or-not (§4.3, Core A)
// and parsing the rewriter's small postfix expression language into a DWARF
// stack-machine byte program (§4.4, Core B).
package locexpr

// Opcode is a DW_OP_* byte, named the way the DWARF4 standard names them.
type Opcode byte

const (
	opAddr      Opcode = 0x03
	opConst1u   Opcode = 0x08
	opConst1s   Opcode = 0x09
	opConst2u   Opcode = 0x0a
	opConst2s   Opcode = 0x0b
	opConst4u   Opcode = 0x0c
	opConst4s   Opcode = 0x0d
	opConst8u   Opcode = 0x0e
	opConst8s   Opcode = 0x0f
	opConstu    Opcode = 0x10
	opConsts    Opcode = 0x11
	opDiv       Opcode = 0x1b
	opMinus     Opcode = 0x1c
	opMod       Opcode = 0x1d
	opMul       Opcode = 0x1e
	opPlus      Opcode = 0x22
	opBreg0     Opcode = 0x70
	opStackValu Opcode = 0x9f
)

// StackValue is the opcode the parser appends to every emitted expression,
// and the opcode classification looks for as the second operation.
const StackValue = opStackValu

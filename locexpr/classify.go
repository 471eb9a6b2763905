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

package locexpr

import "github.com/jsimonetti/dwarfrefine/objfile/leb128"

// IsConst classifies a raw DWARF expression per spec.md §4.3: only the first
// two operations matter. The expression is const-only iff the first
// operation is one of the SignedConstant/UnsignedConstant family and the
// second, immediately following, operation is StackValue. Anything else —
// including a too-short expression — is not const.
func IsConst(expr []byte) bool {
	if len(expr) == 0 {
		return false
	}

	op1 := Opcode(expr[0])
	rest := expr[1:]

	size, ok := constOperandSize(op1, rest)
	if !ok {
		return false
	}
	if len(rest) < size {
		return false
	}
	rest = rest[size:]

	if len(rest) == 0 {
		return false
	}
	return Opcode(rest[0]) == opStackValu
}

// constOperandSize returns how many bytes of rest are consumed by op's
// operand, and whether op belongs to the const-opcode family at all.
func constOperandSize(op Opcode, rest []byte) (int, bool) {
	switch op {
	case opConst1u, opConst1s:
		return 1, true
	case opConst2u, opConst2s:
		return 2, true
	case opConst4u, opConst4s:
		return 4, true
	case opConst8u, opConst8s:
		return 8, true
	case opConstu:
		_, n := leb128.DecodeULEB128(rest)
		return n, true
	case opConsts:
		_, n := leb128.DecodeSLEB128(rest)
		return n, true
	default:
		return 0, false
	}
}

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

package locexpr_test

import (
	"testing"

	"github.com/jsimonetti/dwarfrefine/locexpr"
	"github.com/jsimonetti/dwarfrefine/objfile/leb128"
	"github.com/jsimonetti/dwarfrefine/test"
)

func TestIsConstEmpty(t *testing.T) {
	test.ExpectEquality(t, locexpr.IsConst(nil), false)
	test.ExpectEquality(t, locexpr.IsConst([]byte{}), false)
}

func TestIsConstSimpleForms(t *testing.T) {
	// DW_OP_const1u 5, DW_OP_stack_value
	test.ExpectEquality(t, locexpr.IsConst([]byte{0x08, 0x05, 0x9f}), true)

	// DW_OP_const4s -1, DW_OP_stack_value
	test.ExpectEquality(t, locexpr.IsConst([]byte{0x0d, 0xff, 0xff, 0xff, 0xff, 0x9f}), true)
}

func TestIsConstULEBForm(t *testing.T) {
	var expr []byte
	expr = append(expr, 0x10) // DW_OP_constu
	expr = leb128.EncodeULEB128(expr, 300)
	expr = append(expr, 0x9f) // DW_OP_stack_value
	test.ExpectEquality(t, locexpr.IsConst(expr), true)
}

func TestIsConstNotStackValue(t *testing.T) {
	// DW_OP_const1u 5, then something other than DW_OP_stack_value
	test.ExpectEquality(t, locexpr.IsConst([]byte{0x08, 0x05, 0x22}), false)
}

func TestIsConstNotAConstOpcode(t *testing.T) {
	// DW_OP_plus alone is not a const-family opcode at all
	test.ExpectEquality(t, locexpr.IsConst([]byte{0x22}), false)
}

func TestIsConstTruncatedOperand(t *testing.T) {
	// DW_OP_const4u claims 4 operand bytes but only 2 are present
	test.ExpectEquality(t, locexpr.IsConst([]byte{0x0c, 0x01, 0x02}), false)
}

func TestIsConstMissingStackValue(t *testing.T) {
	// a well-formed const operand with nothing following it at all
	test.ExpectEquality(t, locexpr.IsConst([]byte{0x08, 0x05}), false)
}

// a register-based expression (DW_OP_bregN(0), DW_OP_stack_value) is never
// const, regardless of the trailing stack_value, since its first opcode
// isn't in the const family.
func TestIsConstRegisterExpression(t *testing.T) {
	expr, err := locexpr.Parse("%eax")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, locexpr.IsConst(expr), false)
}

// a parsed integer-literal expression always classifies as const, since
// Parse always emits DW_OP_consts <value> DW_OP_stack_value for a bare
// numeric token.
func TestIsConstRoundTripsWithParse(t *testing.T) {
	expr, err := locexpr.Parse("42")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, locexpr.IsConst(expr), true)
}

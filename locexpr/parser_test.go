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
	"github.com/jsimonetti/dwarfrefine/test"
)

func TestParseIntegerLiteral(t *testing.T) {
	expr, err := locexpr.Parse("42")
	test.ExpectSuccess(t, err)
	// DW_OP_consts 42, DW_OP_stack_value
	test.ExpectEquality(t, len(expr), 3)
	test.ExpectEquality(t, expr[0], byte(0x11))
	test.ExpectEquality(t, expr[len(expr)-1], byte(0x9f))
}

func TestParseNegativeIntegerLiteral(t *testing.T) {
	expr, err := locexpr.Parse("-1")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, expr[0], byte(0x11))
	test.ExpectEquality(t, expr[len(expr)-1], byte(0x9f))
}

func TestParseRegister(t *testing.T) {
	expr, err := locexpr.Parse("%eax")
	test.ExpectSuccess(t, err)
	// DW_OP_breg0(0) for eax (register id 0), DW_OP_stack_value
	test.ExpectEquality(t, expr[0], byte(0x70))
	test.ExpectEquality(t, expr[len(expr)-1], byte(0x9f))
}

func TestParseUnknownRegisterFallsBackToID255(t *testing.T) {
	expr, err := locexpr.Parse("%notaregister")
	test.ExpectSuccess(t, err)
	// DW_OP_bregx, ULEB128(255) = 0xff 0x01, SLEB128(0)
	test.ExpectEquality(t, expr[0], byte(0x92))
	test.ExpectEquality(t, expr[1], byte(0xff))
	test.ExpectEquality(t, expr[2], byte(0x01))
}

func TestParseXMMRegister(t *testing.T) {
	expr, err := locexpr.Parse("%xmm3")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, expr[0], byte(0x70+21+3))
}

func TestParseArithmetic(t *testing.T) {
	expr, err := locexpr.Parse("%eax 4 +")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, expr[len(expr)-2], byte(0x22)) // DW_OP_plus
	test.ExpectEquality(t, expr[len(expr)-1], byte(0x9f)) // DW_OP_stack_value
}

func TestParseAllArithmeticOperators(t *testing.T) {
	// A bare "%" is the modulo operator; only "%<name>" is a register.
	for tok, op := range map[string]byte{
		"+": 0x22, "-": 0x1c, "*": 0x1e, "/": 0x1b, "%": 0x1d,
	} {
		expr, err := locexpr.Parse("1 2 " + tok)
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, expr[len(expr)-2], op)
	}
}

func TestParseRejectsUnrecognisedToken(t *testing.T) {
	_, err := locexpr.Parse("not_a_number_or_operator")
	test.ExpectFailure(t, err)
}

func TestParseEmptyExpressionIsJustStackValue(t *testing.T) {
	expr, err := locexpr.Parse("")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, len(expr), 1)
	test.ExpectEquality(t, expr[0], byte(0x9f))
}

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

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jsimonetti/dwarfrefine/objfile/leb128"
)

// registers maps the register names the rewrite script uses (spec.md §4.4)
// to their DWARF register numbers. Unknown names map to 255, matching the
// original tool's "reject later" behaviour rather than failing the parse
// immediately.
var registers = map[string]int{
	"eax": 0, "ecx": 1, "edx": 2, "ebx": 3,
	"esp": 4, "ebp": 5, "esi": 6, "edi": 7,
	"es": 40, "cs": 41, "ss": 42, "ds": 43, "fs": 44, "gs": 45,
}

func registerID(name string) int {
	if id, ok := registers[name]; ok {
		return id
	}
	if strings.HasPrefix(name, "xmm") {
		if n, err := strconv.Atoi(name[3:]); err == nil {
			return 21 + n
		}
	}
	return 255
}

// Parse turns a whitespace-separated postfix expression (spec.md §4.4) into
// a DWARF stack-machine expression. Recognised tokens:
//
//	%<reg>   -> DW_OP_bregN(0), or DW_OP_bregx(N, 0) for N above 31
//	<int>    -> DW_OP_consts(value)
//	+ - * / % -> the corresponding arithmetic opcode
//
// A trailing DW_OP_stack_value is always appended.
func Parse(expr string) ([]byte, error) {
	var out []byte

	fields := strings.Fields(expr)
	for _, tok := range fields {
		switch {
		case strings.HasPrefix(tok, "%") && tok != "%":
			reg := registerID(tok[1:])
			if reg < 32 {
				out = append(out, byte(opBreg0)+byte(reg))
			} else {
				out = append(out, 0x92) // DW_OP_bregx
				out = leb128.EncodeULEB128(out, uint64(reg))
			}
			out = leb128.EncodeSLEB128(out, 0)

		case tok == "+":
			out = append(out, byte(opPlus))
		case tok == "-":
			out = append(out, byte(opMinus))
		case tok == "*":
			out = append(out, byte(opMul))
		case tok == "/":
			out = append(out, byte(opDiv))
		case tok == "%":
			out = append(out, byte(opMod))

		default:
			v, err := strconv.ParseInt(tok, 0, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "locexpr: unrecognised token %q", tok)
			}
			out = append(out, byte(opConsts))
			out = leb128.EncodeSLEB128(out, v)
		}
	}

	out = append(out, byte(opStackValu))
	return out, nil
}

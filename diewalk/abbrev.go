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

package diewalk

import (
	"debug/dwarf"

	"github.com/jsimonetti/dwarfrefine/objfile/leb128"
)

// form is a DW_FORM_* code. Named internally since the rewriter never needs
// to refer to a form by name once the value is decoded.
type form uint64

const (
	formAddr        form = 0x01
	formBlock2      form = 0x03
	formBlock4      form = 0x04
	formData2       form = 0x05
	formData4       form = 0x06
	formData8       form = 0x07
	formString      form = 0x08
	formBlock       form = 0x09
	formBlock1      form = 0x0a
	formData1       form = 0x0b
	formFlag        form = 0x0c
	formSdata       form = 0x0d
	formStrp        form = 0x0e
	formUdata       form = 0x0f
	formRefAddr     form = 0x10
	formRef1        form = 0x11
	formRef2        form = 0x12
	formRef4        form = 0x13
	formRef8        form = 0x14
	formRefUdata    form = 0x15
	formIndirect    form = 0x16
	formSecOffset   form = 0x17
	formExprloc     form = 0x18
	formFlagPresent form = 0x19
	formStrx        form = 0x1a
	formAddrx       form = 0x1b
	formData16      form = 0x1e
	formLineStrp    form = 0x1f
	formRefSig8     form = 0x20
	formImplicitConst form = 0x21
	formLoclistx    form = 0x22
	formRnglistx    form = 0x23
	formStrx1       form = 0x25
	formStrx2       form = 0x26
	formStrx3       form = 0x27
	formStrx4       form = 0x28
	formAddrx1      form = 0x29
	formAddrx2      form = 0x2a
	formAddrx3      form = 0x2b
	formAddrx4      form = 0x2c
)

type abbrevAttrSpec struct {
	attr          dwarf.Attr
	form          form
	implicitConst int64
}

type abbrevDecl struct {
	tag         dwarf.Tag
	hasChildren bool
	attrs       []abbrevAttrSpec
}

// abbrevTable maps an abbreviation code to its declaration, for one
// compilation unit's .debug_abbrev block.
type abbrevTable map[uint64]*abbrevDecl

// parseAbbrevTable parses the abbreviation declarations starting at offset
// in the .debug_abbrev section, stopping at the 0 terminator.
func parseAbbrevTable(data []byte, offset uint64) abbrevTable {
	table := abbrevTable{}
	if offset >= uint64(len(data)) {
		return table
	}

	b := data[offset:]
	pos := 0

	for pos < len(b) {
		code, n := leb128.DecodeULEB128(b[pos:])
		pos += n
		if code == 0 {
			break
		}

		tag, n := leb128.DecodeULEB128(b[pos:])
		pos += n

		hasChildren := pos < len(b) && b[pos] != 0
		pos++

		decl := &abbrevDecl{tag: dwarf.Tag(tag), hasChildren: hasChildren}

		for pos < len(b) {
			a, n := leb128.DecodeULEB128(b[pos:])
			pos += n
			f, n := leb128.DecodeULEB128(b[pos:])
			pos += n

			if a == 0 && f == 0 {
				break
			}

			spec := abbrevAttrSpec{attr: dwarf.Attr(a), form: form(f)}
			if form(f) == formImplicitConst {
				v, n := leb128.DecodeSLEB128(b[pos:])
				pos += n
				spec.implicitConst = v
			}
			decl.attrs = append(decl.attrs, spec)
		}

		table[code] = decl
	}

	return table
}

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

package objwrite_test

import (
	"encoding/binary"
	"testing"

	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
	"github.com/jsimonetti/dwarfrefine/objwrite"
	"github.com/jsimonetti/dwarfrefine/rewrite"
	"github.com/jsimonetti/dwarfrefine/test"
)

func TestEncodeLocListsAppendsAfterOriginalBytes(t *testing.T) {
	reg := rewrite.NewLocationListRegistry()
	reg.Register([]rewrite.Entry{
		{Begin: 0x10, End: 0x20, BeginAddr: reloc.Constant(0x10), EndAddr: reloc.Constant(0x20), Expr: []byte{0x9f}},
	})

	original := []byte{0xaa, 0xbb}
	data, relocs, offsets := objwrite.EncodeLocLists(original, binary.LittleEndian, 4, reg)

	test.ExpectEquality(t, len(offsets), 1)
	test.ExpectEquality(t, offsets[0], uint64(2))
	test.ExpectEquality(t, len(relocs), 0)
	// original(2) + begin(4) + end(4) + exprlen(2) + expr(1) + terminator(4+4)
	test.ExpectEquality(t, len(data), 21)
	test.ExpectEquality(t, data[0], byte(0xaa))
	test.ExpectEquality(t, data[1], byte(0xbb))
	test.ExpectEquality(t, data[2], byte(0x10))
	test.ExpectEquality(t, data[6], byte(0x20))
	test.ExpectEquality(t, data[10], byte(1)) // expression length low byte
	test.ExpectEquality(t, data[12], byte(0x9f))
	// terminator is all zero
	test.ExpectEquality(t, data[13], byte(0))
	test.ExpectEquality(t, data[20], byte(0))
}

func TestEncodeLocListsEmitsRelocationForSymbolicEndpoint(t *testing.T) {
	reg := rewrite.NewLocationListRegistry()
	reg.Register([]rewrite.Entry{
		{Begin: 0, End: 0, BeginAddr: reloc.Symbol(3, "sym", 0x10), EndAddr: reloc.Constant(0x20), Expr: []byte{}},
	})

	data, relocs, _ := objwrite.EncodeLocLists(nil, binary.LittleEndian, 4, reg)

	test.ExpectEquality(t, len(relocs), 1)
	test.ExpectEquality(t, relocs[0].Offset, uint64(0))
	test.ExpectEquality(t, relocs[0].Kind, objwrite.SymbolRelative)
	test.ExpectEquality(t, relocs[0].SymbolID, 3)
	test.ExpectEquality(t, relocs[0].SymbolName, "sym")
	test.ExpectEquality(t, relocs[0].Addend, int64(0x10))
	// the raw bytes still carry the folded addend, little-endian.
	test.ExpectEquality(t, data[0], byte(0x10))
}

func TestEncodeLocListsHandlesMultipleLists(t *testing.T) {
	reg := rewrite.NewLocationListRegistry()
	reg.Register([]rewrite.Entry{{Begin: 0, End: 1, BeginAddr: reloc.Constant(0), EndAddr: reloc.Constant(1), Expr: []byte{0x9f}}})
	reg.Register([]rewrite.Entry{{Begin: 1, End: 2, BeginAddr: reloc.Constant(1), EndAddr: reloc.Constant(2), Expr: []byte{0x9f}}})

	data, _, offsets := objwrite.EncodeLocLists(nil, binary.LittleEndian, 4, reg)
	test.ExpectEquality(t, len(offsets), 2)
	test.ExpectEquality(t, offsets[0], uint64(0))
	// each list is 4+4+2+1 bytes of entry plus 4+4 terminator = 19 bytes.
	test.ExpectEquality(t, offsets[1], uint64(19))
	test.ExpectEquality(t, len(data), 38)
}

func TestEncodeLocListsUsesBigEndianByteOrder(t *testing.T) {
	reg := rewrite.NewLocationListRegistry()
	reg.Register([]rewrite.Entry{
		{Begin: 0x100, End: 0x200, BeginAddr: reloc.Constant(0x100), EndAddr: reloc.Constant(0x200), Expr: []byte{0x9f}},
	})

	data, _, _ := objwrite.EncodeLocLists(nil, binary.BigEndian, 4, reg)
	// big-endian uint32(0x100) = 00 00 01 00
	test.ExpectEquality(t, data[0], byte(0x00))
	test.ExpectEquality(t, data[2], byte(0x01))
	test.ExpectEquality(t, data[3], byte(0x00))
}

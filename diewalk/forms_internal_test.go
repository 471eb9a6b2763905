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
	"encoding/binary"
	"testing"

	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
	"github.com/jsimonetti/dwarfrefine/test"
)

func TestDecodeFormData1(t *testing.T) {
	r := reloc.NewReader([]byte{0x05}, binary.LittleEndian, nil, nil)
	cu := &cuContext{addrSize: 4, offsetSize: 4}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrByteSize, form: formData1}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.Class, dwarf.ClassConstant)
	test.ExpectEquality(t, v.U, uint64(5))
	test.ExpectEquality(t, v.ValueLength, uint64(1))
}

func TestDecodeFormFlag(t *testing.T) {
	r := reloc.NewReader([]byte{0x01}, binary.LittleEndian, nil, nil)
	cu := &cuContext{}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrExternal, form: formFlag}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.Class, dwarf.ClassFlag)
	test.ExpectEquality(t, v.Flag, true)
}

func TestDecodeFormFlagPresent(t *testing.T) {
	r := reloc.NewReader([]byte{}, binary.LittleEndian, nil, nil)
	cu := &cuContext{}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrDeclaration, form: formFlagPresent}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.Flag, true)
	test.ExpectEquality(t, v.ValueLength, uint64(0))
}

func TestDecodeFormString(t *testing.T) {
	r := reloc.NewReader([]byte("hi\x00rest"), binary.LittleEndian, nil, nil)
	cu := &cuContext{}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrName, form: formString}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.Class, dwarf.ClassString)
	test.ExpectEquality(t, v.Str, "hi")
	test.ExpectEquality(t, v.ValueLength, uint64(3))
}

func TestDecodeFormStrp(t *testing.T) {
	strTab := append([]byte{0x00}, []byte("hello\x00")...)
	r := reloc.NewReader([]byte{0x01, 0x00, 0x00, 0x00}, binary.LittleEndian, nil, nil)
	cu := &cuContext{offsetSize: 4, strData: strTab}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrName, form: formStrp}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.Str, "hello")
}

func TestDecodeFormSdataAndUdata(t *testing.T) {
	r := reloc.NewReader([]byte{0x7e, 0x81, 0x01}, binary.LittleEndian, nil, nil)
	cu := &cuContext{}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrConstValue, form: formSdata}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.I, int64(-2))

	v2, ok2 := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrConstValue, form: formUdata}, cu)
	test.ExpectEquality(t, ok2, true)
	test.ExpectEquality(t, v2.U, uint64(129))
}

func TestDecodeFormExprloc(t *testing.T) {
	r := reloc.NewReader([]byte{0x02, 0x70, 0x9f}, binary.LittleEndian, nil, nil)
	cu := &cuContext{}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrLocation, form: formExprloc}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.Class, dwarf.ClassExprLoc)
	test.ExpectEquality(t, len(v.Bytes), 2)
	test.ExpectEquality(t, v.Bytes[0], byte(0x70))
}

func TestDecodeFormSecOffsetClassifiesByAttribute(t *testing.T) {
	cu := &cuContext{offsetSize: 4}

	r1 := reloc.NewReader([]byte{0, 0, 0, 0}, binary.LittleEndian, nil, nil)
	v1, _ := decodeForm(r1, abbrevAttrSpec{attr: dwarf.AttrLocation, form: formSecOffset}, cu)
	test.ExpectEquality(t, v1.Class, dwarf.ClassLocListPtr)

	r2 := reloc.NewReader([]byte{0, 0, 0, 0}, binary.LittleEndian, nil, nil)
	v2, _ := decodeForm(r2, abbrevAttrSpec{attr: dwarf.AttrRanges, form: formSecOffset}, cu)
	test.ExpectEquality(t, v2.Class, dwarf.ClassRangeListPtr)

	r3 := reloc.NewReader([]byte{0, 0, 0, 0}, binary.LittleEndian, nil, nil)
	v3, _ := decodeForm(r3, abbrevAttrSpec{attr: dwarf.AttrStmtList, form: formSecOffset}, cu)
	test.ExpectEquality(t, v3.Class, dwarf.ClassLinePtr)
}

func TestDecodeFormImplicitConst(t *testing.T) {
	r := reloc.NewReader([]byte{}, binary.LittleEndian, nil, nil)
	cu := &cuContext{}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrConstValue, form: formImplicitConst, implicitConst: 7}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.I, int64(7))
}

func TestDecodeFormUnrecognisedReturnsNotOK(t *testing.T) {
	r := reloc.NewReader([]byte{}, binary.LittleEndian, nil, nil)
	cu := &cuContext{}
	_, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrName, form: formIndirect}, cu)
	test.ExpectEquality(t, ok, false)
}

func TestDecodeFormAddr(t *testing.T) {
	r := reloc.NewReader([]byte{0x00, 0x10, 0x00, 0x00}, binary.LittleEndian, nil, nil)
	cu := &cuContext{addrSize: 4}
	v, ok := decodeForm(r, abbrevAttrSpec{attr: dwarf.AttrLowpc, form: formAddr}, cu)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, v.Class, dwarf.ClassAddress)
	test.ExpectEquality(t, v.U, uint64(0x1000))
}

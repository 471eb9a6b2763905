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
	"debug/dwarf"
	"encoding/binary"
	"testing"

	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/objwrite"
	"github.com/jsimonetti/dwarfrefine/test"
)

func TestPatchInfoRewritesLocationOffset(t *testing.T) {
	x := &diewalk.DIE{Attrs: map[dwarf.Attr]*diewalk.AttrValue{
		dwarf.AttrLocation: {
			Class: dwarf.ClassLocListPtr, U: 1, Rewritten: true,
			ValueOffset: 4, ValueLength: 4,
		},
	}}
	root := &diewalk.DIE{Children: []*diewalk.DIE{x}}
	tree := &diewalk.Tree{Root: root}

	original := make([]byte, 8)
	idToOffset := []uint64{0x1000, 0x2000}

	out := objwrite.PatchInfo(original, tree, binary.LittleEndian, 4, idToOffset)
	test.ExpectEquality(t, len(out), 8)
	test.ExpectEquality(t, binary.LittleEndian.Uint32(out[4:8]), uint32(0x2000))
	// original is untouched.
	test.ExpectEquality(t, binary.LittleEndian.Uint32(original[4:8]), uint32(0))
}

func TestPatchInfoSkipsDIEFlaggedNeedsRebuild(t *testing.T) {
	x := &diewalk.DIE{
		NeedsRebuild: true,
		Attrs: map[dwarf.Attr]*diewalk.AttrValue{
			dwarf.AttrLocation: {
				Class: dwarf.ClassLocListPtr, U: 1, Rewritten: true,
				ValueOffset: 4, ValueLength: 4,
			},
		},
	}
	root := &diewalk.DIE{Children: []*diewalk.DIE{x}}
	tree := &diewalk.Tree{Root: root}

	original := make([]byte, 8)
	out := objwrite.PatchInfo(original, tree, binary.LittleEndian, 4, []uint64{0x1000, 0x2000})
	test.ExpectEquality(t, binary.LittleEndian.Uint32(out[4:8]), uint32(0))
}

func TestPatchInfoLeavesNonRewrittenAttributesUntouched(t *testing.T) {
	x := &diewalk.DIE{Attrs: map[dwarf.Attr]*diewalk.AttrValue{
		dwarf.AttrLocation: {Class: dwarf.ClassExprLoc, ValueOffset: 4, ValueLength: 4},
	}}
	root := &diewalk.DIE{Children: []*diewalk.DIE{x}}
	tree := &diewalk.Tree{Root: root}

	original := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	out := objwrite.PatchInfo(original, tree, binary.LittleEndian, 4, []uint64{0x1000})
	test.ExpectEquality(t, out[4], byte(5))
	test.ExpectEquality(t, out[7], byte(8))
}

func TestPatchInfoSkipsWhenValueLengthMismatchesOffsetSize(t *testing.T) {
	x := &diewalk.DIE{Attrs: map[dwarf.Attr]*diewalk.AttrValue{
		dwarf.AttrLocation: {
			Class: dwarf.ClassLocListPtr, U: 0, Rewritten: true,
			ValueOffset: 4, ValueLength: 8, // offsetSize is 4 below
		},
	}}
	root := &diewalk.DIE{Children: []*diewalk.DIE{x}}
	tree := &diewalk.Tree{Root: root}

	original := make([]byte, 12)
	out := objwrite.PatchInfo(original, tree, binary.LittleEndian, 4, []uint64{0x1000})
	test.ExpectEquality(t, binary.LittleEndian.Uint64(out[4:12]), uint64(0))
}

func TestPatchInfoSkipsWhenIDOutOfRange(t *testing.T) {
	x := &diewalk.DIE{Attrs: map[dwarf.Attr]*diewalk.AttrValue{
		dwarf.AttrLocation: {
			Class: dwarf.ClassLocListPtr, U: 5, Rewritten: true,
			ValueOffset: 4, ValueLength: 4,
		},
	}}
	root := &diewalk.DIE{Children: []*diewalk.DIE{x}}
	tree := &diewalk.Tree{Root: root}

	original := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	out := objwrite.PatchInfo(original, tree, binary.LittleEndian, 4, []uint64{0x1000})
	test.ExpectEquality(t, binary.LittleEndian.Uint32(out[4:8]), uint32(0xffffffff))
}

func TestPatchInfoWalksNestedChildren(t *testing.T) {
	grandchild := &diewalk.DIE{Attrs: map[dwarf.Attr]*diewalk.AttrValue{
		dwarf.AttrLocation: {
			Class: dwarf.ClassLocListPtr, U: 0, Rewritten: true,
			ValueOffset: 4, ValueLength: 4,
		},
	}}
	child := &diewalk.DIE{Children: []*diewalk.DIE{grandchild}}
	root := &diewalk.DIE{Children: []*diewalk.DIE{child}}
	tree := &diewalk.Tree{Root: root}

	original := make([]byte, 8)
	out := objwrite.PatchInfo(original, tree, binary.LittleEndian, 4, []uint64{0xdeadbeef})
	test.ExpectEquality(t, binary.LittleEndian.Uint32(out[4:8]), uint32(0xdeadbeef))
}

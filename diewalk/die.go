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

// Package diewalk is the DIE Walker and Function Locator (spec.md §4.5,
// §4.6): a byte-offset-tracking parser of .debug_abbrev/.debug_info that
// builds the compilation unit's DIE tree and walks it computing lexical
// scope exactly as the teacher's dwarf_builder.go does with stdlib
// debug/dwarf, except every attribute also remembers the section-relative
// byte range its value occupies — the rewriter needs that range to patch
// DW_AT_location in place.
package diewalk

import "debug/dwarf"

// AttrValue is one decoded attribute, classified the same way stdlib
// debug/dwarf classifies it (spec.md §3's Addr/Udata/Sdata/.../Exprloc/
// LocationListsRef/RangeListsRef are exactly dwarf.Class's cases), plus the
// byte range of the encoded value within .debug_info so the rewriter can
// patch it without reparsing.
type AttrValue struct {
	Class dwarf.Class

	U     uint64 // ClassAddress, ClassLocListPtr, ClassRangeListPtr, ClassReference (as section offset)
	I     int64  // ClassConstant
	Str   string // ClassString
	Bytes []byte // ClassExprLoc, ClassBlock
	Flag  bool   // ClassFlag

	// AddrIndex is the Address Table index ReadAddress returned when this
	// attribute was read with a table attached (Core B only); meaningless
	// otherwise.
	AddrIndex int

	ValueOffset uint64 // offset of the encoded value within .debug_info
	ValueLength uint64 // length in bytes of the encoded value
	RawForm     uint64 // the DWARF form the value was originally encoded with

	// Rewritten marks an attribute the Rewriter replaced in memory rather
	// than one decodeForm produced; the Section Emitter uses it together
	// with ValueLength to decide whether a same-width in-place byte patch
	// is possible.
	Rewritten bool
}

// DIE is one debug information entry, with its children in document order
// and a byte range in .debug_info covering the whole entry (abbreviation
// code through the last attribute, but not descendants).
type DIE struct {
	Offset   uint64 // offset of the abbreviation-code byte
	Tag      dwarf.Tag
	Attrs    map[dwarf.Attr]*AttrValue
	Children []*DIE
	Parent   *DIE

	// HeaderLength is how many bytes the abbreviation code itself occupies;
	// Offset+HeaderLength is where the first attribute value begins.
	HeaderLength uint64
	// End is the offset one past the DIE's last attribute byte (exclusive
	// of children).
	End uint64

	// NeedsRebuild marks a DIE the Rewriter structurally changed (added or
	// removed an attribute rather than overwriting one in place). The
	// Section Emitter cannot patch these byte-for-byte without reflowing
	// every subsequent offset in .debug_info, so it logs and leaves such a
	// DIE's encoded bytes as originally read (see objwrite's DESIGN.md entry).
	NeedsRebuild bool
}

// Attr returns a, ok for the given attribute, or nil, false if absent.
func (d *DIE) Attr(a dwarf.Attr) (*AttrValue, bool) {
	v, ok := d.Attrs[a]
	return v, ok
}

// Name returns DW_AT_name as a string, or "" if absent.
func (d *DIE) Name() string {
	if v, ok := d.Attr(dwarf.AttrName); ok {
		return v.Str
	}
	return ""
}

// LowPC returns the compile unit root's DW_AT_low_pc, if it has one.
func (t *Tree) LowPC() (uint64, bool) {
	if v, ok := t.Root.Attr(dwarf.AttrLowpc); ok {
		return v.U, true
	}
	return 0, false
}

// Tree is the parsed DIE forest for one compilation unit (spec.md §4.5
// operates on "the first compilation unit").
type Tree struct {
	Root    *DIE
	Version uint16
	// AddrSize and OffsetSize are the compile unit header's address size and
	// DWARF offset width (4 for 32-bit DWARF, 8 for 64-bit), needed again by
	// the Section Emitter to lay out and patch .debug_loc/.debug_info.
	AddrSize   int
	OffsetSize int
	// ByOffset indexes every DIE in the tree by its Offset.
	ByOffset map[uint64]*DIE
}

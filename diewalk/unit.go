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

	"github.com/jsimonetti/dwarfrefine/objfile"
	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
)

// Unit bundles the first compilation unit's parsed tree with the two
// section-backed resolvers every walk over it needs, saving both CLIs from
// repeating the same section-loading boilerplate.
type Unit struct {
	Tree          *Tree
	RangeResolver *RangeResolver
	LocListReader *LocListReader
	UnitLowPC     uint64
}

// LoadUnit reads every section ParseFirstUnit/NewRangeResolver/
// NewLocListReader need from f, parses the first compilation unit, and
// resolves its low_pc. table is nil for Core A and an Address Table for
// Core B (spec.md §4.1/§4.2).
func LoadUnit(f *objfile.File, table *reloc.Table) (*Unit, error) {
	infoData, infoRelocs := f.Section(".debug_info")
	abbrevData, _ := f.Section(".debug_abbrev")
	strData, _ := f.Section(".debug_str")
	lineStrData, _ := f.Section(".debug_line_str")

	tree, err := ParseFirstUnit(infoData, infoRelocs, abbrevData, f.ByteOrder(), table, strData, lineStrData)
	if err != nil {
		return nil, err
	}

	rangesData, rangesRelocs := f.Section(".debug_ranges")
	rnglistsData, rnglistsRelocs := f.Section(".debug_rnglists")
	rr := NewRangeResolver(f.ByteOrder(), tree.AddrSize, tree.Version, rangesData, rangesRelocs, rnglistsData, rnglistsRelocs)

	locData, locRelocs := f.Section(".debug_loc")
	loclistsData, loclistsRelocs := f.Section(".debug_loclists")
	llr := NewLocListReader(f.ByteOrder(), tree.AddrSize, tree.Version, locData, locRelocs, loclistsData, loclistsRelocs, table)

	var unitLowPC uint64
	if lowAttr, ok := tree.Root.Attr(dwarf.AttrLowpc); ok {
		unitLowPC = lowAttr.U
	}

	return &Unit{Tree: tree, RangeResolver: rr, LocListReader: llr, UnitLowPC: unitLowPC}, nil
}

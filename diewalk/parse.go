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

	"github.com/pkg/errors"

	"github.com/jsimonetti/dwarfrefine/logger"
	"github.com/jsimonetti/dwarfrefine/objfile"
	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
)

// ParseFirstUnit parses the first compilation unit out of .debug_info
// (spec.md §4.5 walks "the first compilation unit's DIE tree"). strData and
// lineStrData are the raw bytes of .debug_str and .debug_line_str, used to
// resolve DW_FORM_strp/DW_FORM_line_strp references. table is nil for Core
// A; Core B passes an Address Table so every address read is also recorded
// for later symbolic re-emission.
func ParseFirstUnit(infoData []byte, infoRelocs map[uint64]objfile.Relocation, abbrevData []byte, order binary.ByteOrder, table *reloc.Table, strData, lineStrData []byte) (*Tree, error) {
	if len(infoData) < 4 {
		return nil, errors.New("diewalk: .debug_info is too short to contain a unit header")
	}

	r := reloc.NewReader(infoData, order, infoRelocs, table)

	unitLength := r.ReadRaw(4)
	offsetSize := 4
	if unitLength == 0xffffffff {
		offsetSize = 8
		unitLength = r.ReadRaw(8)
	}
	_ = unitLength

	version := uint16(r.ReadRaw(2))

	var abbrevOffset uint64
	var addrSize int
	if version >= 5 {
		r.ReadRaw(1) // unit_type
		addrSize = int(r.ReadRaw(1))
		abbrevOffset = r.ReadOffset(offsetSize)
	} else {
		abbrevOffset = r.ReadOffset(offsetSize)
		addrSize = int(r.ReadRaw(1))
	}

	abbrevs := parseAbbrevTable(abbrevData, abbrevOffset)
	cu := &cuContext{addrSize: addrSize, offsetSize: offsetSize, version: version, strData: strData, lineStrData: lineStrData}

	byOffset := map[uint64]*DIE{}

	root, err := parseOneDIE(r, abbrevs, cu, nil, byOffset)
	if err != nil {
		return nil, errors.Wrap(err, "diewalk: parsing compile unit root")
	}
	if root == nil {
		return nil, errors.New("diewalk: compile unit has no root DIE")
	}
	if root.Tag != dwarf.TagCompileUnit && root.Tag != dwarf.TagPartialUnit {
		logger.Logf(logger.Allow, "diewalk", "unit root has unexpected tag %s", root.Tag)
	}

	return &Tree{Root: root, Version: version, AddrSize: addrSize, OffsetSize: offsetSize, ByOffset: byOffset}, nil
}

// parseOneDIE reads one DIE at the reader's current position, or returns
// nil, nil if it finds a null (abbreviation code 0) terminator entry.
func parseOneDIE(r *reloc.Reader, abbrevs abbrevTable, cu *cuContext, parent *DIE, byOffset map[uint64]*DIE) (*DIE, error) {
	offset := r.Offset()
	code := r.ReadULEB128()
	if code == 0 {
		return nil, nil
	}

	decl, ok := abbrevs[code]
	if !ok {
		return nil, errors.Errorf("abbreviation code %d not found at offset %#x", code, offset)
	}

	die := &DIE{
		Offset: offset,
		Tag:    decl.tag,
		Attrs:  map[dwarf.Attr]*AttrValue{},
		Parent: parent,
	}
	die.HeaderLength = r.Offset() - offset

	for _, spec := range decl.attrs {
		av, ok := decodeForm(r, spec, cu)
		if !ok {
			return nil, errors.Errorf("unsupported form %#x for attribute %s at offset %#x", spec.form, spec.attr, av.ValueOffset)
		}
		die.Attrs[spec.attr] = &av
	}
	die.End = r.Offset()
	byOffset[die.Offset] = die

	if decl.hasChildren {
		children, err := parseSiblings(r, abbrevs, cu, die, byOffset)
		if err != nil {
			return nil, err
		}
		die.Children = children
	}

	return die, nil
}

// parseSiblings reads a null-terminated list of sibling DIEs, the shape
// every DW_CHILDREN_yes entry's children take.
func parseSiblings(r *reloc.Reader, abbrevs abbrevTable, cu *cuContext, parent *DIE, byOffset map[uint64]*DIE) ([]*DIE, error) {
	var out []*DIE
	for {
		die, err := parseOneDIE(r, abbrevs, cu, parent, byOffset)
		if err != nil {
			return nil, err
		}
		if die == nil {
			return out, nil
		}
		out = append(out, die)
	}
}

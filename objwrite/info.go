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

package objwrite

import (
	"debug/dwarf"
	"encoding/binary"

	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/logger"
)

// PatchInfo walks tree and returns a copy of original .debug_info with every
// DW_AT_location offset that the Rewriter overwrote re-encoded in place,
// resolving each registry id through idToOffset.
//
// A DIE the Rewriter flagged NeedsRebuild (it added or removed an attribute
// rather than changing one in place) is logged and left with its
// originally-read bytes: correctly inserting or deleting a DWARF attribute
// requires rebuilding the abbreviation table and every subsequent byte
// offset in the section, which this patch-based emitter does not attempt.
func PatchInfo(original []byte, tree *diewalk.Tree, order binary.ByteOrder, offsetSize int, idToOffset []uint64) []byte {
	out := append([]byte{}, original...)

	var walk func(d *diewalk.DIE)
	walk = func(d *diewalk.DIE) {
		if d.NeedsRebuild {
			logger.Logf(logger.Allow, "objwrite", "DIE at offset %#x needs a structural rewrite (attribute added/removed); emitting its original bytes unchanged", d.Offset)
		} else if loc, ok := d.Attr(dwarf.AttrLocation); ok && loc.Rewritten {
			patchOffset(out, loc, order, offsetSize, idToOffset)
		}
		for _, c := range d.Children {
			walk(c)
		}
	}
	walk(tree.Root)

	return out
}

func patchOffset(buf []byte, attr *diewalk.AttrValue, order binary.ByteOrder, offsetSize int, idToOffset []uint64) {
	if attr.ValueLength == 0 || attr.ValueOffset == 0 {
		logger.Log(logger.Allow, "objwrite", "rewritten DW_AT_location has no original byte span to patch; skipping")
		return
	}
	if int(attr.ValueLength) != offsetSize {
		logger.Logf(logger.Allow, "objwrite", "rewritten DW_AT_location width %d does not match CU offset size %d; skipping", attr.ValueLength, offsetSize)
		return
	}

	id := int(attr.U)
	if id < 0 || id >= len(idToOffset) {
		logger.Logf(logger.Allow, "objwrite", "rewritten DW_AT_location references unknown location list id %d; skipping", id)
		return
	}

	dst := buf[attr.ValueOffset : attr.ValueOffset+attr.ValueLength]
	switch offsetSize {
	case 4:
		order.PutUint32(dst, uint32(idToOffset[id]))
	case 8:
		order.PutUint64(dst, idToOffset[id])
	}
}

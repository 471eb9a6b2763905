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

// Package objwrite is the Section Emitter (Core B, spec.md §4.9): it lays
// the Rewriter's new location lists out as .debug_loc bytes, patches the
// edited DW_AT_location offsets into .debug_info, and serialises the
// result plus relocations into a new object file via github.com/Binject/debug/elf.
package objwrite

import (
	"encoding/binary"

	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
	"github.com/jsimonetti/dwarfrefine/rewrite"
)

// RelocKind mirrors spec.md §4.9's two output relocation kinds.
type RelocKind int

const (
	SectionRelative RelocKind = iota
	SymbolRelative
)

// OutputRelocation is one relocation entry attached to a produced section.
type OutputRelocation struct {
	Offset     uint64
	Kind       RelocKind
	SymbolID   int
	SymbolName string
	Addend     int64
}

// EncodeLocLists appends the registry's lists after the object's original
// .debug_loc bytes, in DWARF ≤4 format (begin/end address pairs, a 2-byte
// expression length, the expression bytes, terminated by the zero/zero
// entry), and returns the extended section bytes, a relocation for every
// Symbolic endpoint, and each registered list's offset within the result.
func EncodeLocLists(original []byte, order binary.ByteOrder, addrSize int, reg *rewrite.LocationListRegistry) (data []byte, relocs []OutputRelocation, offsets []uint64) {
	data = append([]byte{}, original...)
	offsets = make([]uint64, len(reg.Lists()))

	for i, list := range reg.Lists() {
		offsets[i] = uint64(len(data))

		for _, e := range list {
			data, relocs = appendAddress(data, relocs, order, addrSize, e.BeginAddr)
			data, relocs = appendAddress(data, relocs, order, addrSize, e.EndAddr)

			length := make([]byte, 2)
			order.PutUint16(length, uint16(len(e.Expr)))
			data = append(data, length...)
			data = append(data, e.Expr...)
		}

		// terminate this list with the (0, 0) end-of-list marker.
		data, relocs = appendAddress(data, relocs, order, addrSize, reloc.Constant(0))
		data, relocs = appendAddress(data, relocs, order, addrSize, reloc.Constant(0))
	}

	return data, relocs, offsets
}

func appendAddress(data []byte, relocs []OutputRelocation, order binary.ByteOrder, addrSize int, addr reloc.Address) ([]byte, []OutputRelocation) {
	off := uint64(len(data))
	buf := make([]byte, addrSize)
	putUint(order, buf, uint64(addr.Addend))
	data = append(data, buf...)

	if addr.Symbolic {
		relocs = append(relocs, OutputRelocation{
			Offset:     off,
			Kind:       SymbolRelative,
			SymbolID:   addr.SymbolID,
			SymbolName: addr.SymbolName,
			Addend:     addr.Addend,
		})
	}
	return data, relocs
}

func putUint(order binary.ByteOrder, buf []byte, v uint64) {
	switch len(buf) {
	case 4:
		order.PutUint32(buf, uint32(v))
	case 8:
		order.PutUint64(buf, v)
	default:
		for i := range buf {
			shift := i * 8
			if order == binary.BigEndian {
				shift = (len(buf) - 1 - i) * 8
			}
			buf[i] = byte(v >> shift)
		}
	}
}

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

// Package leb128 decodes and encodes the variable-length integers used
// throughout DWARF sections (.debug_abbrev, .debug_info, .debug_loc and
// friends).
package leb128

// DecodeULEB128 decodes an unsigned LEB128 value from the front of encoded.
// Algorithm taken from page 218 of the DWARF4 Standard, figure 46.
//
// Returns the decoded value and the number of bytes consumed from encoded.
func DecodeULEB128(encoded []uint8) (uint64, int) {
	var result uint64
	var shift uint64

	var n int
	for _, v := range encoded {
		n++
		result |= uint64(v&0x7f) << shift
		if v&0x80 == 0x00 {
			break
		}
		shift += 7
	}

	return result, n
}

// DecodeSLEB128 decodes a signed LEB128 value from the front of encoded.
// Algorithm taken from page 218 of the DWARF4 Standard, figure 47.
//
// Returns the decoded value and the number of bytes consumed from encoded.
func DecodeSLEB128(encoded []uint8) (int64, int) {
	const size = 64

	var result int64
	var shift uint64

	var v uint8
	var n int
	for _, v = range encoded {
		n++
		result |= int64((int64(v) & 0x7f) << shift)
		shift += 7
		if v&0x80 == 0x00 {
			break
		}
	}

	// sign extend last byte from the encoded slice
	if shift < size && v&0x40 > 0 {
		result |= -(1 << shift)
	}

	return result, n
}

// EncodeULEB128 appends the unsigned LEB128 encoding of v to dst, returning
// the extended slice. Needed by the rewriter, which has no read-side
// counterpart in the original coverage tool.
func EncodeULEB128(dst []uint8, v uint64) []uint8 {
	for {
		b := uint8(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// EncodeSLEB128 appends the signed LEB128 encoding of v to dst, returning
// the extended slice.
func EncodeSLEB128(dst []uint8, v int64) []uint8 {
	more := true
	for more {
		b := uint8(v & 0x7f)
		v >>= 7

		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}

		dst = append(dst, b)
	}
	return dst
}

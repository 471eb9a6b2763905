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

package diewalk_test

import (
	"encoding/binary"
	"testing"

	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/test"
)

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func TestRangeResolverDebugRangesOffsetPairsAndTerminator(t *testing.T) {
	var data []byte
	data = append(data, u32le(0x10)...) // begin (relative to cuLowPC)
	data = append(data, u32le(0x20)...) // end
	data = append(data, u32le(0x00)...) // terminator
	data = append(data, u32le(0x00)...)

	rr := diewalk.NewRangeResolver(binary.LittleEndian, 4, 4, data, nil, nil, nil)
	out := rr.Resolve(0, 0x1000)
	test.ExpectEquality(t, len(out), 1)
	test.ExpectEquality(t, out[0], diewalk.PCRange{Begin: 0x1010, End: 0x1020})
}

func TestRangeResolverDebugRangesBaseAddressSelection(t *testing.T) {
	var data []byte
	data = append(data, u32le(0xffffffff)...) // base address selection marker
	data = append(data, u32le(0x5000)...)     // new base
	data = append(data, u32le(0x10)...)       // begin relative to new base
	data = append(data, u32le(0x20)...)       // end relative to new base
	data = append(data, u32le(0x00)...)       // terminator
	data = append(data, u32le(0x00)...)

	rr := diewalk.NewRangeResolver(binary.LittleEndian, 4, 4, data, nil, nil, nil)
	out := rr.Resolve(0, 0x1000)
	test.ExpectEquality(t, len(out), 1)
	test.ExpectEquality(t, out[0], diewalk.PCRange{Begin: 0x5010, End: 0x5020})
}

func TestRangeResolverMissingSectionReturnsNil(t *testing.T) {
	rr := diewalk.NewRangeResolver(binary.LittleEndian, 4, 4, nil, nil, nil, nil)
	out := rr.Resolve(0, 0x1000)
	test.ExpectEquality(t, out == nil, true)
}

func TestRangeResolverRnglistsOffsetPairAndBaseAddress(t *testing.T) {
	var data []byte
	data = append(data, 0x05)           // DW_RLE_base_address
	data = append(data, u32le(0x6000)...)
	data = append(data, 0x04) // DW_RLE_offset_pair
	data = append(data, 0x10, 0x20)
	data = append(data, 0x00) // DW_RLE_end_of_list

	rr := diewalk.NewRangeResolver(binary.LittleEndian, 4, 5, nil, nil, data, nil)
	out := rr.Resolve(0, 0x1000)
	test.ExpectEquality(t, len(out), 1)
	test.ExpectEquality(t, out[0], diewalk.PCRange{Begin: 0x6010, End: 0x6020})
}

func TestRangeResolverRnglistsStartEnd(t *testing.T) {
	var data []byte
	data = append(data, 0x06) // DW_RLE_start_end
	data = append(data, u32le(0x100)...)
	data = append(data, u32le(0x200)...)
	data = append(data, 0x00)

	rr := diewalk.NewRangeResolver(binary.LittleEndian, 4, 5, nil, nil, data, nil)
	out := rr.Resolve(0, 0)
	test.ExpectEquality(t, len(out), 1)
	test.ExpectEquality(t, out[0], diewalk.PCRange{Begin: 0x100, End: 0x200})
}

func TestRangeResolverRnglistsStartLength(t *testing.T) {
	var data []byte
	data = append(data, 0x07) // DW_RLE_start_length
	data = append(data, u32le(0x100)...)
	data = append(data, 0x10) // ULEB128 length 16
	data = append(data, 0x00)

	rr := diewalk.NewRangeResolver(binary.LittleEndian, 4, 5, nil, nil, data, nil)
	out := rr.Resolve(0, 0)
	test.ExpectEquality(t, len(out), 1)
	test.ExpectEquality(t, out[0], diewalk.PCRange{Begin: 0x100, End: 0x110})
}

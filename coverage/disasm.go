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

// Package coverage is the Coverage Engine (Core A, spec.md §4.6): given a
// function's DIE subtree and an externally supplied PC set, it produces a
// per-variable map of covered intervals plus a cumulative instruction-hit
// tally.
package coverage

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/jsimonetti/dwarfrefine/logger"
)

// InstructionSizes disassembles text — the raw bytes of the .text section
// loaded at textAddr — over [begin, end), returning each instruction's start
// PC mapped to its length in bytes. A byte that fails to decode is recorded
// as a single-byte instruction and skipped, so disassembly can never get
// stuck; the failure is logged once.
func InstructionSizes(text []byte, textAddr, begin, end uint64, mode64 bool) map[uint64]int {
	mode := 32
	if mode64 {
		mode = 64
	}

	sizes := map[uint64]int{}
	if text == nil || begin < textAddr || begin >= end {
		return sizes
	}

	startOff := begin - textAddr
	endOff := end - textAddr
	if startOff >= uint64(len(text)) {
		return sizes
	}
	if endOff > uint64(len(text)) {
		endOff = uint64(len(text))
	}

	pc := begin
	off := startOff
	for off < endOff {
		inst, err := x86asm.Decode(text[off:], mode)
		if err != nil || inst.Len == 0 {
			logger.Logf(logger.Allow, "coverage", "disassembly failed at pc %#x: %v", pc, err)
			sizes[pc] = 1
			off++
			pc++
			continue
		}
		sizes[pc] = inst.Len
		off += uint64(inst.Len)
		pc += uint64(inst.Len)
	}
	return sizes
}

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

// Package objfile is the Section Loader: it opens a relocatable ELF object
// file and hands out named debug sections as raw bytes plus a relocation
// map, folding each relocation's symbol address into its addend so that
// later stages never have to consult the symbol table again.
package objfile

import (
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/ianlancetaylor/demangle"
	"github.com/pkg/errors"

	"github.com/jsimonetti/dwarfrefine/curated"
	"github.com/jsimonetti/dwarfrefine/logger"
)

// demangleCacheSize bounds the per-File demangled-name cache. A relocation
// table commonly re-resolves the same handful of symbols many times over
// (one per location list entry referencing a variable's enclosing symbol);
// the cache avoids re-running the C++ demangler for each occurrence, the
// same trade-off disassembly/symbols makes for repeated symbol lookups
// during a single disassembly pass.
const demangleCacheSize = 256

// DebugSections lists the sections both cores consume, in the order
// spec.md §6 enumerates them.
var DebugSections = []string{
	".debug_abbrev",
	".debug_addr",
	".debug_info",
	".debug_line",
	".debug_line_str",
	".debug_loc",
	".debug_loclists",
	".debug_ranges",
	".debug_rnglists",
	".debug_str",
	".debug_str_offsets",
	".debug_types",
}

// RelocKind classifies how a relocation's value should be folded.
type RelocKind int

const (
	// RelocOther is any relocation kind the cores don't understand; such
	// relocations are dropped during loading (spec.md §4.1).
	RelocOther RelocKind = iota
	RelocAbsolute
	RelocRelative
)

// Relocation is a single resolved, symbol-folded relocation entry: the
// symbol's address has already been added into Addend, so downstream code
// never needs to revisit the symbol table to compute an effective value.
type Relocation struct {
	Kind                RelocKind
	Offset              uint64
	Addend              int64
	HasImplicitAddend   bool
	SymbolID            int
	SymbolName          string
}

// File is an opened relocatable object, the external collaborator the rest
// of spec.md §3 calls "Object File".
type File struct {
	path string
	ef   *elf.File
	syms []elf.Symbol

	demangled *lru.Cache[string, string]
}

// Open reads and parses the ELF object at path.
func Open(path string) (*File, error) {
	ef, err := elf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "objfile: opening %s", path)
	}

	syms, err := ef.Symbols()
	if err != nil {
		// a stripped object with no symbol table is not fatal: relocations
		// simply won't resolve against anything and will be dropped.
		logger.Logf(logger.Allow, "objfile", "no symbol table in %s: %v", path, err)
		syms = nil
	}

	demangled, err := lru.New[string, string](demangleCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "objfile: allocating demangle cache")
	}

	return &File{path: path, ef: ef, syms: syms, demangled: demangled}, nil
}

// Close releases the underlying ELF file.
func (f *File) Close() error {
	return f.ef.Close()
}

// ByteOrder is the object's byte order, needed by the Relocating Reader.
func (f *File) ByteOrder() binary.ByteOrder {
	return f.ef.ByteOrder
}

// Relocatable reports whether the object is ET_REL, i.e. hasn't been linked
// yet. The rewriter only rebases a compile unit's low_pc when this is true
// (SPEC_FULL.md §8).
func (f *File) Relocatable() bool {
	return f.ef.Type == elf.ET_REL
}

// SymbolAddress returns the resolved address and demangled name of the idx'th
// symbol. Relocation decoding uses it to fold the symbol's address into the
// relocation's addend and to fill in its symbol name.
func (f *File) SymbolAddress(idx int) (uint64, string, bool) {
	if idx < 0 || idx >= len(f.syms) {
		return 0, "", false
	}
	name := f.syms[idx].Name
	if cached, ok := f.demangled.Get(name); ok {
		return f.syms[idx].Value, cached, true
	}

	result := name
	if filtered := demangle.Filter(name); filtered != name {
		result = filtered
	}
	f.demangled.Add(name, result)
	return f.syms[idx].Value, result, true
}

// Text returns the .text section's raw bytes and its load address, used by
// the Coverage Engine to disassemble the target function's instruction
// stream (spec.md §4.6).
func (f *File) Text() ([]byte, uint64) {
	sect := f.ef.Section(".text")
	if sect == nil {
		return nil, 0
	}
	data, err := sect.Data()
	if err != nil {
		logger.Logf(logger.Allow, "objfile", "reading .text: %v", err)
		return nil, 0
	}
	return data, sect.Addr
}

// Machine64Bit reports whether the object's architecture is 64-bit, needed
// to pick the disassembler's instruction mode.
func (f *File) Machine64Bit() bool {
	return f.ef.Class == elf.ELFCLASS64
}

// Section returns a debug section's raw bytes and its resolved relocation
// map (offset within the section -> folded relocation). A missing section
// yields an empty slice and an empty map, never an error (spec.md §4.1).
func (f *File) Section(name string) ([]byte, map[uint64]Relocation) {
	sect := f.ef.Section(name)
	if sect == nil {
		return nil, map[uint64]Relocation{}
	}

	data, err := sect.Data()
	if err != nil {
		logger.Logf(logger.Allow, "objfile", "reading section %s: %v", name, err)
		return nil, map[uint64]Relocation{}
	}

	relocs := f.loadRelocations(name)
	return data, relocs
}

// loadRelocations decodes the REL/RELA section associated with name, if
// any, folding each entry's symbol address into its addend (spec.md §4.1).
// Duplicate offsets overwrite, keeping the last entry seen, per the "Duplicate
// relocation at one offset" rule in spec.md §7.
func (f *File) loadRelocations(name string) map[uint64]Relocation {
	out := map[uint64]Relocation{}

	relSect := f.ef.Section(".rel" + name)
	rela := false
	if relSect == nil {
		relSect = f.ef.Section(".rela" + name)
		rela = true
	}
	if relSect == nil {
		return out
	}

	data, err := relSect.Data()
	if err != nil {
		logger.Logf(logger.Allow, "objfile", "reading relocations for %s: %v", name, err)
		return out
	}

	is64 := f.ef.Class == elf.ELFCLASS64
	entrySize := relocEntrySize(is64, rela)
	if entrySize == 0 || len(data) < entrySize {
		return out
	}

	for off := 0; off+entrySize <= len(data); off += entrySize {
		entry := data[off : off+entrySize]

		r, err := f.decodeRelocEntry(entry, is64, rela)
		if err != nil {
			logger.Log(logger.Allow, "objfile", curated.Errorf("dropping unsupported relocation: %v", err))
			continue
		}

		if prev, ok := out[r.Offset]; ok {
			logger.Logf(logger.Allow, "objfile", "duplicate relocation at offset %#x in %s (was %+v)", r.Offset, name, prev)
		}
		out[r.Offset] = r
	}

	return out
}

func relocEntrySize(is64, rela bool) int {
	switch {
	case is64 && rela:
		return 24
	case is64 && !rela:
		return 16
	case !is64 && rela:
		return 12
	default:
		return 8
	}
}

// decodeRelocEntry parses one REL/RELA entry and folds its resolved symbol
// address into the addend. Relocations whose kind isn't absolute or
// relative, or whose symbol doesn't resolve to an address, are reported as
// an error so the caller can drop them (spec.md §4.1).
func (f *File) decodeRelocEntry(entry []byte, is64, rela bool) (Relocation, error) {
	order := f.ef.ByteOrder

	var offset uint64
	var info uint64
	var explicitAddend int64

	if is64 {
		offset = order.Uint64(entry[0:8])
		info = order.Uint64(entry[8:16])
		if rela {
			explicitAddend = int64(order.Uint64(entry[16:24]))
		}
	} else {
		offset = uint64(order.Uint32(entry[0:4]))
		info = uint64(order.Uint32(entry[4:8]))
		if rela {
			explicitAddend = int64(int32(order.Uint32(entry[8:12])))
		}
	}

	var symIdx int
	var rtype uint32
	if is64 {
		symIdx = int(info >> 32)
		rtype = uint32(info)
	} else {
		symIdx = int(info >> 8)
		rtype = uint32(info & 0xff)
	}

	kind := classifyRelocKind(f.ef.Machine, rtype)
	if kind == RelocOther {
		return Relocation{}, fmt.Errorf("unsupported relocation type %d for machine %s", rtype, f.ef.Machine)
	}

	addr, name, ok := f.SymbolAddress(symIdx - 1)
	if !ok {
		return Relocation{}, fmt.Errorf("relocation at %#x targets unresolved symbol %d", offset, symIdx)
	}

	return Relocation{
		Kind:              kind,
		Offset:            offset,
		Addend:            int64(addr) + explicitAddend,
		HasImplicitAddend: !rela,
		SymbolID:          symIdx - 1,
		SymbolName:        name,
	}, nil
}

// classifyRelocKind maps a machine-specific relocation type to the
// absolute/relative/other classification spec.md §3 requires. Only the
// architectures exercised by the retrieval pack's object files are known;
// anything else is RelocOther and gets dropped upstream.
func classifyRelocKind(machine elf.Machine, rtype uint32) RelocKind {
	switch machine {
	case elf.EM_386:
		switch elf.R_386(rtype) {
		case elf.R_386_32:
			return RelocAbsolute
		case elf.R_386_PC32:
			return RelocRelative
		}
	case elf.EM_X86_64:
		switch elf.R_X86_64(rtype) {
		case elf.R_X86_64_64, elf.R_X86_64_32, elf.R_X86_64_32S:
			return RelocAbsolute
		case elf.R_X86_64_PC32:
			return RelocRelative
		}
	case elf.EM_ARM:
		switch elf.R_ARM(rtype) {
		case elf.R_ARM_ABS32, elf.R_ARM_TARGET1:
			return RelocAbsolute
		case elf.R_ARM_REL32:
			return RelocRelative
		}
	case elf.EM_AARCH64:
		switch elf.R_AARCH64(rtype) {
		case elf.R_AARCH64_ABS64, elf.R_AARCH64_ABS32:
			return RelocAbsolute
		case elf.R_AARCH64_PREL32, elf.R_AARCH64_PREL64:
			return RelocRelative
		}
	}
	return RelocOther
}

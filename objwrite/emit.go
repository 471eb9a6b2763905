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
	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/objfile"
	"github.com/jsimonetti/dwarfrefine/rewrite"
)

// OutputSection is one produced .debug_* section, ready to hand to the ELF
// writer: a name, the bytes to install, and the relocations against it.
type OutputSection struct {
	Name        string
	Data        []byte
	Relocations []OutputRelocation
}

// Build assembles the full set of output sections for one object: every
// section in objfile.DebugSections is carried through, with .debug_loc
// extended by the Rewriter's new lists and .debug_info patched to point at
// them (spec.md §4.9).
func Build(f *objfile.File, tree *diewalk.Tree, addrSize, offsetSize int, reg *rewrite.LocationListRegistry) []OutputSection {
	var out []OutputSection

	locOriginal, locRelocs := f.Section(".debug_loc")
	locData, newLocRelocs, offsets := EncodeLocLists(locOriginal, f.ByteOrder(), addrSize, reg)

	for _, name := range objfile.DebugSections {
		data, relocs := f.Section(name)
		if len(data) == 0 && name != ".debug_loc" {
			continue
		}

		var section OutputSection
		switch name {
		case ".debug_loc":
			section = OutputSection{
				Name:        name,
				Data:        locData,
				Relocations: append(translateRelocations(locRelocs), newLocRelocs...),
			}
		case ".debug_info":
			section = OutputSection{
				Name:        name,
				Data:        PatchInfo(data, tree, f.ByteOrder(), offsetSize, offsets),
				Relocations: translateRelocations(relocs),
			}
		default:
			section = OutputSection{
				Name:        name,
				Data:        data,
				Relocations: translateRelocations(relocs),
			}
		}
		out = append(out, section)
	}

	return out
}

// translateRelocations carries an input section's already-resolved
// relocations through to the output, unchanged in meaning: every one of
// them names an original object symbol, i.e. is symbol-relative (spec.md
// §4.9). This implementation's Address Table never produces a
// section-relative address of its own — see DESIGN.md.
func translateRelocations(in map[uint64]objfile.Relocation) []OutputRelocation {
	out := make([]OutputRelocation, 0, len(in))
	for _, r := range in {
		out = append(out, OutputRelocation{
			Offset:     r.Offset,
			Kind:       SymbolRelative,
			SymbolID:   r.SymbolID,
			SymbolName: r.SymbolName,
			Addend:     r.Addend,
		})
	}
	return out
}

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

package rewrite

import (
	"debug/dwarf"

	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/locexpr"
	"github.com/jsimonetti/dwarfrefine/logger"
	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
)

// LocationListRegistry collects the new location lists the Rewriter
// produces. Each registered list is given a sequential id; the Section
// Emitter (objwrite) later lays these out as real .debug_loc bytes and
// rewrites the id into a section offset.
type LocationListRegistry struct {
	lists [][]Entry
}

// NewLocationListRegistry creates an empty registry.
func NewLocationListRegistry() *LocationListRegistry {
	return &LocationListRegistry{}
}

// Register stores entries and returns its id.
func (r *LocationListRegistry) Register(entries []Entry) int {
	r.lists = append(r.lists, entries)
	return len(r.lists) - 1
}

// Get returns the entries registered under id.
func (r *LocationListRegistry) Get(id int) []Entry {
	return r.lists[id]
}

// Lists returns every registered list, in registration order.
func (r *LocationListRegistry) Lists() [][]Entry {
	return r.lists
}

// Session bundles the state one Apply run needs: the target function's
// DIE/scope, the compilation unit's collaborators for resolving scopes and
// location lists, and the registry new location lists are written into.
type Session struct {
	Function  *diewalk.DIE
	FuncScope diewalk.Scope

	RangeResolver *diewalk.RangeResolver
	LocListReader *diewalk.LocListReader
	Table         *reloc.Table
	Registry      *LocationListRegistry

	// Relocatable and UnitLowPC decide whether script PC ranges are rebased
	// against the compile unit's low_pc (SPEC_FULL.md §8).
	Relocatable bool
	UnitLowPC   uint64

	// OffsetSize is the compile unit's DWARF offset width (4 or 8), needed to
	// decide whether an existing Exprloc/const_value attribute's on-disk span
	// is exactly wide enough to repurpose in place for the new
	// DW_AT_location (see applyOne).
	OffsetSize int
}

// rebase translates a script entry's [begin, end) into unit-local
// coordinates: subtract the script's ZeroAddress and, for a relocatable
// object whose compile unit carries a non-zero low_pc, subtract that too
// (spec.md §6, SPEC_FULL.md §8).
func (s *Session) rebase(script *Script, se ScriptEntry) (uint64, uint64) {
	begin := se.Begin - script.ZeroAddress
	end := se.End - script.ZeroAddress
	if s.Relocatable && s.UnitLowPC != 0 {
		begin -= s.UnitLowPC
		end -= s.UnitLowPC
	}
	return begin, end
}

// Apply runs spec.md §4.8 over every entry in script. Entries for variables
// that are filtered out, whose rebased range is empty or inverted, that have
// no matching DIE or scope, or whose expression does not parse are logged
// and skipped (spec.md §7's Absent Target); any other error aborts the
// whole run.
func (s *Session) Apply(script *Script) error {
	for _, se := range script.Entries {
		if err := s.applyOne(script, se); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) applyOne(script *Script, se ScriptEntry) error {
	if Skip(se.Variable) {
		logger.Logf(logger.Allow, "rewrite", "skipping synthetic variable %q", se.Variable)
		return nil
	}
	name := StripField(se.Variable)

	begin, end := s.rebase(script, se)
	if begin >= end {
		logger.Logf(logger.Allow, "rewrite", "skipping %q: empty or inverted range [%#x, %#x)", name, begin, end)
		return nil
	}

	die, parent, ok := Locate(s.Function, s.FuncScope, s.RangeResolver, s.UnitLowPC, name, begin, end)
	if !ok {
		logger.Logf(logger.Allow, "rewrite", "no matching DIE for variable %q in range [%#x, %#x)", name, begin, end)
		return nil
	}

	dieScope, hasScope := diewalk.ScopeOf(die, s.RangeResolver, s.UnitLowPC)
	if !hasScope {
		dieScope = s.FuncScope
	}

	record := ReadRecord(die, s.LocListReader, s.Table, s.UnitLowPC, dieScope)

	expr, err := locexpr.Parse(se.Expr)
	if err != nil {
		logger.Logf(logger.Allow, "rewrite", "skipping %q: %v", name, err)
		return nil
	}

	spliced, err := Splice(record.Entries, begin, end, expr)
	if err != nil {
		return err
	}

	id := s.Registry.Register(spliced)

	// When the DIE already carried a location list, overwrite its existing
	// AttrValue in place so the Section Emitter can patch the same byte span
	// with the new offset. When it instead carried an inline Exprloc or a
	// bare const value, the new DW_AT_location still fits in place without
	// growing the DIE whenever that prior attribute's on-disk span happens
	// to be exactly OffsetSize bytes wide — common for a single-opcode
	// expression or a small constant — so repurpose that span rather than
	// flagging a rebuild. Only a DIE with nothing of the right width to
	// repurpose needs NeedsRebuild, since inserting an attribute into one
	// that has none requires reflowing every offset after it in the section.
	locAttr, hasLoc := die.Attr(dwarf.AttrLocation)
	constAttr, hasConst := die.Attr(dwarf.AttrConstValue)

	switch {
	case hasLoc && locAttr.Class == dwarf.ClassLocListPtr:
		locAttr.U = uint64(id)
		locAttr.Rewritten = true

	case hasLoc && s.OffsetSize > 0 && int(locAttr.ValueLength) == s.OffsetSize:
		die.Attrs[dwarf.AttrLocation] = &diewalk.AttrValue{
			Class: dwarf.ClassLocListPtr, U: uint64(id), RawForm: formSecOffset, Rewritten: true,
			ValueOffset: locAttr.ValueOffset, ValueLength: locAttr.ValueLength,
		}

	case !hasLoc && hasConst && s.OffsetSize > 0 && int(constAttr.ValueLength) == s.OffsetSize:
		die.Attrs[dwarf.AttrLocation] = &diewalk.AttrValue{
			Class: dwarf.ClassLocListPtr, U: uint64(id), RawForm: formSecOffset, Rewritten: true,
			ValueOffset: constAttr.ValueOffset, ValueLength: constAttr.ValueLength,
		}
		delete(die.Attrs, dwarf.AttrConstValue)

	default:
		die.Attrs[dwarf.AttrLocation] = &diewalk.AttrValue{Class: dwarf.ClassLocListPtr, U: uint64(id), RawForm: formSecOffset, Rewritten: true}
		die.NeedsRebuild = true
	}

	if _, hadConst := die.Attr(dwarf.AttrConstValue); hadConst {
		delete(die.Attrs, dwarf.AttrConstValue)
		die.NeedsRebuild = true
	}

	if len(dieScope) == 0 && parent != nil && parent.Tag == dwarf.TagLexDwarfBlock {
		if _, hadRanges := parent.Attr(dwarf.AttrRanges); hadRanges {
			delete(parent.Attrs, dwarf.AttrRanges)
			parent.NeedsRebuild = true
		}
	}

	return nil
}

// formSecOffset is DW_FORM_sec_offset, the form DW_AT_location always uses
// once it refers to a location list rather than an inline expression.
const formSecOffset = 0x17

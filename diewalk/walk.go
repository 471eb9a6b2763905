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

import "debug/dwarf"

// Scope is an ordered set of half-open PC ranges during which a DIE is
// active (spec.md §3). A DIE given an empty DW_AT_ranges list gets an empty
// (nil) Scope; a DIE with no PC range of its own is told apart from it by
// ScopeOf's ok result, not by the Scope value.
type Scope []PCRange

// Contains reports whether pc falls inside any of the scope's ranges.
func (s Scope) Contains(pc uint64) bool {
	for _, r := range s {
		if pc >= r.Begin && pc < r.End {
			return true
		}
	}
	return false
}

// ScopeOf computes d's own scope from DW_AT_low_pc/DW_AT_high_pc or
// DW_AT_ranges (spec.md §4.5). ok is false when the DIE carries neither
// attribute, meaning it has no scope of its own and should inherit its
// parent's.
func ScopeOf(d *DIE, rr *RangeResolver, cuLowPC uint64) (Scope, bool) {
	if rangesAttr, ok := d.Attr(dwarf.AttrRanges); ok {
		return rr.Resolve(rangesAttr.U, cuLowPC), true
	}

	lowAttr, hasLow := d.Attr(dwarf.AttrLowpc)
	highAttr, hasHigh := d.Attr(dwarf.AttrHighpc)
	if !hasLow || !hasHigh {
		return nil, false
	}

	low := lowAttr.U
	var high uint64
	if highAttr.Class == dwarf.ClassAddress {
		high = highAttr.U
	} else {
		high = low + highAttr.U
	}

	return Scope{{Begin: low, End: high}}, true
}

// FindFunction scans the compile unit's top-level children for a
// subprogram DIE named name (spec.md §4.6), returning the DIE and its
// (low_pc, high_pc) range.
func FindFunction(tree *Tree, name string) (*DIE, PCRange, bool) {
	for _, d := range tree.Root.Children {
		if d.Tag != dwarf.TagSubprogram {
			continue
		}
		if d.Name() != name {
			continue
		}

		lowAttr, hasLow := d.Attr(dwarf.AttrLowpc)
		highAttr, hasHigh := d.Attr(dwarf.AttrHighpc)
		if !hasLow || !hasHigh {
			continue
		}

		low := lowAttr.U
		high := high(low, highAttr)
		return d, PCRange{Begin: low, End: high}, true
	}
	return nil, PCRange{}, false
}

func high(low uint64, highAttr *AttrValue) uint64 {
	if highAttr.Class == dwarf.ClassAddress {
		return highAttr.U
	}
	return low + highAttr.U
}

// Visitor is called once per descendant DIE during Walk, with the scope in
// effect at that DIE (spec.md §4.5's scope-propagation rule: a DIE without
// its own low_pc/high_pc/ranges inherits its parent's scope unchanged).
type Visitor func(d *DIE, scope Scope)

// Walk performs the depth-first traversal spec.md §4.5 describes, starting
// at root with the given initial scope, invoking visit for every descendant
// including root itself.
//
// The original design tracks scope via "DFS depth delta + last scope seen
// at this depth" because it walks a flat, non-materialised entry stream.
// Since ParseFirstUnit already builds a real tree, plain recursion achieves
// the identical propagation rule more directly: a child either computes its
// own scope or inherits the one passed down from its parent.
func Walk(root *DIE, initial Scope, rr *RangeResolver, cuLowPC uint64, visit Visitor) {
	var walk func(d *DIE, scope Scope)
	walk = func(d *DIE, scope Scope) {
		if own, ok := ScopeOf(d, rr, cuLowPC); ok {
			scope = own
		}
		visit(d, scope)
		for _, c := range d.Children {
			walk(c, scope)
		}
	}
	walk(root, initial)
}

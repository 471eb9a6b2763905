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
)

type candidate struct {
	die   *diewalk.DIE
	scope diewalk.Scope
}

// Locate implements spec.md §4.8 step 3: within fn's subtree, find the
// variable/formal_parameter DIE matching name whose enclosing scope best
// fits [s, e). When exactly one DIE matches the name, any overlap is
// tolerated; when several do, the deepest one whose scope fully contains
// the range wins. ok is false when no acceptable DIE is found — an Absent
// Target (spec.md §7), for the caller to log and skip.
func Locate(fn *diewalk.DIE, fnScope diewalk.Scope, rr *diewalk.RangeResolver, cuLowPC uint64, name string, s, e uint64) (die *diewalk.DIE, parent *diewalk.DIE, ok bool) {
	var candidates []candidate
	diewalk.Walk(fn, fnScope, rr, cuLowPC, func(d *diewalk.DIE, scope diewalk.Scope) {
		if d == fn {
			return
		}
		if d.Tag != dwarf.TagVariable && d.Tag != dwarf.TagFormalParameter {
			return
		}
		if d.Name() != name {
			return
		}
		candidates = append(candidates, candidate{die: d, scope: scope})
	})

	if len(candidates) == 0 {
		return nil, nil, false
	}
	if len(candidates) == 1 {
		return candidates[0].die, candidates[0].die.Parent, true
	}

	best := -1
	bestDepth := -1
	for i, c := range candidates {
		if !contains(c.scope, s, e) {
			continue
		}
		depth := depthOf(c.die)
		if depth > bestDepth {
			bestDepth = depth
			best = i
		}
	}
	if best < 0 {
		return nil, nil, false
	}
	return candidates[best].die, candidates[best].die.Parent, true
}

func contains(scope diewalk.Scope, s, e uint64) bool {
	for _, r := range scope {
		if r.Begin <= s && e <= r.End {
			return true
		}
	}
	return false
}

func depthOf(d *diewalk.DIE) int {
	depth := 0
	for p := d.Parent; p != nil; p = p.Parent {
		depth++
	}
	return depth
}

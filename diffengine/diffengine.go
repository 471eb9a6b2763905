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

// Package diffengine is the Diff Engine (Core A, spec.md §4.7): it compares
// a before/after pair of Coverage Engine results and classifies each PC in
// the externally supplied PC set as improved, missing, or unchanged.
package diffengine

import (
	"golang.org/x/exp/slices"

	"github.com/jsimonetti/dwarfrefine/coverage"
)

// Result is the tuple spec.md §4.7 names explicitly.
type Result struct {
	ImprovedPCs                 []uint64
	MissingPCs                  []uint64
	ImprovedOrMissingPCs        []uint64
	ImprovedOrMissingVars       []string
	ImprovedOrMissingPCVarPairs int
	ConstToNonConstCount        int
	MissingCount                int
}

// variableCoverage wraps a Coverage Engine result's per-variable interval map
// for per-PC lookups; each lookup scans that variable's intervals in order.
type variableCoverage struct {
	intervals map[string][]coverage.Interval
}

func index(r *coverage.Result) variableCoverage {
	return variableCoverage{intervals: r.Variables}
}

// at reports whether variable's coverage in this result contains pc, and if
// so whether that coverage is const.
func (v variableCoverage) at(variable string, pc uint64) (isConst bool, covered bool) {
	for _, iv := range v.intervals[variable] {
		if pc >= iv.Begin && pc < iv.End {
			return iv.IsConst, true
		}
	}
	return false, false
}

func (v variableCoverage) hasVariable(variable string) bool {
	_, ok := v.intervals[variable]
	return ok
}

// Compare runs spec.md §4.7's per-PC rules over pcSet (the same PC set both
// coverage runs were evaluated against) and before/after's variable maps.
func Compare(before, after *coverage.Result, pcSet []uint64) *Result {
	b := index(before)
	a := index(after)

	pcUnion := map[uint64]bool{}
	varUnion := map[string]bool{}
	var improved, missing []uint64
	pairs := 0

	variables := map[string]bool{}
	for name := range before.Variables {
		variables[name] = true
	}
	for name := range after.Variables {
		variables[name] = true
	}

	for _, pc := range pcSet {
		for variable := range variables {
			beforeConst, beforeCovered := b.at(variable, pc)
			afterConst, afterCovered := a.at(variable, pc)

			switch {
			case beforeCovered && beforeConst && afterCovered && !afterConst:
				improved = append(improved, pc)
				pcUnion[pc] = true
				varUnion[variable] = true
				pairs++

			case !b.hasVariable(variable) && afterCovered:
				missing = append(missing, pc)
				pcUnion[pc] = true
				varUnion[variable] = true
				pairs++

			case b.hasVariable(variable) && !beforeCovered && afterCovered:
				missing = append(missing, pc)
				pcUnion[pc] = true
				varUnion[variable] = true
				pairs++
			}
		}
	}

	res := &Result{
		ImprovedPCs:                 dedupSorted(improved),
		MissingPCs:                  dedupSorted(missing),
		ImprovedOrMissingPCs:        dedupSortedFromSet(pcUnion),
		ImprovedOrMissingVars:       sortedKeys(varUnion),
		ImprovedOrMissingPCVarPairs: pairs,
		ConstToNonConstCount:        len(improved),
		MissingCount:                len(missing),
	}
	return res
}

func dedupSorted(pcs []uint64) []uint64 {
	set := map[uint64]bool{}
	for _, pc := range pcs {
		set[pc] = true
	}
	return dedupSortedFromSet(set)
}

func dedupSortedFromSet(set map[uint64]bool) []uint64 {
	out := make([]uint64, 0, len(set))
	for pc := range set {
		out = append(out, pc)
	}
	slices.Sort(out)
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

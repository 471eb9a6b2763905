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

package coverage

import (
	"debug/dwarf"

	"golang.org/x/exp/slices"

	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/locexpr"
)

// Interval is one covered PC range for a variable, tagged with whether the
// location expression covering it classifies as const (spec.md §4.6).
type Interval struct {
	Begin, End uint64
	IsConst    bool
}

// Result is the Coverage Engine's output for one function: the per-variable
// interval sets, the externally supplied PC set the engine was run against,
// and the cumulative actual count (Σ insn_map[pc]) used in the Evaluator's
// CSV report line.
type Result struct {
	Variables   map[string][]Interval
	PCs         []uint64
	ActualCount uint64
}

// Evaluate runs the per-variable algorithm of spec.md §4.6 over every
// variable/formal_parameter descendant of fn, within fnScope, intersecting
// against pcSet (ascending, deduplicated, sentinel already filtered — see
// ParsePCSet) and using sizes for the "next-PC-or-size" tie-break.
//
// rr resolves DW_AT_ranges when a lexical block narrows scope further; llr
// resolves DW_AT_location location lists. cuLowPC is the compilation unit's
// base address, used the same way ScopeOf/RangeResolver use it elsewhere.
func Evaluate(fn *diewalk.DIE, fnScope diewalk.Scope, rr *diewalk.RangeResolver, llr *diewalk.LocListReader, cuLowPC uint64, pcSet []uint64, sizes map[uint64]int) *Result {
	e := &engine{
		rr:      rr,
		llr:     llr,
		cuLowPC: cuLowPC,
		pcSet:   pcSet,
		sizes:   sizes,
		insnMap: map[uint64]int{},
		out:     map[string][]Interval{},
	}

	diewalk.Walk(fn, fnScope, rr, cuLowPC, e.visit)

	for name, ivs := range e.out {
		slices.SortFunc(ivs, func(a, b Interval) int {
			switch {
			case a.Begin < b.Begin:
				return -1
			case a.Begin > b.Begin:
				return 1
			default:
				return 0
			}
		})
		e.out[name] = ivs
	}

	var actual uint64
	for _, n := range e.insnMap {
		actual += uint64(n)
	}

	return &Result{Variables: e.out, PCs: pcSet, ActualCount: actual}
}

type engine struct {
	rr      *diewalk.RangeResolver
	llr     *diewalk.LocListReader
	cuLowPC uint64
	pcSet   []uint64
	sizes   map[uint64]int
	insnMap map[uint64]int
	out     map[string][]Interval
}

func (e *engine) visit(d *diewalk.DIE, scope diewalk.Scope) {
	if d.Tag != dwarf.TagVariable && d.Tag != dwarf.TagFormalParameter {
		return
	}
	name := d.Name()
	if name == "" {
		return
	}

	if loc, ok := d.Attr(dwarf.AttrLocation); ok {
		switch loc.Class {
		case dwarf.ClassLocListPtr:
			e.fromLocList(name, loc.U, scope)
			return
		case dwarf.ClassExprLoc:
			if len(scope) > 0 {
				e.fromExprloc(name, loc.Bytes, scope)
			}
			return
		}
	}

	if _, ok := d.Attr(dwarf.AttrConstValue); ok && len(scope) > 0 {
		e.fromConstValue(name, scope)
	}
}

func (e *engine) fromLocList(name string, offset uint64, scope diewalk.Scope) {
	entries := e.llr.Read(offset, e.cuLowPC)
	for _, entry := range entries {
		isConst := locexpr.IsConst(entry.Expr)
		candidates := pcsInRange(e.pcSet, entry.Begin, entry.End)

		var run []uint64
		flush := func() {
			if len(run) == 0 {
				return
			}
			begin := run[0]
			last := run[len(run)-1]
			end := e.runEnd(last)
			e.emit(name, begin, end, isConst)
			for _, pc := range run {
				e.insnMap[pc]++
			}
			run = nil
		}

		for _, pc := range candidates {
			if scope.Contains(pc) {
				run = append(run, pc)
			} else {
				flush()
			}
		}
		flush()
	}
}

func (e *engine) fromExprloc(name string, expr []byte, scope diewalk.Scope) {
	isConst := locexpr.IsConst(expr)
	for _, r := range scope {
		e.emit(name, r.Begin, r.End, isConst)
		for _, pc := range pcsInRange(e.pcSet, r.Begin, r.End) {
			e.insnMap[pc]++
		}
	}
}

func (e *engine) fromConstValue(name string, scope diewalk.Scope) {
	for _, r := range scope {
		e.emit(name, r.Begin, r.End, true)
		for _, pc := range pcsInRange(e.pcSet, r.Begin, r.End) {
			e.insnMap[pc]++
		}
	}
}

func (e *engine) emit(name string, begin, end uint64, isConst bool) {
	e.out[name] = append(e.out[name], Interval{Begin: begin, End: end, IsConst: isConst})
}

// runEnd implements spec.md §4.6's tie-break: the end of a run is the next
// PC in the PC set strictly greater than last, or last+instruction_size if
// there is none.
func (e *engine) runEnd(last uint64) uint64 {
	idx, found := slices.BinarySearch(e.pcSet, last)
	if found && idx+1 < len(e.pcSet) {
		return e.pcSet[idx+1]
	}
	return last + uint64(e.sizes[last])
}

// pcsInRange returns the subslice of the ascending, deduplicated pcSet
// falling within [lb, le).
func pcsInRange(pcSet []uint64, lb, le uint64) []uint64 {
	lo, _ := slices.BinarySearch(pcSet, lb)
	hi, _ := slices.BinarySearch(pcSet, le)
	return pcSet[lo:hi]
}

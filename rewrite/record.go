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

	"golang.org/x/exp/slices"

	"github.com/jsimonetti/dwarfrefine/curated"
	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/objfile/leb128"
	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
)

// DW_OP_consts and DW_OP_stack_value, needed to synthesise the expression a
// bare DW_AT_const_value stands in for (spec.md §3's ConstAttr record).
const (
	opConsts     = 0x11
	opStackValue = 0x9f
)

// Kind classifies how a DIE currently carries its location, mirroring
// spec.md §3's Location Record variants.
type Kind int

const (
	Empty Kind = iota
	ReadLocList
	ReadSingle
	ConstAttr
)

// Entry is one [Begin, End) → expression record, either read from an
// existing location list or freshly spliced in. BeginAddr/EndAddr preserve
// the endpoint's Address Table identity (spec.md §4.8, "Address handling"):
// an untouched fragment keeps its original (usually Symbolic) endpoint,
// while a freshly cut boundary is always Constant.
type Entry struct {
	Begin, End         uint64
	BeginAddr, EndAddr reloc.Address
	Expr               []byte
}

// Record is the existing location information read off one DIE.
type Record struct {
	Kind       Kind
	Entries    []Entry
	ConstValue int64
}

// ReadRecord classifies d's current DW_AT_location/DW_AT_const_value into a
// Record, resolving a location-list reference through llr.
func ReadRecord(d *diewalk.DIE, llr *diewalk.LocListReader, table *reloc.Table, cuLowPC uint64, scope diewalk.Scope) Record {
	if loc, ok := d.Attr(dwarf.AttrLocation); ok {
		switch loc.Class {
		case dwarf.ClassLocListPtr:
			raw := llr.Read(loc.U, cuLowPC)
			entries := make([]Entry, len(raw))
			for i, e := range raw {
				entries[i] = Entry{
					Begin: e.Begin, End: e.End,
					BeginAddr: table.Get(e.BeginIdx), EndAddr: table.Get(e.EndIdx),
					Expr: e.Expr,
				}
			}
			return Record{Kind: ReadLocList, Entries: entries}

		case dwarf.ClassExprLoc:
			if len(scope) == 0 {
				return Record{Kind: Empty}
			}
			return Record{Kind: ReadSingle, Entries: scopeEntries(scope, loc.Bytes)}
		}
	}

	if cv, ok := d.Attr(dwarf.AttrConstValue); ok {
		if len(scope) == 0 {
			return Record{Kind: Empty}
		}
		expr := append([]byte{opConsts}, leb128.EncodeSLEB128(nil, cv.I)...)
		expr = append(expr, opStackValue)
		return Record{Kind: ConstAttr, ConstValue: cv.I, Entries: scopeEntries(scope, expr)}
	}

	return Record{Kind: Empty}
}

// scopeEntries synthesises one Entry per range of scope, each carrying the
// same expression — the shape both an inline Exprloc and a bare
// DW_AT_const_value take once spread across the variable's whole scope.
func scopeEntries(scope diewalk.Scope, expr []byte) []Entry {
	entries := make([]Entry, len(scope))
	for i, r := range scope {
		entries[i] = Entry{
			Begin: r.Begin, End: r.End,
			BeginAddr: reloc.Constant(int64(r.Begin)), EndAddr: reloc.Constant(int64(r.End)),
			Expr: expr,
		}
	}
	return entries
}

// Splice implements spec.md §4.8 step 5: given the existing entries of the
// Location Record chosen in step 4, insert the new entry [s, e) → newExpr,
// dropping or fragmenting any existing entry it overlaps, and returns the
// resulting list sorted by Begin.
func Splice(existing []Entry, s, e uint64, newExpr []byte) ([]Entry, error) {
	if s >= e {
		return nil, curated.Errorf("rewrite: invariant violation splicing [%#x, %#x)", s, e)
	}

	var out []Entry
	for _, en := range existing {
		frags, err := spliceOne(en, s, e)
		if err != nil {
			return nil, err
		}
		out = append(out, frags...)
	}

	out = append(out, Entry{
		Begin: s, End: e,
		BeginAddr: reloc.Constant(int64(s)), EndAddr: reloc.Constant(int64(e)),
		Expr: newExpr,
	})

	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Begin < b.Begin:
			return -1
		case a.Begin > b.Begin:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// spliceOne applies the seven cases of spec.md §4.8 step 5 to one existing
// entry [rb, re) against the new range [s, e), returning the fragments of
// the existing entry that survive (zero, one, or two).
func spliceOne(en Entry, s, e uint64) ([]Entry, error) {
	rb, re := en.Begin, en.End

	switch {
	case s >= re || e <= rb:
		return []Entry{en}, nil

	case s <= rb && e >= re:
		return nil, nil

	case s > rb && e < re:
		return []Entry{
			{Begin: rb, End: s, BeginAddr: en.BeginAddr, EndAddr: reloc.Constant(int64(s)), Expr: en.Expr},
			{Begin: e, End: re, BeginAddr: reloc.Constant(int64(e)), EndAddr: en.EndAddr, Expr: en.Expr},
		}, nil

	case s == rb && e < re:
		return []Entry{
			{Begin: e, End: re, BeginAddr: reloc.Constant(int64(e)), EndAddr: en.EndAddr, Expr: en.Expr},
		}, nil

	case s > rb && e == re:
		return []Entry{
			{Begin: rb, End: s, BeginAddr: en.BeginAddr, EndAddr: reloc.Constant(int64(s)), Expr: en.Expr},
		}, nil

	case s < rb && e >= rb && e < re:
		return []Entry{
			{Begin: e, End: re, BeginAddr: reloc.Constant(int64(e)), EndAddr: en.EndAddr, Expr: en.Expr},
		}, nil

	case rb < s && s < re && e > re:
		return []Entry{
			{Begin: rb, End: s, BeginAddr: en.BeginAddr, EndAddr: reloc.Constant(int64(s)), Expr: en.Expr},
		}, nil

	default:
		return nil, curated.Errorf("rewrite: interval arithmetic fell through all splice cases (rb=%#x re=%#x s=%#x e=%#x)", rb, re, s, e)
	}
}

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

package reloc_test

import (
	"testing"

	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
	"github.com/jsimonetti/dwarfrefine/test"
)

func TestNewTableReservesZeroEntry(t *testing.T) {
	tbl := reloc.NewTable()
	test.ExpectEquality(t, tbl.Len(), 1)
	test.ExpectEquality(t, tbl.Get(0), reloc.Constant(0))
}

func TestAddConstantZeroAlwaysReturnsIndexZero(t *testing.T) {
	tbl := reloc.NewTable()
	idx := tbl.Add(reloc.Constant(0))
	test.ExpectEquality(t, idx, 0)
	test.ExpectEquality(t, tbl.Len(), 1)
}

func TestAddAppendsNonZeroValues(t *testing.T) {
	tbl := reloc.NewTable()
	idx1 := tbl.Add(reloc.Constant(42))
	idx2 := tbl.Add(reloc.Symbol(3, "foo", 8))
	test.ExpectEquality(t, idx1, 1)
	test.ExpectEquality(t, idx2, 2)
	test.ExpectEquality(t, tbl.Len(), 3)
	test.ExpectEquality(t, tbl.Get(1), reloc.Constant(42))
	test.ExpectEquality(t, tbl.Get(2), reloc.Symbol(3, "foo", 8))
}

// the table tracks insertion identity, not value identity: inserting an
// equal value twice yields two distinct indices.
func TestAddDoesNotDeduplicateEqualNonZeroValues(t *testing.T) {
	tbl := reloc.NewTable()
	idx1 := tbl.Add(reloc.Constant(7))
	idx2 := tbl.Add(reloc.Constant(7))
	test.ExpectInequality(t, idx1, idx2)
}

func TestIsZero(t *testing.T) {
	test.ExpectEquality(t, reloc.Constant(0).IsZero(), true)
	test.ExpectEquality(t, reloc.Constant(1).IsZero(), false)
	test.ExpectEquality(t, reloc.Symbol(0, "x", 0).IsZero(), false)
}

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

package rewrite_test

import (
	"testing"

	"github.com/jsimonetti/dwarfrefine/rewrite"
	"github.com/jsimonetti/dwarfrefine/test"
)

func TestSkipRejectsLiteralExpressions(t *testing.T) {
	test.ExpectEquality(t, rewrite.Skip("42(SP)"), true)
}

func TestSkipRejectsRegisterNames(t *testing.T) {
	test.ExpectEquality(t, rewrite.Skip("%eax"), true)
}

func TestSkipRejectsSymbolPrefix(t *testing.T) {
	test.ExpectEquality(t, rewrite.Skip("symbol.foo"), true)
}

func TestSkipRejectsABISpillNames(t *testing.T) {
	test.ExpectEquality(t, rewrite.Skip("input.dst.0"), true)
	test.ExpectEquality(t, rewrite.Skip("input.src.1"), true)
}

func TestSkipRejectsPhiNodes(t *testing.T) {
	test.ExpectEquality(t, rewrite.Skip("x.phi3"), true)
}

func TestSkipAllowsOrdinaryNames(t *testing.T) {
	test.ExpectEquality(t, rewrite.Skip("x"), false)
	test.ExpectEquality(t, rewrite.Skip("count"), false)
}

func TestStripFieldRemovesTrailingComponent(t *testing.T) {
	test.ExpectEquality(t, rewrite.StripField("x.field"), "x")
	test.ExpectEquality(t, rewrite.StripField("x.a.b"), "x.a")
}

func TestStripFieldLeavesPlainNameUnchanged(t *testing.T) {
	test.ExpectEquality(t, rewrite.StripField("x"), "x")
}

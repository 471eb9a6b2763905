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

import "strings"

// Skip reports whether a script variable name is a compiler-generated
// synthetic local with no stable source-level identity to splice a location
// onto (spec.md §4.8 step 1): an SSA phi node, an ABI spill slot, or a
// literal expression standing in for a name.
func Skip(name string) bool {
	switch {
	case strings.Contains(name, "("):
		return true
	case strings.HasPrefix(name, "%"):
		return true
	case strings.HasPrefix(name, "symbol"):
		return true
	case strings.HasPrefix(name, "input.dst."):
		return true
	case strings.HasPrefix(name, "input.src."):
		return true
	case strings.Contains(name, "phi"):
		return true
	default:
		return false
	}
}

// StripField removes a trailing `.field` component from a script variable
// name, since the DIE tree only ever carries the containing variable.
func StripField(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return name
}

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

package reloc

// Address is the sum type spec.md §3 calls "Address": either a plain
// constant or a symbol-relative value. The zero value is Constant(0), which
// must round-trip as itself since DWARF uses it as a range-list sentinel.
type Address struct {
	Symbolic   bool
	SymbolID   int
	SymbolName string
	Addend     int64
}

// Constant builds a non-symbolic Address.
func Constant(v int64) Address {
	return Address{Addend: v}
}

// Symbol builds a symbol-relative Address.
func Symbol(id int, name string, addend int64) Address {
	return Address{Symbolic: true, SymbolID: id, SymbolName: name, Addend: addend}
}

// IsZero reports whether a is the canonical Constant(0).
func (a Address) IsZero() bool {
	return !a.Symbolic && a.Addend == 0
}

// Table is the Address Table (spec.md §3/§4.2, Core B only): an append-only
// sequence of Address values. Index 0 is reserved for Constant(0); every
// other Add appends a new index, even for a value already present, and an
// index never moves afterwards.
type Table struct {
	entries []Address
}

// NewTable creates a Table with Constant(0) pre-seated at index 0.
func NewTable() *Table {
	return &Table{entries: []Address{Constant(0)}}
}

// Add inserts a into the table, returning its index. Inserting Constant(0)
// always returns 0; any other value is appended and returned as
// 1 + previous length, even if an equal value was already present — the
// table tracks insertion identity, not just value identity.
func (t *Table) Add(a Address) int {
	if a.IsZero() {
		return 0
	}
	t.entries = append(t.entries, a)
	return len(t.entries) - 1
}

// Get returns the address previously stored at idx.
func (t *Table) Get(idx int) Address {
	return t.entries[idx]
}

// Len returns the number of entries in the table, including the reserved
// zero entry.
func (t *Table) Len() int {
	return len(t.entries)
}

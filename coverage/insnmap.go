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
	"bufio"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/jsimonetti/dwarfrefine/curated"
)

// SentinelPC is the default sentinel value that marks a placeholder PC in an
// instruction-map file (spec.md §6). ParsePCSet discards whichever sentinel
// its caller passes, which need not be this one.
const SentinelPC = 0x7fffffff

// ParsePCSet reads the instruction-map text format:
//
//	=insn_pcs
//	<index>:0x<hex-pc>
//	...
//	=End
//
// and returns the distinct, ascending-sorted set of PCs, with sentinel
// filtered out (config.Config.SentinelPC, defaulting to SentinelPC). A
// malformed header, a non-hex PC, or a missing terminator is an input-shape
// error (spec.md §7) and is returned to the caller to abort on.
func ParsePCSet(r io.Reader, sentinel uint64) ([]uint64, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return nil, curated.Errorf("instruction map: empty input")
	}
	if header := strings.TrimSpace(sc.Text()); header != "=insn_pcs" {
		return nil, curated.Errorf("instruction map: expected '=insn_pcs' header, got %q", header)
	}

	seen := map[uint64]bool{}
	var out []uint64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "=End" {
			slices.Sort(out)
			return out, nil
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, curated.Errorf("instruction map: malformed line %q", line)
		}

		hexPart := strings.TrimPrefix(line[idx+1:], "0x")
		pc, err := strconv.ParseUint(hexPart, 16, 64)
		if err != nil {
			return nil, curated.Errorf("instruction map: non-hex PC in %q: %v", line, err)
		}

		if pc == sentinel || seen[pc] {
			continue
		}
		seen[pc] = true
		out = append(out, pc)
	}
	if err := sc.Err(); err != nil {
		return nil, curated.Errorf("instruction map: %v", err)
	}

	return nil, curated.Errorf("instruction map: missing '=End' terminator")
}

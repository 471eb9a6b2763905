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

// Package rewrite is the Rewriter (Core B, spec.md §4.8): it reads a script
// of (variable, location expression, PC range) triples and splices each one
// into the matching DIE's location list.
package rewrite

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/jsimonetti/dwarfrefine/curated"
)

// ScriptEntry is one `<var>=<postfix-expr>\t0x<begin>->0x<end>` line under
// the script's `=Expressions` section, before PC rebasing.
type ScriptEntry struct {
	Variable string
	Expr     string
	Begin    uint64
	End      uint64
}

// Script is the parsed rewriter input (spec.md §6).
type Script struct {
	ZeroAddress uint64
	TotalPCs    uint64
	Function    string
	Entries     []ScriptEntry
}

// ParseScript reads the `=ZeroAddress`/`=TotalPCs`/`=Function`/`=Expressions`
// sections from r. A missing or out-of-order section header is an
// input-shape error (spec.md §7) and is fatal.
func ParseScript(r io.Reader) (*Script, error) {
	sc := bufio.NewScanner(r)
	s := &Script{}

	if _, err := expectHeader(sc, "=ZeroAddress"); err != nil {
		return nil, err
	}
	line, ok := nextNonEmpty(sc)
	if !ok {
		return nil, curated.Errorf("rewrite script: missing =ZeroAddress value")
	}
	addr, err := parseHex(line)
	if err != nil {
		return nil, curated.Errorf("rewrite script: bad =ZeroAddress value %q: %v", line, err)
	}
	s.ZeroAddress = addr

	if _, err := expectHeader(sc, "=TotalPCs"); err != nil {
		return nil, err
	}
	line, ok = nextNonEmpty(sc)
	if !ok {
		return nil, curated.Errorf("rewrite script: missing =TotalPCs value")
	}
	total, err := strconv.ParseUint(line, 10, 64)
	if err != nil {
		return nil, curated.Errorf("rewrite script: bad =TotalPCs value %q: %v", line, err)
	}
	s.TotalPCs = total

	if _, err := expectHeader(sc, "=Function"); err != nil {
		return nil, err
	}
	line, ok = nextNonEmpty(sc)
	if !ok {
		return nil, curated.Errorf("rewrite script: missing =Function value")
	}
	s.Function = line

	if _, err := expectHeader(sc, "=Expressions"); err != nil {
		return nil, err
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parseExpressionLine(line)
		if err != nil {
			return nil, err
		}
		s.Entries = append(s.Entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, curated.Errorf("rewrite script: %v", err)
	}

	return s, nil
}

func parseExpressionLine(line string) (ScriptEntry, error) {
	fields := strings.SplitN(line, "\t", 2)
	if len(fields) != 2 {
		return ScriptEntry{}, curated.Errorf("rewrite script: malformed expression line %q", line)
	}

	varExpr := strings.SplitN(fields[0], "=", 2)
	if len(varExpr) != 2 {
		return ScriptEntry{}, curated.Errorf("rewrite script: malformed variable=expression %q", fields[0])
	}

	rangePart := strings.SplitN(fields[1], "->", 2)
	if len(rangePart) != 2 {
		return ScriptEntry{}, curated.Errorf("rewrite script: malformed PC range %q", fields[1])
	}

	begin, err := parseHex(strings.TrimSpace(rangePart[0]))
	if err != nil {
		return ScriptEntry{}, curated.Errorf("rewrite script: bad begin PC %q: %v", rangePart[0], err)
	}
	end, err := parseHex(strings.TrimSpace(rangePart[1]))
	if err != nil {
		return ScriptEntry{}, curated.Errorf("rewrite script: bad end PC %q: %v", rangePart[1], err)
	}

	return ScriptEntry{
		Variable: varExpr[0],
		Expr:     varExpr[1],
		Begin:    begin,
		End:      end,
	}, nil
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	return strconv.ParseUint(s, 16, 64)
}

func expectHeader(sc *bufio.Scanner, want string) (string, error) {
	line, ok := nextNonEmpty(sc)
	if !ok {
		return "", curated.Errorf("rewrite script: expected header %q, reached end of input", want)
	}
	if line != want {
		return "", curated.Errorf("rewrite script: expected header %q, got %q", want, line)
	}
	return line, nil
}

func nextNonEmpty(sc *bufio.Scanner) (string, bool) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}

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

package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/jsimonetti/dwarfrefine/coverage"
	"github.com/jsimonetti/dwarfrefine/test"
)

func TestReportFormatsCSVLine(t *testing.T) {
	before := &coverage.Result{
		PCs:         []uint64{1, 2, 3, 4},
		ActualCount: 10,
		Variables: map[string][]coverage.Interval{
			"x": {{Begin: 0, End: 10, IsConst: true}},
		},
	}
	after := &coverage.Result{
		ActualCount: 15,
		Variables: map[string][]coverage.Interval{
			"x": {{Begin: 0, End: 10, IsConst: false}},
		},
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	report(cmd, "main", before, after)
	test.ExpectEquality(t, buf.String(), "main, 4/4, 1, 10/5/0\n")
}

func TestReportClampsNegativeExtraToZero(t *testing.T) {
	before := &coverage.Result{
		PCs:         []uint64{1},
		ActualCount: 10,
		Variables:   map[string][]coverage.Interval{},
	}
	after := &coverage.Result{
		ActualCount: 30, // large delta, no improved/missing pairs at all
		Variables:   map[string][]coverage.Interval{},
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	report(cmd, "f", before, after)
	test.ExpectEquality(t, buf.String(), "f, 1/0, 0, 10/20/0\n")
}

func TestReportClampsNegativeAfterDeltaToZero(t *testing.T) {
	before := &coverage.Result{
		PCs:         []uint64{1},
		ActualCount: 20,
		Variables:   map[string][]coverage.Interval{},
	}
	after := &coverage.Result{
		ActualCount: 5, // after ran with fewer covered PCs than before
		Variables:   map[string][]coverage.Interval{},
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	report(cmd, "g", before, after)
	test.ExpectEquality(t, buf.String(), "g, 1/0, 0, 20/0/0\n")
}

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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsimonetti/dwarfrefine/coverage"
	"github.com/jsimonetti/dwarfrefine/diffengine"
)

// report prints the CSV line spec.md §6 defines:
//
//	<func>, <total_pcs>/<improved_or_missing_pcs>, <improved_or_missing_vars>, <before_actual_count>/<after_delta>/<extra>
func report(cmd *cobra.Command, funcName string, before, after *coverage.Result) {
	diff := diffengine.Compare(before, after, before.PCs)

	afterDelta := int64(after.ActualCount) - int64(before.ActualCount)
	if afterDelta < 0 {
		afterDelta = 0
	}
	extra := int64(diff.ImprovedOrMissingPCVarPairs) - afterDelta
	if extra < 0 {
		extra = 0
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s, %d/%d, %d, %d/%d/%d\n",
		funcName,
		len(before.PCs), len(diff.ImprovedOrMissingPCs),
		len(diff.ImprovedOrMissingVars),
		before.ActualCount, afterDelta, extra,
	)
}

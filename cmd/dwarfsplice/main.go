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

// Command dwarfsplice is the Rewriter CLI (Core B, spec.md §6): it reads a
// rewrite script from stdin and splices its entries into the matching
// object file's DWARF location lists, producing a new object file.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jsimonetti/dwarfrefine/config"
	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/logger"
	"github.com/jsimonetti/dwarfrefine/objfile"
	"github.com/jsimonetti/dwarfrefine/objfile/reloc"
	"github.com/jsimonetti/dwarfrefine/objwrite"
	"github.com/jsimonetti/dwarfrefine/rewrite"
)

var (
	cfgFile    string
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:   "dwarfsplice <object>",
	Short: "Splice a rewrite script (read from stdin) into an object file's DWARF",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to a dwarfrefine.yaml config file")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output object path (default <object>+output_suffix)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	path := args[0]
	if outputPath == "" {
		outputPath = path + cfg.OutputSuffix
	}

	script, err := rewrite.ParseScript(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("dwarfsplice: %w", err)
	}

	f, err := objfile.Open(path)
	if err != nil {
		return fmt.Errorf("dwarfsplice: %w", err)
	}
	defer f.Close()

	table := reloc.NewTable()
	unit, err := diewalk.LoadUnit(f, table)
	if err != nil {
		return fmt.Errorf("dwarfsplice: %w", err)
	}

	fn, fnRange, ok := diewalk.FindFunction(unit.Tree, script.Function)
	if !ok {
		return fmt.Errorf("dwarfsplice: function %q not found", script.Function)
	}
	fnScope, ok := diewalk.ScopeOf(fn, unit.RangeResolver, unit.UnitLowPC)
	if !ok {
		fnScope = diewalk.Scope{{Begin: fnRange.Begin, End: fnRange.End}}
	}

	session := &rewrite.Session{
		Function:      fn,
		FuncScope:     fnScope,
		RangeResolver: unit.RangeResolver,
		LocListReader: unit.LocListReader,
		Table:         table,
		Registry:      rewrite.NewLocationListRegistry(),
		Relocatable:   f.Relocatable(),
		UnitLowPC:     unit.UnitLowPC,
		OffsetSize:    unit.Tree.OffsetSize,
	}
	if err := session.Apply(script); err != nil {
		return fmt.Errorf("dwarfsplice: %w", err)
	}

	sections := objwrite.Build(f, unit.Tree, unit.Tree.AddrSize, unit.Tree.OffsetSize, session.Registry)

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("dwarfsplice: %w", err)
	}
	defer out.Close()

	if err := objwrite.WriteObject(path, sections, out); err != nil {
		return fmt.Errorf("dwarfsplice: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outputPath)
	return nil
}

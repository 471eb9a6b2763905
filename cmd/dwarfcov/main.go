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

// Command dwarfcov is the Evaluator CLI (Core A, spec.md §6): it compares a
// variable's DWARF location coverage between a before/after pair of object
// files for one function and reports the improvement as a CSV line.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jsimonetti/dwarfrefine/config"
	"github.com/jsimonetti/dwarfrefine/coverage"
	"github.com/jsimonetti/dwarfrefine/diewalk"
	"github.com/jsimonetti/dwarfrefine/logger"
	"github.com/jsimonetti/dwarfrefine/objfile"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dwarfcov <before_obj> <after_obj> <func_name> <insn_map_file>",
	Short: "Compare DWARF variable-location coverage between two object files",
	Args:  cobra.ExactArgs(4),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to a dwarfrefine.yaml config file")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "raise the log level and dump the log tail on exit")
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
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	if verbose {
		defer logger.Tail(os.Stderr, 200)
	}

	beforePath, afterPath, funcName, insnMapPath := args[0], args[1], args[2], args[3]

	insnMapFile, err := os.Open(insnMapPath)
	if err != nil {
		return fmt.Errorf("dwarfcov: %w", err)
	}
	defer insnMapFile.Close()

	pcSet, err := coverage.ParsePCSet(insnMapFile, cfg.SentinelPC)
	if err != nil {
		return fmt.Errorf("dwarfcov: %w", err)
	}

	before, err := evaluate(beforePath, funcName, pcSet)
	if err != nil {
		return fmt.Errorf("dwarfcov: before object: %w", err)
	}
	after, err := evaluate(afterPath, funcName, pcSet)
	if err != nil {
		return fmt.Errorf("dwarfcov: after object: %w", err)
	}

	report(cmd, funcName, before, after)
	return nil
}

// evaluate opens path, locates funcName, and runs the Coverage Engine
// against pcSet (spec.md §4.6).
func evaluate(path, funcName string, pcSet []uint64) (*coverage.Result, error) {
	f, err := objfile.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	unit, err := diewalk.LoadUnit(f, nil)
	if err != nil {
		return nil, err
	}

	fn, fnRange, ok := diewalk.FindFunction(unit.Tree, funcName)
	if !ok {
		return nil, fmt.Errorf("function %q not found", funcName)
	}
	fnScope, ok := diewalk.ScopeOf(fn, unit.RangeResolver, unit.UnitLowPC)
	if !ok {
		fnScope = diewalk.Scope{{Begin: fnRange.Begin, End: fnRange.End}}
	}

	text, textAddr := f.Text()
	sizes := coverage.InstructionSizes(text, textAddr, fnRange.Begin, fnRange.End, f.Machine64Bit())

	return coverage.Evaluate(fn, fnScope, unit.RangeResolver, unit.LocListReader, unit.UnitLowPC, pcSet, sizes), nil
}

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

// Package config loads the optional ambient settings both CLIs accept: a
// dwarfrefine.yaml file, DWARFREFINE_* environment variables, or neither —
// every field has a spec-mandated default and both tools run unconfigured.
package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved set of ambient settings.
type Config struct {
	LogLevel     string
	SentinelPC   uint64
	OutputSuffix string
}

// Load reads cfgFile (if non-empty) or dwarfrefine.yaml from the current
// directory, overlays DWARFREFINE_* environment variables, and falls back to
// spec-mandated defaults for anything left unset.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("coverage.sentinel_pc", "0x7fffffff")
	v.SetDefault("rewrite.output_suffix", ".new")

	v.SetEnvPrefix("DWARFREFINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("dwarfrefine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, err
		}
	}

	sentinel, err := parseUintSetting(v.GetString("coverage.sentinel_pc"))
	if err != nil {
		return nil, err
	}

	return &Config{
		LogLevel:     v.GetString("log.level"),
		SentinelPC:   sentinel,
		OutputSuffix: v.GetString("rewrite.output_suffix"),
	}, nil
}

func parseUintSetting(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}

// Package config loads StrategyConfig from file and environment via
// viper, the ambient configuration concern named in SPEC_FULL.md — the
// teacher's go.mod carries viper but never calls it; this is its first
// wired use in the module.
package config

import (
	"strings"

	"github.com/atlas-desktop/backtest-workflow-engine/pkg/types"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix viper binds under
// (e.g. BACKTEST_INITIALBALANCE).
const EnvPrefix = "BACKTEST"

// Load reads a StrategyConfig from path (JSON or YAML, by extension),
// overlaying any BACKTEST_-prefixed environment variables, and
// validates the result.
func Load(path string) (types.StrategyConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return types.StrategyConfig{}, err
	}

	var cfg types.StrategyConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.StrategyConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return types.StrategyConfig{}, err
	}
	return cfg, nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/oakwood-commons/pausecomplete/internal/config"
	"github.com/oakwood-commons/pausecomplete/pkg/settings"
)

// resolveConfigPath returns the explicit path if set, otherwise
// $XDG_CONFIG_HOME/pausecomplete/config.yaml or ~/.config/pausecomplete/config.yaml
// when present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// loadConfig loads the merged config and applies flags the user set explicitly.
func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(resolveConfigPath(configFile))
	if err != nil {
		return cfg, err
	}
	if flags.Changed("rows") {
		cfg.Completion.MaxVisibleRows = maxRows
	}
	if flags.Changed("can-overflow") {
		cfg.Completion.PreviewCanOverflow = canOverflow
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

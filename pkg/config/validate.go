package config

import (
	"fmt"
	"strings"
)

// Validate checks the raw values against the ranges the daemon is willing
// to run with. Unset fields fall back to defaults and are always valid.
func (c *RawFileConfig) Validate() error {
	if c.CheckIntervalSeconds != nil {
		if *c.CheckIntervalSeconds < 1 {
			return fmt.Errorf("check interval must be at least 1 second, got %d", *c.CheckIntervalSeconds)
		}
		if *c.CheckIntervalSeconds > 3600 {
			return fmt.Errorf("check interval cannot exceed 3600 seconds, got %d", *c.CheckIntervalSeconds)
		}
	}

	if c.LowBatteryThreshold != nil {
		if *c.LowBatteryThreshold < 0 || *c.LowBatteryThreshold > 100 {
			return fmt.Errorf("low battery threshold must be between 0 and 100, got %d", *c.LowBatteryThreshold)
		}
	}

	if c.WindowOpacity != nil {
		if *c.WindowOpacity < 0 || *c.WindowOpacity > 1 {
			return fmt.Errorf("window opacity must be between 0.0 and 1.0, got %v", *c.WindowOpacity)
		}
	}

	if c.AlertColor != nil && !validColor(*c.AlertColor) {
		return fmt.Errorf("alert color must be in #RRGGBB form, got %q", *c.AlertColor)
	}

	if c.LowBatteryColor != nil && !validColor(*c.LowBatteryColor) {
		return fmt.Errorf("low battery color must be in #RRGGBB form, got %q", *c.LowBatteryColor)
	}

	return nil
}

func validColor(s string) bool {
	if !strings.HasPrefix(s, "#") || len(s) != 7 {
		return false
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if c.Store == "" {
		return fmt.Errorf("store must not be empty")
	}
	c.Mode = strings.ToLower(c.Mode)
	if c.Mode != ModeSPA && c.Mode != ModeStatic {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeSPA, ModeStatic, c.Mode)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if c.Pace < DefaultMinPace {
		return fmt.Errorf("pace must be at least %s", DefaultMinPace)
	}
	if c.Retries < 1 || c.Retries > DefaultMaxRetries {
		return fmt.Errorf("retries must be between 1 and %d", DefaultMaxRetries)
	}
	if c.Proxy != "" && c.ProxyFile != "" {
		return fmt.Errorf("use either proxy or proxy-file, not both")
	}
	if c.ProxyFile != "" && c.Mode == ModeSPA {
		return fmt.Errorf("proxy rotation needs static mode; use --proxy for a fixed browser proxy")
	}
	return nil
}

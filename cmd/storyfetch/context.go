package main

import (
	"errors"
	"strings"

	"storyfetch/internal/config"
)

// commandContext resolves the configuration once per invocation and shares
// it across subcommands.
type commandContext struct {
	configFlag *string
	positional string
	cfg        *config.Config
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) setConfigPath(path string) {
	c.positional = strings.TrimSpace(path)
}

// configPath picks the positional argument over the --config flag.
func (c *commandContext) configPath() (string, error) {
	if c.positional != "" {
		return c.positional, nil
	}
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path, nil
		}
	}
	return "", errors.New("configuration file path is required (pass it as the first argument or via --config)")
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path, err := c.configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

var getenvFn = os.Getenv
var homeDirFn = homedir.Dir

// DefaultPath returns $XDG_CONFIG_HOME/pkgtrim/config.toml, falling back to
// ~/.config/pkgtrim/config.toml.
func DefaultPath() (string, error) {
	if dir := getenvFn("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pkgtrim", "config.toml"), nil
	}
	home, err := homeDirFn()
	if err != nil {
		return "", fmt.Errorf(messages.ConfigResolveHomeFmt, err)
	}
	return filepath.Join(home, ".config", "pkgtrim", "config.toml"), nil
}

// ExpandPath resolves a leading "~" in path.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// expandPaths resolves "~" in every path-valued field.
func (c *Config) expandPaths() error {
	var err error
	if c.PacmanConf, err = ExpandPath(c.PacmanConf); err != nil {
		return err
	}
	if c.DBPath, err = ExpandPath(c.DBPath); err != nil {
		return err
	}
	for i, dir := range c.CacheDirs {
		if c.CacheDirs[i], err = ExpandPath(dir); err != nil {
			return err
		}
	}
	return nil
}

package util

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	Prompt        string `toml:"prompt"`
	HistoryFile   string `toml:"history-file"`
	MaxStackBytes int    `toml:"max-stack-bytes"`
}

func DefaultConfiguration() Configuration {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Configuration{
		Prompt:      "> ",
		HistoryFile: filepath.Join(home, ".crisp_history"),
	}
}

// DefaultConfigPath is where LoadConfiguration looks when no -config flag is
// given; a missing file there is not an error.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".crisp.toml")
}

func LoadConfiguration(path string, cfg *Configuration) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

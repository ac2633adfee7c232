package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	InputPath string // top .mbk file, or a directory holding one
	OutputDir string
	Toolsets  []string // empty means use the project's toolsets list
	Dump      bool     // dump the finalized model instead of generating

	LogFormat string
	LogLevel  string
	LogFile   string // when set, logs go to this file with rotation
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.InputPath == "" {
		return nil, errors.New("InputPath is a required configuration field and cannot be empty")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &cfg, nil
}

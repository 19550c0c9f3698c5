// Package logger builds the zap logger for flagz.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/config"
)

// New returns a production or development logger depending on cfg.Env.
// When toFile is set, output goes to cfg.Log.File (or DefaultLogPath) so
// it doesn't interfere with the terminal UI.
func New(cfg *config.Config, toFile bool) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Production() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg.Level = level

	if toFile || cfg.Log.File != "" {
		path := cfg.Log.File
		if path == "" {
			if path, err = DefaultLogPath(); err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		zcfg.OutputPaths = []string{path}
		zcfg.ErrorOutputPaths = []string{path}
	}

	return zcfg.Build()
}

// DefaultLogPath returns $XDG_STATE_HOME/flagz/flagz.log, falling back to
// ~/.local/state/flagz/flagz.log.
func DefaultLogPath() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "flagz", "flagz.log"), nil
}

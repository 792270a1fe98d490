package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/litedoc/pkg/adapters/sqlite"
	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/mapper"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
)

// Settings is the resolved view of the options that outlive Init.
type Settings struct {
	Logger *slog.Logger
	Naming mapper.Namer
}

// Resolve applies opts and returns the settings consumers need after the
// engine is open. The logger is never nil.
func Resolve(opts ...Option) Settings {
	o := apply(opts)
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	naming := o.naming
	if naming == nil {
		naming = mapper.TypeName
	}
	return Settings{Logger: logger, Naming: naming}
}

// Init opens the engine for a connection target.
// The 'uri' argument is adapter-specific: a file path or a
// "Filename=...;Connection=shared" string for 'sqlite', ignored for 'memory'.
//
// It returns the opened core.Engine; the caller owns it.
func Init(uri string, opts ...Option) (core.Engine, error) {
	o := apply(opts)

	// 1. Check for injected engine
	if o.engine != nil {
		return o.engine, nil
	}

	// 2. Initialize based on Adapter
	switch o.adapter {
	case AdapterSQLite, "":
		return initSQLite(uri, o)
	case AdapterMemory:
		return initSQLite(sqlite.MemoryFilename, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// initSQLite handles the initialization logic for the SQLite adapter.
func initSQLite(uri string, o *options) (core.Engine, error) {
	cs, err := sqlite.ParseConnectionString(uri)
	if err != nil {
		return nil, err
	}

	readOnly, _ := o.config["read_only"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	if timeout, ok := o.config["timeout"].(time.Duration); ok && timeout > 0 {
		cs.Timeout = timeout
	}
	if readOnly {
		cs.ReadOnly = true
	}

	if !cs.InMemory() {
		_, statErr := os.Stat(cs.Filename)
		missing := errors.Is(statErr, os.ErrNotExist)
		switch {
		case missing && (mustExist || cs.ReadOnly):
			return nil, fmt.Errorf("database %s does not exist", cs.Filename)
		case missing:
			if dir := filepath.Dir(cs.Filename); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}
		}
	}

	if o.logger != nil {
		o.logger.Debug("opening engine",
			"adapter", o.adapter,
			"filename", cs.Filename,
			"mode", cs.Mode,
			"read_only", cs.ReadOnly)
	}

	return sqlite.Open(context.Background(), cs, sqlite.Config{Logger: o.logger})
}

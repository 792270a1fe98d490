package sqlite

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/litedoc/pkg/core"
)

// Connection modes.
const (
	ModeDirect = "direct"
	ModeShared = "shared"
)

// MemoryFilename selects a private in-memory store.
const MemoryFilename = ":memory:"

const defaultTimeout = 5 * time.Second

// ConnectionString is the parsed form of a connection target.
type ConnectionString struct {
	Filename string
	Mode     string
	ReadOnly bool
	Timeout  time.Duration
}

// ParseConnectionString accepts either a bare file path or a list of
// Key=Value pairs separated by semicolons:
//
//	Filename=data.db;Connection=shared;ReadOnly=false;Timeout=10s
//
// Keys are case-insensitive. Timeout accepts a Go duration or whole seconds.
func ParseConnectionString(target string) (ConnectionString, error) {
	cs := ConnectionString{
		Mode:    ModeDirect,
		Timeout: defaultTimeout,
	}

	target = strings.TrimSpace(target)
	if target == "" {
		return cs, fmt.Errorf("%w: empty target", core.ErrInvalidConnectionString)
	}

	if !strings.Contains(target, "=") {
		cs.Filename = target
		return cs, nil
	}

	for _, part := range strings.Split(target, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return cs, fmt.Errorf("%w: %q is not a key=value pair", core.ErrInvalidConnectionString, part)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "filename":
			cs.Filename = value
		case "connection":
			mode := strings.ToLower(value)
			if mode != ModeDirect && mode != ModeShared {
				return cs, fmt.Errorf("%w: unknown connection mode %q", core.ErrInvalidConnectionString, value)
			}
			cs.Mode = mode
		case "readonly", "read only":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return cs, fmt.Errorf("%w: readonly: %v", core.ErrInvalidConnectionString, err)
			}
			cs.ReadOnly = b
		case "timeout":
			d, err := parseTimeout(value)
			if err != nil {
				return cs, fmt.Errorf("%w: timeout: %v", core.ErrInvalidConnectionString, err)
			}
			cs.Timeout = d
		default:
			return cs, fmt.Errorf("%w: unknown key %q", core.ErrInvalidConnectionString, key)
		}
	}

	if cs.Filename == "" {
		return cs, fmt.Errorf("%w: missing Filename", core.ErrInvalidConnectionString)
	}
	return cs, nil
}

func parseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// InMemory reports whether the target is a private in-memory store.
func (cs ConnectionString) InMemory() bool {
	return cs.Filename == MemoryFilename
}

// String renders the connection string back in Key=Value form.
func (cs ConnectionString) String() string {
	return fmt.Sprintf("Filename=%s;Connection=%s;ReadOnly=%t;Timeout=%s",
		cs.Filename, cs.Mode, cs.ReadOnly, cs.Timeout)
}

// Package store defines the StateStore interface for persisting cumulative
// simulation state, and its file, SQLite, Redis and in-memory backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvandessel/penney/internal/simulation"
)

// ErrMalformed reports persisted content that does not have the expected shape.
var ErrMalformed = errors.New("malformed store content")

// StateStore loads and saves the cumulative state of all runs.
// A missing store loads as the zero State.
type StateStore interface {
	// Load reads the complete state.
	Load(ctx context.Context) (simulation.State, error)

	// Save overwrites the complete state.
	Save(ctx context.Context, state simulation.State) error

	// Location describes where the state lives, for logs and reports.
	Location() string

	// Close releases any underlying resources.
	Close() error
}

// Backend names a StateStore implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Valid reports whether b names a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendFile, BackendSQLite, BackendRedis, BackendMemory:
		return true
	}
	return false
}

// Options selects and configures a backend.
type Options struct {
	Backend Backend

	// File backend
	DataFile      string
	DeckFile      string
	WinCountsFile string

	// SQLite backend
	SQLitePath string

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open creates the StateStore described by opts.
func Open(ctx context.Context, opts Options) (StateStore, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStateStore(opts.DataFile, opts.DeckFile, opts.WinCountsFile), nil
	case BackendSQLite:
		return NewSQLiteStateStore(ctx, opts.SQLitePath)
	case BackendRedis:
		return NewRedisStateStore(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	case BackendMemory:
		return NewMemoryStateStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (valid: file, sqlite, redis, memory)", opts.Backend)
	}
}

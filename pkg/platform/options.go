package platform

import (
	"database/sql"
	"time"

	"github.com/txn2/chat-platform/pkg/generation"
)

// Options configures the platform beyond its Config.
type Options struct {
	// DB is an open PostgreSQL connection. When set it is used instead of
	// database.dsn and is not closed by the platform.
	DB *sql.DB

	// Generator replaces the provider named in generation.provider.
	Generator generation.Generator

	// Version is reported by the MCP server.
	Version string

	// Now replaces the wall clock of the chat services.
	Now func() time.Time
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithDB sets the database connection.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithGenerator sets the text generator.
func WithGenerator(g generation.Generator) Option {
	return func(o *Options) {
		o.Generator = g
	}
}

// WithVersion sets the reported version.
func WithVersion(v string) Option {
	return func(o *Options) {
		o.Version = v
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

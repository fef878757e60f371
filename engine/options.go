package engine

import (
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/vegasq/salesql/frame"
)

// Option configures a DB
type Option func(*DB)

// WithLogger sets the logger statements are logged to at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// WithClock sets the clock used to time statements
func WithClock(clock clockwork.Clock) Option {
	return func(db *DB) {
		if clock != nil {
			db.clock = clock
		}
	}
}

// WithWorkers sets how many files one scan reads in parallel
func WithWorkers(n int) Option {
	return func(db *DB) {
		if n > 0 {
			db.workers = n
		}
	}
}

// ExecOption configures a single Exec call
type ExecOption func(*execConfig)

type execConfig struct {
	frames map[string]*frame.DataFrame
}

// WithFrame makes df resolvable as name for the duration of one call. The
// frame is used as is, not copied. Catalog objects with the same name take
// precedence.
func WithFrame(name string, df *frame.DataFrame) ExecOption {
	return func(c *execConfig) {
		if c.frames == nil {
			c.frames = make(map[string]*frame.DataFrame)
		}
		c.frames[strings.ToLower(name)] = df
	}
}

// Package config turns command-line flags and SALESQL_* environment variables
// into a validated Config.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/vegasq/salesql/output"
)

// EnvPrefix prefixes every environment variable the CLI reads
const EnvPrefix = "SALESQL_"

// ErrInvalid is returned when a flag or environment value fails validation
var ErrInvalid = errors.New("invalid configuration")

// Config holds the CLI settings
type Config struct {
	Dataset string // CSV glob
	Query   string // statements to run instead of the exploration
	Format  string // table, json or csv
	Preview int    // rows printed for previews
	Workers int    // parallel file reads per scan
	Verbose bool   // debug logging
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Dataset: "dataset/*.csv",
		Format:  "table",
		Preview: 10,
		Workers: 1,
	}
}

// LookupEnv matches os.LookupEnv
type LookupEnv func(key string) (string, bool)

// Load parses args (without the program name). An environment variable
// replaces a flag's default but not a value given on the command line.
func Load(args []string, lookup LookupEnv) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("salesql", flag.ContinueOnError)
	fs.StringVar(&cfg.Dataset, "dataset", cfg.Dataset, "CSV glob to explore (or set SALESQL_DATASET env var)")
	fs.StringVarP(&cfg.Query, "query", "q", cfg.Query, "run SQL statements instead of the exploration; the dataset is bound as df (or set SALESQL_QUERY env var)")
	fs.StringVarP(&cfg.Format, "format", "f", cfg.Format, "output format: table, json or csv (or set SALESQL_FORMAT env var)")
	fs.IntVar(&cfg.Preview, "preview", cfg.Preview, "rows shown for previews (or set SALESQL_PREVIEW env var)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "files read in parallel per scan (or set SALESQL_WORKERS env var)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable verbose (debug) logging (or set SALESQL_VERBOSE=true env var)")

	fs.Usage = func() {
		w := fs.Output()
		fmt.Fprintf(w, "Usage: salesql [options]\n\n")
		fmt.Fprintf(w, "Explore sales CSV files with SQL.\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  salesql --dataset 'dataset/*.csv'\n")
		fmt.Fprintf(w, "  salesql -q \"SELECT Product, COUNT(*) FROM df GROUP BY ALL\"\n")
		fmt.Fprintf(w, "  salesql -f csv -q \"FROM 'dataset/*.csv' LIMIT 5\"\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrInvalid, fs.Args())
	}

	if lookup != nil {
		if err := applyEnv(fs, lookup); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv sets every flag not given on the command line from its
// SALESQL_<NAME> variable
func applyEnv(fs *flag.FlagSet, lookup LookupEnv) error {
	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		if f.Changed {
			return
		}
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		value, ok := lookup(name)
		if !ok || value == "" {
			return
		}
		if err := f.Value.Set(value); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, name, value, err))
		}
	})
	return errors.Join(errs...)
}

// Validate checks field ranges and the output format
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Dataset) == "" {
		errs = append(errs, "dataset must not be empty")
	}
	if _, err := output.NewFormatter(c.Format, nil); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Preview < 1 {
		errs = append(errs, "preview must be at least 1, got "+strconv.Itoa(c.Preview))
	}
	if c.Workers < 1 || c.Workers > 64 {
		errs = append(errs, "workers must be between 1 and 64, got "+strconv.Itoa(c.Workers))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}

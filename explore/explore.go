// Package explore runs the sales exploration: it loads the order CSVs two
// ways, times both, then derives a typed sales table and an aggregated view
// with SQL.
package explore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/vegasq/salesql/engine"
	"github.com/vegasq/salesql/frame"
	"github.com/vegasq/salesql/output"
	"github.com/vegasq/salesql/reader"
)

// DefaultPattern is the dataset glob used when Options.Pattern is empty
const DefaultPattern = "dataset/*.csv"

// Statements run by the exploration, in order
const (
	RegisteredName = "df_view"
	FrameName      = "df"

	CreateSalesSQL = `CREATE OR REPLACE TABLE sales AS
	SELECT
		"Order ID"::INTEGER AS order_id,
		Product AS product,
		"Quantity Ordered"::INTEGER AS quantity,
		"Price"::VARCHAR AS price,
		"Purchase Address" AS purchase_address
	FROM df
	WHERE
		TRY_CAST("Order ID" AS INTEGER) NOTNULL`

	ExcludeSQL    = `SELECT * EXCLUDE (product, purchase_address) FROM sales`
	MinColumnsSQL = `SELECT MIN(COLUMNS(* EXCLUDE (product, purchase_address))) FROM sales`

	AggregatedSalesSQL = `CREATE OR REPLACE VIEW aggregated_sales AS
	SELECT
		order_id,
		COUNT(1) as nb_orders,
		str_split(purchase_address, ',')[2] AS city,
		SUM(quantity * price_each) AS revenue
	FROM sales
	GROUP BY ALL`
)

// Options configures Run
type Options struct {
	Pattern   string           // dataset glob (DefaultPattern when empty)
	Preview   int              // rows printed for previews (10 when <= 0)
	Out       io.Writer        // os.Stdout when nil
	Formatter output.Formatter // table formatter when nil
	Clock     clockwork.Clock
	Logger    *slog.Logger
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// runner holds the state steps hand to each other
type runner struct {
	db     *engine.DB
	opts   Options
	format output.Formatter

	df *frame.DataFrame
}

// Run executes the exploration against db. The first failing step ends the
// run; its error is wrapped with the step name.
func Run(ctx context.Context, db *engine.DB, opts Options) error {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.Preview <= 0 {
		opts.Preview = 10
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	format := opts.Formatter
	if format == nil {
		format = output.NewTableFormatter(opts.Out)
	}
	format.SetOutput(opts.Out)

	r := &runner{db: db, opts: opts, format: format}
	for _, s := range r.steps() {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := opts.Clock.Now()
		if err := s.run(ctx); err != nil {
			opts.Logger.Debug("step failed", "step", s.name, "error", err)
			return fmt.Errorf("%s: %w", s.name, err)
		}
		opts.Logger.Debug("step done", "step", s.name, "elapsed", opts.Clock.Since(start))
	}
	return nil
}

func (r *runner) steps() []step {
	return []step{
		{"load with dataframe", r.loadFrames},
		{"query files", r.queryFiles},
		{"load and register", r.loadAndRegister},
		{"describe", r.describe},
		{"count rows", r.countRows},
		{"drop nulls", r.dropNulls},
		{"point lookup", r.pointLookup},
		{"create sales", r.createSales},
		{"project sales", r.projectSales},
		{"create aggregated_sales", r.createAggregatedSales},
	}
}

// sourceSQL quotes the dataset pattern as a file source
func (r *runner) sourceSQL() string {
	return "'" + strings.ReplaceAll(r.opts.Pattern, "'", "''") + "'"
}

func (r *runner) timed(fn func() error) error {
	start := r.opts.Clock.Now()
	if err := fn(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.opts.Out, "time: %v\n", r.opts.Clock.Since(start).Seconds())
	return err
}

func (r *runner) print(df *frame.DataFrame) error {
	return r.format.Format(df)
}

// query runs sql with the current dataframe bound as df and prints the result
func (r *runner) query(ctx context.Context, sql string) error {
	df, err := r.db.Exec(ctx, sql, engine.WithFrame(FrameName, r.df))
	if err != nil {
		return err
	}
	return r.print(df)
}

func (r *runner) loadFrames(ctx context.Context) error {
	var df *frame.DataFrame
	err := r.timed(func() error {
		files, err := reader.Glob(r.opts.Pattern)
		if err != nil {
			return err
		}
		frames := make([]*frame.DataFrame, 0, len(files))
		for _, f := range files {
			part, err := reader.ReadCSVContext(ctx, f)
			if err != nil {
				return err
			}
			r.opts.Logger.Debug("file loaded", "path", f, "rows", part.Len())
			frames = append(frames, part)
		}
		df, err = frame.Concat(frames...)
		return err
	})
	if err != nil {
		return err
	}
	return r.print(df.Head(r.opts.Preview))
}

func (r *runner) queryFiles(ctx context.Context) error {
	var df *frame.DataFrame
	err := r.timed(func() error {
		var err error
		df, err = r.db.Exec(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", r.sourceSQL(), r.opts.Preview))
		return err
	})
	if err != nil {
		return err
	}
	return r.print(df)
}

func (r *runner) loadAndRegister(ctx context.Context) error {
	df, err := r.db.Exec(ctx, "SELECT * FROM "+r.sourceSQL())
	if err != nil {
		return err
	}
	r.df = df
	return r.db.Register(RegisteredName, df)
}

func (r *runner) describe(ctx context.Context) error {
	return r.query(ctx, "DESCRIBE "+RegisteredName)
}

func (r *runner) countRows(ctx context.Context) error {
	if err := r.query(ctx, "SELECT COUNT(*) FROM "+RegisteredName); err != nil {
		return err
	}
	return r.query(ctx, "SELECT COUNT(*) FROM "+FrameName)
}

// dropNulls replaces the working frame only; df_view keeps its snapshot
func (r *runner) dropNulls(ctx context.Context) error {
	if err := r.print(r.df.NullCounts()); err != nil {
		return err
	}
	r.df = r.df.DropNulls(frame.DropAll)
	return r.query(ctx, "SELECT COUNT(*) FROM "+FrameName)
}

func (r *runner) pointLookup(ctx context.Context) error {
	return r.query(ctx, `SELECT * FROM df WHERE "Order ID"='295665'`)
}

func (r *runner) createSales(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, CreateSalesSQL, engine.WithFrame(FrameName, r.df)); err != nil {
		return err
	}
	return r.query(ctx, "FROM sales")
}

func (r *runner) projectSales(ctx context.Context) error {
	if err := r.query(ctx, ExcludeSQL); err != nil {
		return err
	}
	return r.query(ctx, MinColumnsSQL)
}

func (r *runner) createAggregatedSales(ctx context.Context) error {
	_, err := r.db.Exec(ctx, AggregatedSalesSQL)
	return err
}

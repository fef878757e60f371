// Package engine is the in-process database handle: a catalog of tables,
// views and registered frames plus statement dispatch on top of the query
// package.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/vegasq/salesql/frame"
	"github.com/vegasq/salesql/query"
	"github.com/vegasq/salesql/reader"
)

type objectKind int

const (
	kindTable objectKind = iota
	kindView
	kindFrame
)

func (k objectKind) String() string {
	switch k {
	case kindView:
		return "view"
	case kindFrame:
		return "registered frame"
	default:
		return "table"
	}
}

// object is one catalog entry. Tables and registered frames hold data, views
// hold their bound query.
type object struct {
	name string
	kind objectKind
	df   *frame.DataFrame
	view *query.SelectStmt
}

// DB is an in-memory analytical database. It is safe for concurrent use.
type DB struct {
	mu      sync.RWMutex
	objects map[string]*object
	closed  bool

	logger  *slog.Logger
	clock   clockwork.Clock
	workers int
}

// Open creates an empty database
func Open(opts ...Option) *DB {
	db := &DB{
		objects: make(map[string]*object),
		logger:  slog.New(slog.DiscardHandler),
		clock:   clockwork.NewRealClock(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Close drops every catalog object. Further calls fail with ErrClosed.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	db.closed = true
	db.objects = nil
	return nil
}

func key(name string) string {
	return strings.ToLower(name)
}

// Register stores a snapshot of df under name. Later changes to df are not
// visible through the name. A frame already registered under name is
// replaced; a table or view is not.
func (db *DB) Register(name string, df *frame.DataFrame) error {
	if err := query.ValidateIdentifier(name); err != nil {
		return err
	}
	snapshot := df.Clone()

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	if existing, ok := db.objects[key(name)]; ok && existing.kind != kindFrame {
		return fmt.Errorf("%w: %s %s", ErrAlreadyExists, existing.kind, existing.name)
	}
	db.objects[key(name)] = &object{name: name, kind: kindFrame, df: snapshot}
	db.logger.Debug("frame registered", "name", name, "rows", snapshot.Len(), "columns", snapshot.Width())
	return nil
}

// Unregister removes a registered frame
func (db *DB) Unregister(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	existing, ok := db.objects[key(name)]
	if !ok || existing.kind != kindFrame {
		return fmt.Errorf("%w: no frame registered as %s", ErrNotFound, name)
	}
	delete(db.objects, key(name))
	return nil
}

// Exec runs one or more statements and returns the result of the last one.
// DDL statements return an empty frame.
func (db *DB) Exec(ctx context.Context, sql string, opts ...ExecOption) (*frame.DataFrame, error) {
	results, err := db.ExecScript(ctx, sql, opts...)
	if err != nil {
		return nil, err
	}
	return results[len(results)-1], nil
}

// ExecScript runs semicolon-separated statements in order and returns every
// result. It stops at the first failing statement.
func (db *DB) ExecScript(ctx context.Context, sql string, opts ...ExecOption) ([]*frame.DataFrame, error) {
	if db.isClosed() {
		return nil, ErrClosed
	}

	stmts, err := query.ParseScript(sql)
	if err != nil {
		return nil, err
	}

	var cfg execConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	results := make([]*frame.DataFrame, 0, len(stmts))
	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := db.clock.Now()
		df, err := db.execStatement(ctx, stmt, &cfg)
		if err != nil {
			return nil, err
		}
		db.logger.Debug("statement executed",
			"statement", statementKind(stmt),
			"rows", df.Len(),
			"elapsed", db.clock.Since(start))
		results = append(results, df)
	}
	return results, nil
}

func (db *DB) isClosed() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.closed
}

func statementKind(stmt query.Statement) string {
	switch s := stmt.(type) {
	case *query.SelectStmt:
		return "SELECT"
	case *query.CreateStmt:
		return "CREATE " + s.Kind.String()
	case *query.DropStmt:
		return "DROP " + s.Kind.String()
	case *query.DescribeStmt:
		return "DESCRIBE"
	case *query.ShowTablesStmt:
		return "SHOW TABLES"
	default:
		return fmt.Sprintf("%T", stmt)
	}
}

func (db *DB) execStatement(ctx context.Context, stmt query.Statement, cfg *execConfig) (*frame.DataFrame, error) {
	res := &resolver{db: db, frames: cfg.frames}
	exec := query.NewExecutor(res)

	switch s := stmt.(type) {
	case *query.SelectStmt:
		return exec.Query(ctx, s)
	case *query.CreateStmt:
		return db.create(ctx, exec, s)
	case *query.DropStmt:
		return db.drop(s)
	case *query.DescribeStmt:
		return db.describe(ctx, exec, res, s)
	case *query.ShowTablesStmt:
		return db.showTables()
	default:
		return nil, fmt.Errorf("%w: unsupported statement %T", query.ErrSyntax, stmt)
	}
}

// create runs CREATE TABLE (materialized) and CREATE VIEW (bound now,
// evaluated on every read)
func (db *DB) create(ctx context.Context, exec *query.Executor, s *query.CreateStmt) (*frame.DataFrame, error) {
	if done, err := db.checkCreate(s); done || err != nil {
		return frame.Empty(), err
	}

	obj := &object{name: s.Name, kind: kindTable}
	if s.Kind == query.KindView {
		if _, err := exec.Describe(ctx, s.Query); err != nil {
			return nil, fmt.Errorf("failed to create view %s: %w", s.Name, err)
		}
		obj.kind = kindView
		obj.view = s.Query
	} else {
		df, err := exec.Query(ctx, s.Query)
		if err != nil {
			return nil, fmt.Errorf("failed to create table %s: %w", s.Name, err)
		}
		obj.df = df
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrClosed
	}
	// the name may have been taken while the query ran
	if _, exists := db.objects[key(s.Name)]; exists && !s.OrReplace {
		if s.IfNotExists {
			return frame.Empty(), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, s.Name)
	}
	db.objects[key(s.Name)] = obj
	return frame.Empty(), nil
}

// checkCreate reports whether CREATE is a no-op (IF NOT EXISTS on an
// existing name) or must fail before running its query
func (db *DB) checkCreate(s *query.CreateStmt) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return false, ErrClosed
	}
	if _, exists := db.objects[key(s.Name)]; !exists || s.OrReplace {
		return false, nil
	}
	if s.IfNotExists {
		return true, nil
	}
	return false, fmt.Errorf("%w: %s", ErrAlreadyExists, s.Name)
}

// drop removes a table, or a view or registered frame for DROP VIEW
func (db *DB) drop(s *query.DropStmt) (*frame.DataFrame, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrClosed
	}

	existing, ok := db.objects[key(s.Name)]
	if !ok {
		if s.IfExists {
			return frame.Empty(), nil
		}
		return nil, fmt.Errorf("%w: %s with name %s does not exist", ErrNotFound, strings.ToLower(s.Kind.String()), s.Name)
	}

	wantTable := s.Kind == query.KindTable
	if (existing.kind == kindTable) != wantTable {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrNotFound, existing.name, existing.kind, strings.ToLower(s.Kind.String()))
	}
	delete(db.objects, key(s.Name))
	return frame.Empty(), nil
}

// describe returns one row per column of a name or query
func (db *DB) describe(ctx context.Context, exec *query.Executor, res *resolver, s *query.DescribeStmt) (*frame.DataFrame, error) {
	if s.Query != nil {
		cols, err := exec.Describe(ctx, s.Query)
		if err != nil {
			return nil, err
		}
		return query.Describe(cols), nil
	}

	cols, err := res.columns(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	return query.Describe(cols), nil
}

// showTables lists catalog names in sorted order
func (db *DB) showTables() (*frame.DataFrame, error) {
	db.mu.RLock()
	names := make([]string, 0, len(db.objects))
	for _, obj := range db.objects {
		names = append(names, obj.name)
	}
	db.mu.RUnlock()

	sort.Strings(names)
	rows := make([]frame.Row, len(names))
	for i, n := range names {
		rows[i] = frame.Row{"name": n}
	}
	return frame.New([]frame.Column{{Name: "name", Type: frame.Varchar}}, rows), nil
}

// lookup returns the catalog object for name
func (db *DB) lookup(name string) (*object, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, false, ErrClosed
	}
	obj, ok := db.objects[key(name)]
	return obj, ok, nil
}

// resolver implements query.Source for one Exec call: catalog first, then
// the frames bound to the call, then ErrNotFound
type resolver struct {
	db     *DB
	frames map[string]*frame.DataFrame
	active []string // views being expanded, to catch cycles
}

// Relation returns the data behind name, running views on demand
func (r *resolver) Relation(ctx context.Context, name string) (*frame.DataFrame, error) {
	obj, ok, err := r.db.lookup(name)
	if err != nil {
		return nil, err
	}
	if ok {
		if obj.kind != kindView {
			return obj.df, nil
		}
		return r.runView(ctx, obj)
	}
	if df, ok := r.frames[key(name)]; ok {
		return df, nil
	}
	return nil, fmt.Errorf("%w: table with name %s does not exist", ErrNotFound, name)
}

func (r *resolver) runView(ctx context.Context, obj *object) (*frame.DataFrame, error) {
	for _, active := range r.active {
		if active == key(obj.name) {
			return nil, fmt.Errorf("view %s references itself", obj.name)
		}
	}
	r.active = append(r.active, key(obj.name))
	defer func() { r.active = r.active[:len(r.active)-1] }()

	df, err := query.NewExecutor(r).Query(ctx, obj.view)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate view %s: %w", obj.name, err)
	}
	return df, nil
}

// columns returns the schema of name without running a view's full pipeline
// more than binding needs
func (r *resolver) columns(ctx context.Context, name string) ([]frame.Column, error) {
	obj, ok, err := r.db.lookup(name)
	if err != nil {
		return nil, err
	}
	if ok && obj.kind == kindView {
		return query.NewExecutor(r).Describe(ctx, obj.view)
	}
	df, err := r.Relation(ctx, name)
	if err != nil {
		return nil, err
	}
	return df.Columns(), nil
}

// Scan reads the files matching pattern
func (r *resolver) Scan(ctx context.Context, pattern string, maxRows int) (*frame.DataFrame, error) {
	start := r.db.clock.Now()
	df, err := reader.ReadMultipleFiles(ctx, pattern, reader.ScanOptions{
		MaxRows: maxRows,
		Workers: r.db.workers,
	})
	if err != nil {
		return nil, err
	}
	r.db.logger.Debug("files scanned",
		"pattern", pattern,
		"max_rows", maxRows,
		"rows", df.Len(),
		"elapsed", r.db.clock.Since(start))
	return df, nil
}

package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// checkEvery is how many rows are processed between context checks
const checkEvery = 4096

// Source resolves the FROM clause of a query
type Source interface {
	// Relation returns the frame registered or defined under name
	Relation(ctx context.Context, name string) (*frame.DataFrame, error)
	// Scan reads the files matching pattern. maxRows > 0 allows the scan to
	// stop early.
	Scan(ctx context.Context, pattern string, maxRows int) (*frame.DataFrame, error)
}

// Executor runs SELECT statements against a Source
type Executor struct {
	source Source
}

// NewExecutor creates an executor reading from source
func NewExecutor(source Source) *Executor {
	return &Executor{source: source}
}

// sortKey is one bound ORDER BY entry. output >= 0 sorts by a select-list
// column, otherwise expr is evaluated.
type sortKey struct {
	output int
	expr   Expr
	desc   bool
}

// plan is a bound SELECT ready to run
type plan struct {
	stmt      *SelectStmt
	input     *frame.DataFrame
	outputs   []outputColumn
	where     Expr
	aggregate bool
	keys      []Expr
	having    Expr
	order     []sortKey
}

// columns returns the result schema with duplicate names suffixed
func (pl *plan) columns() []frame.Column {
	cols := make([]frame.Column, len(pl.outputs))
	used := make(map[string]bool, len(pl.outputs))
	for i, o := range pl.outputs {
		name := o.name
		for n := 1; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", o.name, n)
		}
		used[strings.ToLower(name)] = true
		cols[i] = frame.Column{Name: name, Type: o.typ}
	}
	return cols
}

// Describe binds stmt and returns its result schema without producing rows
func (e *Executor) Describe(ctx context.Context, stmt *SelectStmt) ([]frame.Column, error) {
	pl, err := e.prepare(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return pl.columns(), nil
}

// Query executes stmt
func (e *Executor) Query(ctx context.Context, stmt *SelectStmt) (*frame.DataFrame, error) {
	pl, err := e.prepare(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return pl.run(ctx)
}

// load reads the FROM source
func (e *Executor) load(ctx context.Context, stmt *SelectStmt) (*frame.DataFrame, error) {
	ref := stmt.From
	switch {
	case ref == nil:
		// SELECT without FROM evaluates once
		return frame.New(nil, []frame.Row{{}}), nil
	case ref.Subquery != nil:
		df, err := e.Query(ctx, ref.Subquery)
		if err != nil {
			return nil, fmt.Errorf("failed to execute FROM subquery: %w", err)
		}
		return df, nil
	case ref.Path != "":
		limit, ok := pushdownLimit(stmt)
		if ok && limit == 0 {
			// a scan limit of 0 means unlimited; one row is enough for the schema
			limit = 1
		}
		df, err := e.source.Scan(ctx, ref.Path, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ref.Path, err)
		}
		if ok && df.Len() > limit {
			df = df.Head(limit)
		}
		return df, nil
	default:
		return e.source.Relation(ctx, ref.Name)
	}
}

// pushdownLimit returns how many rows a file scan needs when nothing between
// the scan and LIMIT can drop or reorder rows. ok is false when the whole
// input is needed.
func pushdownLimit(stmt *SelectStmt) (n int, ok bool) {
	if stmt.Limit == nil || stmt.Where != nil || stmt.Having != nil || stmt.Distinct ||
		len(stmt.GroupBy) > 0 || stmt.GroupByAll || len(stmt.OrderBy) > 0 {
		return 0, false
	}
	for _, item := range stmt.Items {
		if item.Expr != nil && containsAggregate(item.Expr) {
			return 0, false
		}
	}
	rows := *stmt.Limit
	if stmt.Offset != nil {
		rows += *stmt.Offset
	}
	return int(rows), true
}

// prepare loads the source and binds every clause of stmt
func (e *Executor) prepare(ctx context.Context, stmt *SelectStmt) (*plan, error) {
	input, err := e.load(ctx, stmt)
	if err != nil {
		return nil, err
	}

	s := newScope(input.Columns(), stmt.From)
	pl := &plan{stmt: stmt, input: input}

	if pl.outputs, err = s.expandItems(stmt.Items); err != nil {
		return nil, err
	}

	if stmt.Where != nil {
		if containsAggregate(stmt.Where) {
			return nil, fmt.Errorf("%w: aggregate functions are not allowed in WHERE", ErrSyntax)
		}
		if pl.where, err = s.bind(stmt.Where, nil); err != nil {
			return nil, err
		}
	}

	pl.aggregate = len(stmt.GroupBy) > 0 || stmt.GroupByAll || stmt.Having != nil
	for _, o := range pl.outputs {
		if containsAggregate(o.expr) {
			pl.aggregate = true
		}
	}

	if err := pl.bindGroupBy(s); err != nil {
		return nil, err
	}

	if stmt.Having != nil {
		if pl.having, err = s.bind(stmt.Having, pl.outputs); err != nil {
			return nil, err
		}
		if err := checkGrouped(pl.having, pl.keys); err != nil {
			return nil, err
		}
	}

	if err := pl.bindOrderBy(s); err != nil {
		return nil, err
	}

	return pl, nil
}

// bindGroupBy resolves the group keys and checks the select list against them
func (pl *plan) bindGroupBy(s *scope) error {
	stmt := pl.stmt
	switch {
	case stmt.GroupByAll:
		for _, o := range pl.outputs {
			if !containsAggregate(o.expr) {
				pl.keys = append(pl.keys, o.expr)
			}
		}
	default:
		for _, g := range stmt.GroupBy {
			key, err := pl.resolveGroupKey(s, g)
			if err != nil {
				return err
			}
			pl.keys = append(pl.keys, key)
		}
	}

	if !pl.aggregate {
		return nil
	}
	for _, o := range pl.outputs {
		if err := checkGrouped(o.expr, pl.keys); err != nil {
			return err
		}
	}
	return nil
}

// resolveGroupKey binds one GROUP BY expression. Input columns win over
// select-list aliases; integer literals refer to select-list positions.
func (pl *plan) resolveGroupKey(s *scope, g Expr) (Expr, error) {
	var key Expr
	if lit, ok := g.(*Literal); ok {
		if pos, isInt := toInt64(lit.Value); isInt {
			if pos < 1 || int(pos) > len(pl.outputs) {
				return nil, fmt.Errorf("%w: GROUP BY position %d is not in the select list", ErrSyntax, pos)
			}
			key = pl.outputs[pos-1].expr
		}
	}
	if key == nil {
		var err error
		if key, err = s.bind(g, pl.outputs); err != nil {
			return nil, err
		}
	}
	if containsAggregate(key) {
		return nil, fmt.Errorf("%w: cannot GROUP BY an aggregate (%s)", ErrGrouping, key)
	}
	return key, nil
}

// bindOrderBy resolves sort keys: select-list names first, then positions,
// then expressions over the input
func (pl *plan) bindOrderBy(s *scope) error {
	for _, item := range pl.stmt.OrderBy {
		key := sortKey{output: -1, desc: item.Desc}

		switch x := item.Expr.(type) {
		case *ColumnRef:
			if x.Table == "" {
				for i, o := range pl.outputs {
					if strings.EqualFold(o.name, x.Name) {
						key.output = i
						break
					}
				}
			}
		case *Literal:
			if pos, ok := toInt64(x.Value); ok {
				if pos < 1 || int(pos) > len(pl.outputs) {
					return fmt.Errorf("%w: ORDER BY position %d is not in the select list", ErrSyntax, pos)
				}
				key.output = int(pos) - 1
			}
		}

		if key.output < 0 {
			bound, err := s.bind(item.Expr, pl.outputs)
			if err != nil {
				return err
			}
			for i, o := range pl.outputs {
				if o.expr.String() == bound.String() {
					key.output = i
					break
				}
			}
			if key.output < 0 {
				if pl.stmt.Distinct {
					return fmt.Errorf("%w: for SELECT DISTINCT, ORDER BY expressions must appear in the select list", ErrSyntax)
				}
				if pl.aggregate {
					if err := checkGrouped(bound, pl.keys); err != nil {
						return err
					}
				} else if containsAggregate(bound) {
					return fmt.Errorf("%w: aggregate in ORDER BY of a query without grouping", ErrGrouping)
				}
				key.expr = bound
			}
		}

		pl.order = append(pl.order, key)
	}
	return nil
}

// resultRow is a projected row plus the values of expression sort keys
type resultRow struct {
	values []interface{}
	keys   []interface{}
}

// run executes a bound plan: filter, group, project, distinct, sort, limit
func (pl *plan) run(ctx context.Context) (*frame.DataFrame, error) {
	rows, err := pl.filter(ctx, pl.input.Rows())
	if err != nil {
		return nil, err
	}

	var results []resultRow
	if pl.aggregate {
		results, err = pl.projectGroups(ctx, rows)
	} else {
		results, err = pl.projectRows(ctx, rows)
	}
	if err != nil {
		return nil, err
	}

	if pl.stmt.Distinct {
		results = distinct(results)
	}
	if len(pl.order) > 0 {
		pl.sort(results)
	}
	results = pl.limit(results)

	cols := pl.columns()
	out := make([]frame.Row, len(results))
	for i, r := range results {
		row := make(frame.Row, len(cols))
		for j, c := range cols {
			row[c.Name] = frame.Convert(r.values[j], c.Type)
		}
		out[i] = row
	}
	return frame.New(cols, out), nil
}

// filter applies WHERE
func (pl *plan) filter(ctx context.Context, rows []frame.Row) ([]frame.Row, error) {
	if pl.where == nil {
		return rows, nil
	}

	var out []frame.Row
	env := &Env{}
	for i, row := range rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		env.Row = row
		v, err := pl.where.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("failed to apply filter: %w", err)
		}
		keep, err := predicate(v)
		if err != nil {
			return nil, fmt.Errorf("failed to apply filter: %w", err)
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

// project evaluates the select list and expression sort keys in env
func (pl *plan) project(env *Env) (resultRow, error) {
	r := resultRow{values: make([]interface{}, len(pl.outputs))}
	for i, o := range pl.outputs {
		v, err := o.expr.Eval(env)
		if err != nil {
			return resultRow{}, fmt.Errorf("%s: %w", o.name, err)
		}
		r.values[i] = v
	}
	for _, k := range pl.order {
		if k.expr == nil {
			continue
		}
		v, err := k.expr.Eval(env)
		if err != nil {
			return resultRow{}, fmt.Errorf("ORDER BY %s: %w", k.expr, err)
		}
		r.keys = append(r.keys, v)
	}
	return r, nil
}

func (pl *plan) projectRows(ctx context.Context, rows []frame.Row) ([]resultRow, error) {
	out := make([]resultRow, 0, len(rows))
	env := &Env{}
	for i, row := range rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		env.Row = row
		r, err := pl.project(env)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// projectGroups groups rows by the key values in first-seen order, applies
// HAVING and evaluates the select list once per group. Without group keys
// the whole input is one group, even when it is empty.
func (pl *plan) projectGroups(ctx context.Context, rows []frame.Row) ([]resultRow, error) {
	type group struct {
		rows []frame.Row
	}
	var order []*group
	index := make(map[string]*group)

	if len(pl.keys) == 0 {
		order = append(order, &group{rows: make([]frame.Row, 0, len(rows))})
	}

	env := &Env{}
	keyValues := make([]interface{}, len(pl.keys))
	for i, row := range rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(pl.keys) == 0 {
			order[0].rows = append(order[0].rows, row)
			continue
		}

		env.Row = row
		for k, key := range pl.keys {
			v, err := key.Eval(env)
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate GROUP BY key %s: %w", key, err)
			}
			keyValues[k] = v
		}
		id := rowKey(keyValues)
		g, ok := index[id]
		if !ok {
			g = &group{}
			index[id] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, row)
	}

	out := make([]resultRow, 0, len(order))
	for _, g := range order {
		env := &Env{Row: frame.Row{}, Group: g.rows}
		if len(g.rows) > 0 {
			env.Row = g.rows[0]
		}

		if pl.having != nil {
			v, err := pl.having.Eval(env)
			if err != nil {
				return nil, fmt.Errorf("failed to apply HAVING clause: %w", err)
			}
			keep, err := predicate(v)
			if err != nil {
				return nil, fmt.Errorf("failed to apply HAVING clause: %w", err)
			}
			if !keep {
				continue
			}
		}

		r, err := pl.project(env)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// distinct keeps the first of each set of identical rows
func distinct(rows []resultRow) []resultRow {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, r := range rows {
		key := rowKey(r.values)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// sort orders rows by the ORDER BY keys. NULLs sort last in both directions.
func (pl *plan) sort(rows []resultRow) {
	slices.SortStableFunc(rows, func(a, b resultRow) int {
		exprIdx := 0
		for _, k := range pl.order {
			var av, bv interface{}
			if k.output >= 0 {
				av, bv = a.values[k.output], b.values[k.output]
			} else {
				av, bv = a.keys[exprIdx], b.keys[exprIdx]
				exprIdx++
			}

			c := sortCompare(av, bv)
			if k.desc && av != nil && bv != nil {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// limit applies OFFSET and LIMIT
func (pl *plan) limit(rows []resultRow) []resultRow {
	if off := pl.stmt.Offset; off != nil {
		if *off >= int64(len(rows)) {
			return nil
		}
		rows = rows[*off:]
	}
	if lim := pl.stmt.Limit; lim != nil && *lim < int64(len(rows)) {
		rows = rows[:*lim]
	}
	return rows
}

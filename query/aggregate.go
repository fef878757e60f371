package query

import (
	"fmt"

	"github.com/vegasq/salesql/frame"
)

// aggregateFuncs lists the supported aggregate function names
var aggregateFuncs = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"AVG":   true,
	"MIN":   true,
	"MAX":   true,
}

// IsAggregateFunction reports whether name is an aggregate function
func IsAggregateFunction(name string) bool {
	return aggregateFuncs[name]
}

// Eval computes the aggregate over env.Group. NULL inputs are skipped;
// COUNT(*) counts rows.
func (a *AggregateExpr) Eval(env *Env) (interface{}, error) {
	if env.Group == nil {
		return nil, fmt.Errorf("%w: aggregate function %s cannot be evaluated on individual rows", ErrGrouping, a.Func)
	}

	if a.Star {
		return int64(len(env.Group)), nil
	}

	values, err := a.collect(env.Group)
	if err != nil {
		return nil, err
	}

	switch a.Func {
	case "COUNT":
		return int64(len(values)), nil
	case "SUM":
		return evaluateSum(values)
	case "AVG":
		return evaluateAvg(values)
	case "MIN":
		return evaluateExtreme(values, -1), nil
	case "MAX":
		return evaluateExtreme(values, 1), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, a.Func)
	}
}

// collect evaluates the argument for each row, dropping NULLs and, with
// DISTINCT, repeated values.
func (a *AggregateExpr) collect(rows []frame.Row) ([]interface{}, error) {
	values := make([]interface{}, 0, len(rows))
	var seen map[string]bool
	if a.Distinct {
		seen = make(map[string]bool)
	}

	env := &Env{}
	for _, row := range rows {
		env.Row = row
		v, err := a.Arg.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Func, err)
		}
		if v == nil {
			continue
		}
		if seen != nil {
			key := rowKey([]interface{}{v})
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		values = append(values, v)
	}
	return values, nil
}

// evaluateSum adds integers exactly and anything else as float64
func evaluateSum(values []interface{}) (interface{}, error) {
	if len(values) == 0 {
		return nil, nil
	}

	var intSum int64
	var floatSum float64
	allInt := true
	for _, v := range values {
		if i, ok := toInt64(v); ok && allInt {
			intSum += i
			continue
		}
		if allInt {
			floatSum = float64(intSum)
			allInt = false
		}
		f, err := valueToNumber(v)
		if err != nil {
			return nil, fmt.Errorf("SUM: %w", err)
		}
		floatSum += f
	}

	if allInt {
		return intSum, nil
	}
	return floatSum, nil
}

func evaluateAvg(values []interface{}) (interface{}, error) {
	if len(values) == 0 {
		return nil, nil
	}

	var sum float64
	for _, v := range values {
		f, err := valueToNumber(v)
		if err != nil {
			return nil, fmt.Errorf("AVG: %w", err)
		}
		sum += f
	}
	return sum / float64(len(values)), nil
}

// evaluateExtreme returns the minimum (dir -1) or maximum (dir 1)
func evaluateExtreme(values []interface{}, dir int) interface{} {
	var best interface{}
	for _, v := range values {
		if best == nil || sortCompare(v, best)*dir > 0 {
			best = v
		}
	}
	return best
}

// aggregateType returns the result type of an aggregate over arg
func aggregateType(a *AggregateExpr, arg frame.DType) frame.DType {
	switch a.Func {
	case "COUNT":
		return frame.BigInt
	case "SUM":
		if arg == frame.Integer || arg == frame.BigInt {
			return frame.BigInt
		}
		return frame.Double
	case "AVG":
		return frame.Double
	default:
		return arg
	}
}

// containsAggregate reports whether an aggregate appears anywhere in e
func containsAggregate(e Expr) bool {
	found := false
	walk(e, func(n Expr) bool {
		if _, ok := n.(*AggregateExpr); ok {
			found = true
		}
		return !found
	})
	return found
}

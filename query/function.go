package query

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vegasq/salesql/frame"
)

// Function represents a scalar function that can be evaluated
type Function interface {
	// Name returns the function name (case-insensitive)
	Name() string
	// MinArity returns the minimum number of arguments
	MinArity() int
	// MaxArity returns the maximum number of arguments (-1 for unlimited)
	MaxArity() int
	// ReturnType returns the result type for the given argument types
	ReturnType(args []frame.DType) frame.DType
	// Evaluate evaluates the function with the given arguments
	Evaluate(args []interface{}) (interface{}, error)
}

// nullHandler is implemented by functions that want to see NULL arguments.
// Every other function returns NULL as soon as one argument is NULL.
type nullHandler interface {
	HandlesNull() bool
}

func handlesNull(fn Function) bool {
	h, ok := fn.(nullHandler)
	return ok && h.HandlesNull()
}

// FunctionRegistry manages function lookup and registration
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry creates a new function registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register registers a function under its name and any aliases
func (r *FunctionRegistry) Register(f Function, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToUpper(f.Name())] = f
	for _, alias := range aliases {
		r.functions[strings.ToUpper(alias)] = f
	}
}

// Get retrieves a function by name (case-insensitive)
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, exists := r.functions[strings.ToUpper(name)]
	return f, exists
}

// globalRegistry is the default function registry
var globalRegistry *FunctionRegistry

func init() {
	globalRegistry = NewFunctionRegistry()

	// String functions
	globalRegistry.Register(&UpperFunc{}, "UCASE")
	globalRegistry.Register(&LowerFunc{}, "LCASE")
	globalRegistry.Register(&ConcatFunc{})
	globalRegistry.Register(&LengthFunc{}, "LEN", "CHAR_LENGTH")
	globalRegistry.Register(&TrimFunc{})
	globalRegistry.Register(&LTrimFunc{})
	globalRegistry.Register(&RTrimFunc{})
	globalRegistry.Register(&SubstringFunc{}, "SUBSTR")
	globalRegistry.Register(&ReplaceFunc{})
	globalRegistry.Register(&SplitFunc{}, "STRING_SPLIT", "SPLIT")
	globalRegistry.Register(&ReverseFunc{})
	globalRegistry.Register(&ContainsFunc{})
	globalRegistry.Register(&StartsWithFunc{}, "PREFIX")
	globalRegistry.Register(&EndsWithFunc{}, "SUFFIX")
	globalRegistry.Register(&RepeatFunc{})

	// Math functions
	globalRegistry.Register(&AbsFunc{})
	globalRegistry.Register(&RoundFunc{})
	globalRegistry.Register(&FloorFunc{})
	globalRegistry.Register(&CeilFunc{}, "CEILING")
	globalRegistry.Register(&ModFunc{})
	globalRegistry.Register(&SqrtFunc{})
	globalRegistry.Register(&PowFunc{}, "POW")

	// Conditional functions
	globalRegistry.Register(&CoalesceFunc{}, "IFNULL")
	globalRegistry.Register(&NullIfFunc{})
}

// GetGlobalRegistry returns the global function registry
func GetGlobalRegistry() *FunctionRegistry {
	return globalRegistry
}

// checkArity validates an argument count against a function's arity
func checkArity(fn Function, n int) error {
	if n < fn.MinArity() {
		return fmt.Errorf("%w: %s expects at least %d arguments, got %d", ErrSyntax, fn.Name(), fn.MinArity(), n)
	}
	if fn.MaxArity() >= 0 && n > fn.MaxArity() {
		return fmt.Errorf("%w: %s expects at most %d arguments, got %d", ErrSyntax, fn.Name(), fn.MaxArity(), n)
	}
	return nil
}

// valueToString renders any argument as text
func valueToString(v interface{}) string {
	return frame.FormatValue(v)
}

// valueToNumber converts an argument to float64, parsing numeric strings
func valueToNumber(v interface{}) (float64, error) {
	if f, ok := toFloat64(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		return parseNumber(s)
	}
	return 0, fmt.Errorf("%w: cannot convert %s to a number", ErrConversion, frame.TypeOf(v))
}

// valueToInt converts an argument to int, rounding doubles
func valueToInt(v interface{}) (int, error) {
	n, err := castInt(v, 64)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Conditional Functions

// CoalesceFunc returns the first non-null value
type CoalesceFunc struct{}

func (f *CoalesceFunc) Name() string      { return "COALESCE" }
func (f *CoalesceFunc) MinArity() int     { return 1 }
func (f *CoalesceFunc) MaxArity() int     { return -1 }
func (f *CoalesceFunc) HandlesNull() bool { return true }
func (f *CoalesceFunc) ReturnType(args []frame.DType) frame.DType {
	t := frame.Null
	for _, a := range args {
		t = frame.Unify(t, a)
	}
	return t
}
func (f *CoalesceFunc) Evaluate(args []interface{}) (interface{}, error) {
	for _, arg := range args {
		if arg != nil {
			return arg, nil
		}
	}
	return nil, nil
}

// NullIfFunc returns null if two values are equal, otherwise returns the first value
type NullIfFunc struct{}

func (f *NullIfFunc) Name() string      { return "NULLIF" }
func (f *NullIfFunc) MinArity() int     { return 2 }
func (f *NullIfFunc) MaxArity() int     { return 2 }
func (f *NullIfFunc) HandlesNull() bool { return true }
func (f *NullIfFunc) ReturnType(args []frame.DType) frame.DType {
	return args[0]
}
func (f *NullIfFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil || args[1] == nil {
		return args[0], nil
	}

	c, err := compareValues(args[0], args[1])
	if err != nil {
		// If comparison fails, values are not equal
		return args[0], nil
	}
	if c == 0 {
		return nil, nil
	}
	return args[0], nil
}

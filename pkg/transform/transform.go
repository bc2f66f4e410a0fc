package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Func is a named transformation over two loosely typed operands.
type Func func(var1, var2 interface{}) (interface{}, error)

// Registry maps transformation names to function values. It is built
// explicitly at startup; names are case-insensitive.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: map[string]Func{
			"add":          Add,
			"subtract":     Subtract,
			"to_lowercase": ToLowercase,
		},
	}
}

func (r *Registry) Get(name string) (Func, error) {
	fn, ok := r.funcs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("function %q is not registered (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return fn, nil
}

func (r *Registry) Call(name string, var1, var2 interface{}) (interface{}, error) {
	fn, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return fn(var1, var2)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Add(var1, var2 interface{}) (interface{}, error) {
	n1, err := coerceNumber(var1, "add", "var1")
	if err != nil {
		return nil, err
	}
	n2, err := coerceNumber(var2, "add", "var2")
	if err != nil {
		return nil, err
	}
	return n1 + n2, nil
}

func Subtract(var1, var2 interface{}) (interface{}, error) {
	n1, err := coerceNumber(var1, "subtract", "var1")
	if err != nil {
		return nil, err
	}
	n2, err := coerceNumber(var2, "subtract", "var2")
	if err != nil {
		return nil, err
	}
	return n1 - n2, nil
}

// ToLowercase lowercases var1; var2 is ignored.
func ToLowercase(var1, _ interface{}) (interface{}, error) {
	if var1 == nil {
		return nil, fmt.Errorf("to_lowercase: 'var1' is required")
	}
	return strings.ToLower(fmt.Sprintf("%v", var1)), nil
}

func coerceNumber(value interface{}, funcName, argName string) (float64, error) {
	if value == nil {
		return 0, fmt.Errorf("%s: '%s' is required", funcName, argName)
	}

	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	}

	text := strings.TrimSpace(fmt.Sprintf("%v", value))
	if text == "" {
		return 0, fmt.Errorf("%s: '%s' cannot be empty", funcName, argName)
	}

	number, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: '%s' is not a number: %q", funcName, argName, text)
	}
	return number, nil
}

package ast

import "sort"

// FuncDef describes a display filter function. MaxArgs of zero means the
// function is variadic.
type FuncDef struct {
	Name    string
	MinArgs int
	MaxArgs int
}

// AcceptsArgs reports whether n arguments satisfy the definition.
func (d *FuncDef) AcceptsArgs(n int) bool {
	if n < d.MinArgs {
		return false
	}
	return d.MaxArgs == 0 || n <= d.MaxArgs
}

var functions = map[string]*FuncDef{}

func init() {
	for _, def := range []*FuncDef{
		{Name: "abs", MinArgs: 1, MaxArgs: 1},
		{Name: "count", MinArgs: 1, MaxArgs: 1},
		{Name: "len", MinArgs: 1, MaxArgs: 1},
		{Name: "lower", MinArgs: 1, MaxArgs: 1},
		{Name: "max", MinArgs: 1},
		{Name: "min", MinArgs: 1},
		{Name: "string", MinArgs: 1, MaxArgs: 1},
		{Name: "upper", MinArgs: 1, MaxArgs: 1},
		{Name: "vals", MinArgs: 1, MaxArgs: 1},
	} {
		functions[def.Name] = def
	}
}

// LookupFunction returns the built-in function definition for name.
func LookupFunction(name string) (*FuncDef, bool) {
	def, ok := functions[name]
	return def, ok
}

// FunctionNames returns the names of the built-in functions, sorted.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

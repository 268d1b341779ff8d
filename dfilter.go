// Package dfilter compiles display filter expression trees into bytecode
// for the filter VM.
//
// Trees are usually built by a parser. For tests and tooling they can also
// be written in YAML and compiled with CompileYAML:
//
//	prog, err := dfilter.CompileYAML([]byte(`
//	test: ==
//	left: {field: tcp.port}
//	right: {value: 80}
//	`), nil)
package dfilter

import (
	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/compiler"
	"github.com/packetlens/dfilter/fields"
)

// Compile compiles a filter tree into an immutable program. The returned
// program is safe for concurrent use.
func Compile(tree ast.Node, opts ...Option) (*bytecode.Program, error) {
	return compiler.Compile(tree, collectOptions(opts...).compilerConfig())
}

// CompileYAML decodes a tree from its YAML form and compiles it. Field
// abbreviations are resolved against table; when table is nil every
// abbreviation found is registered in a fresh table. The table used is
// returned so callers can map interesting field ids back to fields.
func CompileYAML(data []byte, table *fields.Table, opts ...Option) (*bytecode.Program, *fields.Table, error) {
	var resolve ast.Resolver
	if table == nil {
		table = fields.NewTable()
		resolve = ast.RegisteringResolver(table)
	} else {
		resolve = ast.TableResolver(table)
	}
	tree, err := ast.DecodeYAML(data, resolve)
	if err != nil {
		return nil, nil, err
	}
	cfg := collectOptions(opts...)
	if cfg.registry == nil {
		cfg.registry = table
	}
	prog, err := compiler.Compile(tree, cfg.compilerConfig())
	if err != nil {
		return nil, nil, err
	}
	return prog, table, nil
}

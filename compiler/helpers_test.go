package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/drange"
	"github.com/packetlens/dfilter/fields"
	"github.com/packetlens/dfilter/op"
)

// registry holds the fields used across the compiler tests. ip.src is
// registered twice so it has a same-name sibling (id 2).
type registry struct {
	tbl     *fields.Table
	src     *fields.Info
	port    *fields.Info
	src2    *fields.Info
	host    *fields.Info
	flen    *fields.Info
	proto   *fields.Info
	protoV6 *fields.Info
}

func newRegistry() *registry {
	tbl := fields.NewTable()
	r := &registry{tbl: tbl}
	r.src = tbl.Register("ip.src", "Source Address", "FT_IPv4")
	r.port = tbl.Register("tcp.port", "Port", "FT_UINT16")
	r.src2 = tbl.Register("ip.src", "Source Address (tunnel)", "FT_IPv4")
	r.host = tbl.Register("http.host", "Host", "FT_STRING")
	r.flen = tbl.Register("frame.len", "Frame Length", "FT_UINT32")
	r.proto = tbl.Register("ip.proto", "Protocol", "FT_UINT8")
	r.protoV6 = tbl.Register("ip.proto", "Protocol (v6)", "FT_UINT8")
	return r
}

func field(f *fields.Info) *ast.Field {
	return &ast.Field{Info: f}
}

func val(v any) *ast.FValue {
	return &ast.FValue{Value: v}
}

func test(o ast.Op, left, right ast.Node) *ast.Test {
	return &ast.Test{Op: o, Left: left, Right: right}
}

func quantified(q op.Quantifier, o ast.Op, left, right ast.Node) *ast.Test {
	return &ast.Test{Op: o, Quantifier: q, Left: left, Right: right}
}

func call(t *testing.T, name string, args ...ast.Node) *ast.Function {
	def, ok := ast.LookupFunction(name)
	require.True(t, ok, name)
	return &ast.Function{Def: def, Args: args}
}

func set(elems ...ast.SetElement) *ast.Set {
	return &ast.Set{Elements: elems}
}

func one(v ast.Node) ast.SetElement {
	return ast.SetElement{Low: v}
}

func between(lo, hi ast.Node) ast.SetElement {
	return ast.SetElement{Low: lo, High: hi}
}

func rng(t *testing.T, s string) drange.Drange {
	r, err := drange.Parse(s)
	require.NoError(t, err)
	return r
}

func compileCode(t *testing.T, node ast.Node, cfg *Config) *Code {
	t.Helper()
	code, err := New(cfg).CompileTree(node)
	require.NoError(t, err)
	require.NoError(t, code.Verify())
	return code
}

func lines(code *Code) []string {
	return strings.Split(strings.TrimSuffix(code.String(), "\n"), "\n")
}

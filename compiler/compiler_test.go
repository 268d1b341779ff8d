package compiler

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/drange"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/op"
)

func TestRelation(t *testing.T) {
	r := newRegistry()
	code := compileCode(t, test(ast.OpAnyEq, field(r.port), val(80)), nil)
	require.Equal(t, []string{
		"READ_TREE tcp.port R0",
		"IF_FALSE_GOTO 3",
		"ANY_EQ R0 80",
		"RETURN",
	}, lines(code))
	require.Equal(t, 1, code.RegisterCount())
	require.Equal(t, []int{r.port.ID}, code.InterestingFields())
}

func TestRelationBothSidesAbsent(t *testing.T) {
	r := newRegistry()
	code := compileCode(t, test(ast.OpLt, field(r.port), field(r.flen)), nil)
	require.Equal(t, []string{
		"READ_TREE tcp.port R0",
		"IF_FALSE_GOTO 5",
		"READ_TREE frame.len R1",
		"IF_FALSE_GOTO 5",
		"ANY_LT R0 R1",
		"RETURN",
	}, lines(code))
}

func TestQuantifiers(t *testing.T) {
	tests := []struct {
		op   ast.Op
		q    op.Quantifier
		want op.Code
	}{
		{ast.OpAnyEq, op.Default, op.AnyEq},
		{ast.OpAllEq, op.Default, op.AllEq},
		{ast.OpAllNe, op.Default, op.AllNe},
		{ast.OpAnyNe, op.Default, op.AnyNe},
		{ast.OpGt, op.Default, op.AnyGt},
		{ast.OpGe, op.Default, op.AnyGe},
		{ast.OpLt, op.Default, op.AnyLt},
		{ast.OpLe, op.Default, op.AnyLe},
		{ast.OpContains, op.Default, op.AnyContains},
		{ast.OpMatches, op.Default, op.AnyMatches},
		{ast.OpIn, op.Default, op.SetAnyIn},
		{ast.OpNotIn, op.Default, op.SetAnyNotIn},
		{ast.OpAnyEq, op.All, op.AllEq},
		{ast.OpAllEq, op.Any, op.AnyEq},
		{ast.OpAllNe, op.Any, op.AnyNe},
		{ast.OpGt, op.All, op.AllGt},
		{ast.OpMatches, op.All, op.AllMatches},
		{ast.OpIn, op.All, op.SetAllIn},
		{ast.OpNotIn, op.All, op.SetAllNotIn},
		{ast.OpNotIn, op.Any, op.SetAnyNotIn},
	}
	for _, tt := range tests {
		t.Run(tt.op.String()+"/"+tt.q.String(), func(t *testing.T) {
			require.Equal(t, tt.want, selectOpcode(tt.op, tt.q))
		})
	}

	r := newRegistry()
	code := compileCode(t, quantified(op.All, ast.OpGt, field(r.port), val(1)), nil)
	require.Equal(t, "ALL_GT R0 1", lines(code)[2])
}

func TestSelectOpcodeInvariant(t *testing.T) {
	require.Panics(t, func() { selectOpcode(ast.OpAnd, op.All) })
	require.Panics(t, func() { selectOpcode(ast.OpAdd, op.Default) })
}

func TestMembership(t *testing.T) {
	r := newRegistry()
	tree := test(ast.OpIn, field(r.port), set(one(val(1)), between(val(3), val(5)), one(val(9))))
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_TREE tcp.port R0",
		"IF_FALSE_GOTO 7",
		"SET_ADD 1",
		"SET_ADD_RANGE 3 5",
		"SET_ADD 9",
		"SET_ANY_IN R0",
		"SET_CLEAR",
		"RETURN",
	}, lines(code))
}

func TestMembershipElementAbsence(t *testing.T) {
	r := newRegistry()
	tree := quantified(op.All, ast.OpNotIn, field(r.port),
		set(one(field(r.flen)), between(val(3), field(r.flen))))
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_TREE tcp.port R0",
		"IF_FALSE_GOTO 10",
		"READ_TREE frame.len R1",
		"IF_FALSE_GOTO 5",
		"SET_ADD R1",
		"READ_TREE frame.len R1",
		"IF_FALSE_GOTO 8",
		"SET_ADD_RANGE 3 R1",
		"SET_ALL_NOT_IN R0",
		"SET_CLEAR",
		"RETURN",
	}, lines(code))
}

func TestAndOr(t *testing.T) {
	r := newRegistry()
	tree := test(ast.OpAnd,
		test(ast.OpAnyEq, field(r.src), val(1)),
		test(ast.OpOr, field(r.port), test(ast.OpNot, field(r.host), nil)))
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 3",
		"ANY_EQ R0 1",
		"IF_FALSE_GOTO 8",
		"CHECK_EXISTS tcp.port",
		"IF_TRUE_GOTO 8",
		"CHECK_EXISTS http.host",
		"NOT",
		"RETURN",
	}, lines(code))
	require.Equal(t, []int{r.src.ID, r.src2.ID, r.port.ID, r.host.ID}, code.InterestingFields())
	require.Equal(t, bytecode.NoValue, code.ToProgram().Result())
}

func TestExistence(t *testing.T) {
	r := newRegistry()
	raw := &ast.Field{Info: r.src2, Raw: true}
	ranged := &ast.Field{Info: r.port, Range: rng(t, "0:2")}
	code := compileCode(t, test(ast.OpOr, raw, ranged), nil)
	require.Equal(t, []string{
		"CHECK_EXISTS ip.src",
		"IF_TRUE_GOTO 3",
		"CHECK_EXISTS_R tcp.port [0:2]",
		"RETURN",
	}, lines(code))
	// Written as the sibling, checked as the canonical field.
	require.Same(t, r.src, code.Value(code.Instruction(0).Arg1).Field)
	require.Equal(t, 0, code.RegisterCount())
}

func TestFieldLoadCache(t *testing.T) {
	r := newRegistry()
	tree := test(ast.OpAnd,
		test(ast.OpAnyEq, field(r.src), val(1)),
		test(ast.OpAnyEq, field(r.src2), val(2)))
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 3",
		"ANY_EQ R0 1",
		"IF_FALSE_GOTO 7",
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 7",
		"ANY_EQ R0 2",
		"RETURN",
	}, lines(code))
	require.Equal(t, 1, code.RegisterCount())
	require.Equal(t, code.Instruction(0).Arg2, code.Instruction(4).Arg2)
	require.Equal(t, []int{r.src.ID, r.src2.ID}, code.InterestingFields())
}

func TestFieldLoadCacheRawAndRanges(t *testing.T) {
	r := newRegistry()
	rawSrc := &ast.Field{Info: r.src, Raw: true}
	ranged := &ast.Field{Info: r.src, Range: rng(t, "0:2")}
	tree := test(ast.OpAnd,
		test(ast.OpAnyEq, rawSrc, field(r.src)),
		test(ast.OpAnd,
			test(ast.OpAnyEq, ranged, val(1)),
			test(ast.OpAnyEq, field(r.src), &ast.Field{Info: r.src, Raw: true})))
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_TREE @ip.src R0",
		"IF_FALSE_GOTO 5",
		"READ_TREE ip.src R1",
		"IF_FALSE_GOTO 5",
		"ANY_EQ R0 R1",
		"IF_FALSE_GOTO 15",
		"READ_TREE_R ip.src R2 [0:2]",
		"IF_FALSE_GOTO 9",
		"ANY_EQ R2 1",
		"IF_FALSE_GOTO 15",
		"READ_TREE ip.src R1",
		"IF_FALSE_GOTO 15",
		"READ_TREE @ip.src R0",
		"IF_FALSE_GOTO 15",
		"ANY_EQ R1 R0",
		"RETURN",
	}, lines(code))
	require.Equal(t, 3, code.RegisterCount())
	// The tree keeps its range so it can be compiled again.
	require.NotNil(t, ranged.Range)
}

func TestReferences(t *testing.T) {
	r := newRegistry()
	tree := test(ast.OpAnyEq,
		&ast.Reference{Info: r.src},
		&ast.Reference{Info: r.src2, Raw: true, Range: rng(t, "1")})
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_REFERENCE ip.src R0",
		"IF_FALSE_GOTO 5",
		"READ_REFERENCE_R @ip.src R1 [1]",
		"IF_FALSE_GOTO 5",
		"ANY_EQ R0 R1",
		"RETURN",
	}, lines(code))
	prog := code.ToProgram()
	require.Equal(t, 1, prog.ReferenceCount(false))
	require.Equal(t, 1, prog.ReferenceCount(true))
	require.Same(t, r.src, prog.ReferenceAt(true, 0))
	require.Equal(t, []int{r.src.ID, r.src2.ID}, prog.InterestingFields())
}

func TestValueString(t *testing.T) {
	r := newRegistry()
	flagged := &ast.Field{Info: r.src2, ValueString: true}
	want := []string{
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 5",
		"VALUE_STRING ip.src R0 R1",
		"IF_FALSE_GOTO 5",
		`ANY_EQ R1 "x"`,
		"RETURN",
	}

	code := compileCode(t, test(ast.OpAnyEq, flagged, val("x")), nil)
	require.Equal(t, want, lines(code))
	// The lookup uses the field as written.
	require.Same(t, r.src2, code.Value(code.Instruction(2).Arg1).Field)

	code = compileCode(t, test(ast.OpAnyEq, call(t, "vals", field(r.src2)), val("x")), nil)
	require.Equal(t, want, lines(code))

	code = compileCode(t, test(ast.OpAnyEq, call(t, "vals", flagged), val("x")), nil)
	require.Equal(t, want, lines(code))
}

func TestFunctionCall(t *testing.T) {
	r := newRegistry()
	tree := test(ast.OpAnyEq, call(t, "upper", field(r.host)), val("X"))
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_TREE http.host R1",
		"IF_FALSE_GOTO 2",
		"STACK_PUSH R1",
		"CALL_FUNCTION upper() R0 1",
		"STACK_POP 1",
		"IF_FALSE_GOTO 7",
		`ANY_EQ R0 "X"`,
		"RETURN",
	}, lines(code))
}

func TestFunctionCallArguments(t *testing.T) {
	r := newRegistry()
	tree := test(ast.OpGt, call(t, "max", field(r.port), val(5), field(r.flen)), val(10))
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_TREE tcp.port R1",
		"IF_FALSE_GOTO 2",
		"STACK_PUSH R1",
		"STACK_PUSH 5",
		"READ_TREE frame.len R2",
		"IF_FALSE_GOTO 6",
		"STACK_PUSH R2",
		"CALL_FUNCTION max() R0 3",
		"STACK_POP 3",
		"IF_FALSE_GOTO 11",
		"ANY_GT R0 10",
		"RETURN",
	}, lines(code))
}

func TestLengthAndSlicePredicates(t *testing.T) {
	r := newRegistry()
	code := compileCode(t, call(t, "len", field(r.src)), nil)
	require.Equal(t, []string{
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 4",
		"LENGTH R0 R1",
		"NOT_ALL_ZERO R1",
		"RETURN R1",
	}, lines(code))

	code = compileCode(t, &ast.Slice{Entity: field(r.src), Range: rng(t, "1:2")}, nil)
	require.Equal(t, []string{
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 5",
		"SLICE R0 R1 [1:2]",
		"LENGTH R1 R2",
		"NOT_ALL_ZERO R2",
		"RETURN R1",
	}, lines(code))
}

func TestLengthComparison(t *testing.T) {
	r := newRegistry()
	code := compileCode(t, test(ast.OpAnyEq, call(t, "len", field(r.src)), val(0)), nil)
	require.Equal(t, []string{
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 4",
		"LENGTH R0 R1",
		"ANY_EQ R1 0",
		"RETURN",
	}, lines(code))
}

func TestSliceOfFunction(t *testing.T) {
	r := newRegistry()
	tree := test(ast.OpMatches,
		&ast.Slice{Entity: call(t, "lower", field(r.host)), Range: rng(t, "0:3")},
		&ast.Pattern{Regexp: regexp.MustCompile("^ab")})
	code := compileCode(t, tree, nil)
	require.Equal(t, []string{
		"READ_TREE http.host R1",
		"IF_FALSE_GOTO 2",
		"STACK_PUSH R1",
		"CALL_FUNCTION lower() R0 1",
		"STACK_POP 1",
		"IF_FALSE_GOTO 8",
		"SLICE R0 R2 [0:3]",
		"ANY_MATCHES R2 /^ab/",
		"RETURN",
	}, lines(code))
}

func TestArithmetic(t *testing.T) {
	r := newRegistry()
	code := compileCode(t, test(ast.OpAnyEq,
		&ast.Arithmetic{Op: ast.OpAdd, Left: field(r.port), Right: val(1)},
		val(10)), nil)
	require.Equal(t, []string{
		"READ_TREE tcp.port R0",
		"IF_FALSE_GOTO 4",
		"ADD R0 1 R1",
		"ANY_EQ R1 10",
		"RETURN",
	}, lines(code))

	code = compileCode(t, &ast.Arithmetic{Op: ast.OpUnaryMinus, Left: field(r.port)}, nil)
	require.Equal(t, []string{
		"READ_TREE tcp.port R0",
		"IF_FALSE_GOTO 4",
		"UNARY_MINUS R0 R1",
		"NOT_ALL_ZERO R1",
		"RETURN R1",
	}, lines(code))

	ops := map[ast.Op]string{
		ast.OpSubtract:   "SUBTRACT",
		ast.OpMultiply:   "MULTIPLY",
		ast.OpDivide:     "DIVIDE",
		ast.OpModulo:     "MODULO",
		ast.OpBitwiseAnd: "BITWISE_AND",
	}
	for o, name := range ops {
		code := compileCode(t, &ast.Arithmetic{Op: o, Left: val(6), Right: val(4)}, nil)
		require.Equal(t, []string{name + " 6 4 R0", "NOT_ALL_ZERO R0", "RETURN R0"}, lines(code))
	}
}

func TestReturnValues(t *testing.T) {
	r := newRegistry()
	code := compileCode(t, field(r.src), &Config{ReturnValues: true})
	require.Equal(t, []string{
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 2",
		"RETURN R0",
	}, lines(code))
	prog := code.ToProgram()
	require.Equal(t, bytecode.Register, prog.ValueAt(prog.Result()).Kind)

	// Only the root may yield values.
	code = compileCode(t, test(ast.OpAnd, field(r.src), field(r.port)), &Config{ReturnValues: true})
	require.Equal(t, []string{
		"CHECK_EXISTS ip.src",
		"IF_FALSE_GOTO 3",
		"CHECK_EXISTS tcp.port",
		"RETURN",
	}, lines(code))

	code = compileCode(t, field(r.src), &Config{ReturnValues: true, Optimize: true})
	require.Equal(t, []string{
		"READ_TREE ip.src R0",
		"NO_OP",
		"RETURN R0",
	}, lines(code))
}

func TestDeterminism(t *testing.T) {
	r := newRegistry()
	tree := test(ast.OpOr,
		test(ast.OpIn, field(r.port), set(one(val(1)), between(val(3), val(5)))),
		test(ast.OpAnyEq, call(t, "upper", &ast.Field{Info: r.host, Range: rng(t, "0:4")}), val("GET")))
	for _, optimize := range []bool{false, true} {
		cfg := &Config{Optimize: optimize}
		a, err := Compile(tree, cfg)
		require.NoError(t, err)
		b, err := Compile(tree, cfg)
		require.NoError(t, err)
		require.Equal(t, a, b)
	}
}

func TestJumpTargetsInBounds(t *testing.T) {
	r := newRegistry()
	trees := []ast.Node{
		test(ast.OpAnd, test(ast.OpOr, field(r.src), field(r.port)), test(ast.OpNot, field(r.host), nil)),
		test(ast.OpIn, call(t, "lower", field(r.host)), set(one(field(r.host)), one(val("a")))),
		test(ast.OpOr, test(ast.OpAnyEq, field(r.src), val(1)), test(ast.OpAnyEq, field(r.src), val(2))),
		&ast.Slice{Entity: &ast.Reference{Info: r.flen}, Range: rng(t, "2:")},
	}
	for _, tree := range trees {
		for _, optimize := range []bool{false, true} {
			code := compileCode(t, tree, &Config{Optimize: optimize})
			n := code.InstructionCount()
			require.Equal(t, op.Return, code.Instruction(n-1).Op)
			for i := 0; i < n; i++ {
				insn := code.Instruction(i)
				require.Equal(t, i, insn.ID)
				if !insn.Op.IsBranch() {
					continue
				}
				target := code.Value(insn.Arg1).Number
				require.Greater(t, target, i, "forward jump at %d", i)
				require.LessOrEqual(t, target, n)
			}
		}
	}
}

func TestInvariantViolations(t *testing.T) {
	r := newRegistry()
	tests := []struct {
		name string
		tree ast.Node
		code errors.ErrorCode
		msg  string
	}{
		{"set predicate", set(one(val(1))), errors.E2006, "set {1} cannot be used as a predicate"},
		{"literal predicate", val(1), errors.E2006, "literal 1 cannot be used as a predicate"},
		{"reference predicate", &ast.Reference{Info: r.src}, errors.E2006, "reference ${ip.src} cannot be used as a predicate"},
		{"test as value", test(ast.OpAnyEq, test(ast.OpAnyEq, field(r.src), val(1)), val(2)), errors.E2001, `test "==" cannot produce a value`},
		{"len arity", call(t, "len", field(r.src), field(r.port)), errors.E2003, "len() takes exactly one argument (got 2)"},
		{"vals of literal", test(ast.OpAnyEq, call(t, "vals", val(1)), val(1)), errors.E2001, "vals() needs a field, got literal 1"},
		{"logical arithmetic", &ast.Arithmetic{Op: ast.OpAnd, Left: val(1), Right: val(2)}, errors.E2002, `operator "&&" is not arithmetic`},
		{"membership without set", test(ast.OpIn, field(r.src), val(1)), errors.E2008, `right side of "in" must be a set, got literal 1`},
		{"set as value", quantified(op.All, ast.OpAnyEq, field(r.src), set(one(val(1)))), errors.E2001, "set {1} cannot produce a value"},
		{"missing info", test(ast.OpAnyEq, &ast.Field{}, val(1)), errors.E2007, "field node without field info"},
		{"missing operand", test(ast.OpAnyEq, field(r.src), nil), errors.E2005, "missing operand"},
		{"arithmetic in test", test(ast.OpAdd, field(r.src), val(1)), errors.E2002, `operator "+" cannot be used in a test`},
		{"slice without range", &ast.Slice{Entity: field(r.src), Range: drange.Drange{}}, errors.E2005, "slice without a byte range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := New(&Config{SkipValidation: true}).CompileTree(tt.tree)
			require.Nil(t, code)
			require.Error(t, err)
			ie, ok := errors.AsInvariant(err)
			require.True(t, ok)
			require.Equal(t, tt.code, ie.Code)
			require.Equal(t, "compile error: "+tt.msg, err.Error())
		})
	}
}

func TestEmptyRangeIsPlainRead(t *testing.T) {
	r := newRegistry()
	empty := drange.Drange{}
	tree := test(ast.OpAnd,
		test(ast.OpAnyEq, &ast.Field{Info: r.port, Range: empty}, val(80)),
		test(ast.OpOr, &ast.Field{Info: r.src, Range: empty}, test(ast.OpAnyEq, field(r.port), val(81))))
	code, err := New(&Config{SkipValidation: true}).CompileTree(tree)
	require.NoError(t, err)
	require.Equal(t, []string{
		"READ_TREE tcp.port R0",
		"IF_FALSE_GOTO 3",
		"ANY_EQ R0 80",
		"IF_FALSE_GOTO 9",
		"CHECK_EXISTS ip.src",
		"IF_TRUE_GOTO 9",
		"READ_TREE tcp.port R0",
		"IF_FALSE_GOTO 9",
		"ANY_EQ R0 81",
		"RETURN",
	}, lines(code))
	require.Equal(t, 1, code.RegisterCount())
}

func TestCompileNil(t *testing.T) {
	prog, err := Compile(nil, nil)
	require.Nil(t, prog)
	require.EqualError(t, err, "compile error: nothing to compile")
}

func TestValidationRunsFirst(t *testing.T) {
	r := newRegistry()
	_, err := Compile(test(ast.OpAnyEq, call(t, "len"), field(r.src)), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "len() takes exactly one argument (got 0)")
}

func TestSessionsAreIndependent(t *testing.T) {
	r := newRegistry()
	c := New(nil)
	first, err := c.CompileTree(test(ast.OpAnyEq, field(r.port), val(1)))
	require.NoError(t, err)
	second, err := c.CompileTree(test(ast.OpAnyEq, field(r.src), field(r.port)))
	require.NoError(t, err)
	require.NotEqual(t, first.ID(), second.ID())
	require.Equal(t, []string{
		"READ_TREE ip.src R0",
		"IF_FALSE_GOTO 5",
		"READ_TREE tcp.port R1",
		"IF_FALSE_GOTO 5",
		"ANY_EQ R0 R1",
		"RETURN",
	}, lines(second))
	require.Equal(t, []int{r.src.ID, r.src2.ID, r.port.ID}, second.InterestingFields())
}

func TestDebugLogging(t *testing.T) {
	r := newRegistry()
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := Compile(test(ast.OpAnyEq, field(r.port), val(1)), &Config{Logger: &logger, Optimize: true})
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, `"message":"compiled filter"`)
	require.Contains(t, out, `"message":"optimized filter"`)
	require.Contains(t, out, `"instructions":4`)
	require.Contains(t, out, `"session":"`)
	require.NotContains(t, out, "branch target advanced")
}

func TestCodeJSON(t *testing.T) {
	r := newRegistry()
	code := compileCode(t, field(r.port), nil)
	data, err := code.MarshalJSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"op":"CHECK_EXISTS"`)
	require.Contains(t, string(data), `"interesting_fields":[{"id":1,"abbrev":"tcp.port"}]`)
}

// Package compiler lowers a display filter expression tree into bytecode for
// the filter VM.
//
// # Code Generation
//
// The tree is compiled in a single recursive pass. Predicates (tests,
// existence checks, non-zero checks) are compiled by compilePredicate;
// value-producing nodes by compileEntity. Entity compilation returns the
// operand holding the result.
//
// # Absence
//
// A field missing from a packet is not an error. Every instruction that can
// fail to produce a value (a tree read, a value-string lookup, a function
// call) is followed by an IF_FALSE_GOTO whose target is left unresolved and
// appended to a pending jump list. The nearest enclosing compiler that
// consumes the value resolves ("fixes up") the list to the instruction right
// after its own, so an absent value skips exactly the test that needed it.
//
// # Registers
//
// Each compile session numbers registers from zero. A plain read of a field
// that was already read reuses its register: the READ_TREE is emitted again
// but targets the same register, so values are never read from a register
// whose load was skipped. Ranged reads, back-references and computed values
// always get a fresh register.
//
// # Optimization
//
// When enabled, Optimize rewrites branch targets after code generation. It
// never changes the number or order of instructions.
package compiler

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/fields"
	"github.com/packetlens/dfilter/op"
)

// Compiler compiles filter trees. A Compiler may be reused for several
// trees, one at a time; each compile runs in a fresh session.
type Compiler struct {
	registry       fields.Registry
	optimize       bool
	returnValues   bool
	skipValidation bool
	logger         zerolog.Logger

	// The session being compiled
	code *Code
}

// Config holds compiler configuration options.
type Config struct {
	// Registry resolves same-name field chains. Defaults to fields.Chains,
	// which follows the links stored on each fields.Info.
	Registry fields.Registry

	// Optimize runs the control-flow optimizer after code generation.
	Optimize bool

	// ReturnValues makes a bare field at the root load and return its
	// values instead of testing for existence.
	ReturnValues bool

	// SkipValidation compiles the tree without running Validate first. An
	// invalid tree then surfaces as the first InvariantError hit during code
	// generation.
	SkipValidation bool

	// Logger receives debug and trace output. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Compile compiles the given tree and returns an immutable program. Pass nil
// for cfg to use default settings.
func Compile(node ast.Node, cfg *Config) (*bytecode.Program, error) {
	c := New(cfg)
	code, err := c.CompileTree(node)
	if err != nil {
		return nil, err
	}
	return code.ToProgram(), nil
}

// New creates and returns a new Compiler. Pass nil for cfg to use defaults.
func New(cfg *Config) *Compiler {
	c := &Compiler{
		registry: fields.Chains{},
		logger:   zerolog.Nop(),
	}
	if cfg != nil {
		if cfg.Registry != nil {
			c.registry = cfg.Registry
		}
		if cfg.Logger != nil {
			c.logger = *cfg.Logger
		}
		c.optimize = cfg.Optimize
		c.returnValues = cfg.ReturnValues
		c.skipValidation = cfg.SkipValidation
	}
	return c
}

// CompileTree compiles the tree in a new session and returns the mutable
// session state. Invalid trees are reported as *errors.InvariantError (or a
// multierror of them from validation) and no code is returned.
func (c *Compiler) CompileTree(node ast.Node) (code *Code, err error) {
	if node == nil {
		return nil, errors.Invariantf(errors.E2005, "nothing to compile")
	}
	if !c.skipValidation {
		if err := Validate(node); err != nil {
			return nil, err
		}
	}

	c.code = newCode(newSessionID(), c.registry, c.returnValues)
	defer func() {
		c.code = nil
		if r := recover(); r != nil {
			ie, ok := r.(*errors.InvariantError)
			if !ok {
				panic(r)
			}
			code, err = nil, ie
		}
	}()
	log := c.logger.With().Str("session", c.code.id).Logger()

	c.code.emit(op.Return, c.compilePredicate(node))

	if c.optimize {
		rewrites := optimize(c.code, &log)
		log.Debug().Int("rewrites", rewrites).Msg("optimized filter")
	}
	if err := c.code.Verify(); err != nil {
		return nil, errors.Invariantf(errors.E3002, "%v", err)
	}
	log.Debug().
		Int("instructions", c.code.InstructionCount()).
		Int("registers", c.code.RegisterCount()).
		Int("interesting_fields", len(c.code.interesting)).
		Msg("compiled filter")
	return c.code, nil
}

func newSessionID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return "unknown"
	}
	return id.String()
}

func invariant(code errors.ErrorCode, format string, args ...any) {
	panic(errors.Invariantf(code, format, args...))
}

// compilePredicate compiles a node in boolean position. The return-values
// flag is consumed here, so only the root may yield a loaded field.
func (c *Compiler) compilePredicate(node ast.Node) bytecode.ValueID {
	returnValues := c.code.returnValues
	c.code.returnValues = false

	switch node := node.(type) {
	case *ast.Test:
		c.compileTest(node)
		return bytecode.NoValue
	case *ast.Field:
		if returnValues {
			var jumps []bytecode.ValueID
			val := c.compileEntity(node, &jumps)
			c.code.fixup(&jumps)
			return val
		}
		c.compileExists(node)
		return bytecode.NoValue
	case *ast.Arithmetic, *ast.Function:
		return c.compileNotZero(node)
	case *ast.Slice:
		return c.compileNotZeroSlice(node)
	case nil:
		invariant(errors.E2005, "missing predicate")
	default:
		invariant(errors.E2006, "%s cannot be used as a predicate", describe(node))
	}
	return bytecode.NoValue
}

// describe names a node for error messages.
func describe(node ast.Node) string {
	switch node := node.(type) {
	case *ast.Test:
		return fmt.Sprintf("test %q", node.Op)
	case *ast.Field:
		return "field " + node.String()
	case *ast.Reference:
		return "reference " + node.String()
	case *ast.FValue:
		return "literal " + node.String()
	case *ast.Pattern:
		return "pattern " + node.String()
	case *ast.Slice:
		return "slice " + node.String()
	case *ast.Function:
		return "function " + node.String()
	case *ast.Arithmetic:
		return "arithmetic " + node.String()
	case *ast.Set:
		return "set " + node.String()
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%T", node)
}

package ast

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/packetlens/dfilter/drange"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/fields"
)

// Resolver maps a field abbreviation to its registry entry.
type Resolver func(abbrev string) (*fields.Info, error)

// TableResolver resolves abbreviations against a field table.
func TableResolver(t *fields.Table) Resolver {
	return func(abbrev string) (*fields.Info, error) {
		f, ok := t.Lookup(abbrev)
		if !ok {
			err := errors.TreeErrorf(errors.E1001, "", "unknown field %q", abbrev)
			err.Hint = errors.FormatSuggestions(errors.SuggestSimilar(abbrev, t.Abbrevs()))
			return nil, err
		}
		return f, nil
	}
}

// RegisteringResolver resolves abbreviations against t, registering any
// abbreviation it has not seen before.
func RegisteringResolver(t *fields.Table) Resolver {
	return func(abbrev string) (*fields.Info, error) {
		if f, ok := t.Lookup(abbrev); ok {
			return f, nil
		}
		return t.Register(abbrev, "", ""), nil
	}
}

// yamlNode is the fixture form of a tree node. Exactly one of the variant
// keys (test, arith, field, reference, value, pattern, slice, function,
// set) must be present.
type yamlNode struct {
	Test      string      `yaml:"test"`
	Match     string      `yaml:"match"`
	Arith     string      `yaml:"arith"`
	Left      *yamlNode   `yaml:"left"`
	Right     *yamlNode   `yaml:"right"`
	Field     string      `yaml:"field"`
	Reference string      `yaml:"reference"`
	Range     string      `yaml:"range"`
	Raw       bool        `yaml:"raw"`
	Vals      bool        `yaml:"vals"`
	Value     yaml.Node   `yaml:"value"`
	Pattern   *string     `yaml:"pattern"`
	Slice     *yamlNode   `yaml:"slice"`
	Function  string      `yaml:"function"`
	Args      []*yamlNode `yaml:"args"`
	Set       []*yamlNode `yaml:"set"`
	Between   []*yamlNode `yaml:"between"`
}

// DecodeYAML builds a tree from its YAML fixture form, for example
//
//	test: and
//	left: {field: ip.src}
//	right:
//	  test: in
//	  left: {field: tcp.port}
//	  right:
//	    set: [{value: 80}, {between: [{value: 8000}, {value: 8080}]}]
func DecodeYAML(data []byte, resolve Resolver) (Node, error) {
	var doc yamlNode
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding filter tree: %w", err)
	}
	return (&decoder{resolve: resolve}).node(&doc, "root")
}

type decoder struct {
	resolve Resolver
}

func (d *decoder) node(y *yamlNode, path string) (Node, error) {
	if y == nil {
		return nil, errors.TreeErrorf(errors.E1004, path, "missing node")
	}
	var kinds []string
	check := func(present bool, name string) {
		if present {
			kinds = append(kinds, name)
		}
	}
	check(y.Test != "", "test")
	check(y.Arith != "", "arith")
	check(y.Field != "", "field")
	check(y.Reference != "", "reference")
	check(y.Value.Kind != 0, "value")
	check(y.Pattern != nil, "pattern")
	check(y.Slice != nil, "slice")
	check(y.Function != "", "function")
	check(y.Set != nil, "set")
	switch len(kinds) {
	case 0:
		return nil, errors.TreeErrorf(errors.E1004, path, "node has no variant key")
	case 1:
	default:
		return nil, errors.TreeErrorf(errors.E1004, path, "node has several variant keys (%s)", strings.Join(kinds, ", "))
	}

	switch kinds[0] {
	case "test":
		return d.test(y, path)
	case "arith":
		return d.arithmetic(y, path)
	case "field":
		info, r, err := d.field(y.Field, y.Range, path)
		if err != nil {
			return nil, err
		}
		return &Field{Info: info, Range: r, Raw: y.Raw, ValueString: y.Vals}, nil
	case "reference":
		info, r, err := d.field(y.Reference, y.Range, path)
		if err != nil {
			return nil, err
		}
		return &Reference{Info: info, Range: r, Raw: y.Raw, ValueString: y.Vals}, nil
	case "value":
		var v any
		if err := y.Value.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &FValue{Value: v}, nil
	case "pattern":
		re, err := regexp.Compile(*y.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &Pattern{Regexp: re}, nil
	case "slice":
		inner, err := d.node(y.Slice, path+".slice")
		if err != nil {
			return nil, err
		}
		r, err := drange.Parse(y.Range)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &Slice{Entity: inner, Range: r}, nil
	case "function":
		return d.function(y, path)
	default:
		return d.set(y, path)
	}
}

func (d *decoder) test(y *yamlNode, path string) (Node, error) {
	o, ok := ParseOp(y.Test)
	if !ok || o.IsArithmetic() {
		return nil, errors.TreeErrorf(errors.E1003, path, "unknown test operator %q", y.Test)
	}
	q, ok := ParseQuantifier(y.Match)
	if !ok {
		return nil, errors.TreeErrorf(errors.E1003, path, "unknown quantifier %q", y.Match)
	}
	left, err := d.node(y.Left, path+".left")
	if err != nil {
		return nil, err
	}
	t := &Test{Op: o, Quantifier: q, Left: left}
	if o == OpNot {
		if y.Right != nil {
			return nil, errors.TreeErrorf(errors.E1004, path+".right", "not takes one operand")
		}
		return t, nil
	}
	if t.Right, err = d.node(y.Right, path+".right"); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *decoder) arithmetic(y *yamlNode, path string) (Node, error) {
	o, ok := ParseOp(y.Arith)
	if !ok || !o.IsArithmetic() {
		return nil, errors.TreeErrorf(errors.E1003, path, "unknown arithmetic operator %q", y.Arith)
	}
	left, err := d.node(y.Left, path+".left")
	if err != nil {
		return nil, err
	}
	a := &Arithmetic{Op: o, Left: left}
	if o == OpUnaryMinus {
		if y.Right != nil {
			return nil, errors.TreeErrorf(errors.E1004, path+".right", "unary minus takes one operand")
		}
		return a, nil
	}
	if a.Right, err = d.node(y.Right, path+".right"); err != nil {
		return nil, err
	}
	return a, nil
}

func (d *decoder) field(abbrev, rng, path string) (*fields.Info, drange.Drange, error) {
	info, err := d.resolve(abbrev)
	if err != nil {
		if te, ok := err.(*errors.TreeError); ok {
			te.Path = path
			return nil, nil, te
		}
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if rng == "" {
		return info, nil, nil
	}
	r, err := drange.Parse(rng)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, r, nil
}

func (d *decoder) function(y *yamlNode, path string) (Node, error) {
	def, ok := LookupFunction(y.Function)
	if !ok {
		err := errors.TreeErrorf(errors.E1002, path, "unknown function %q", y.Function)
		err.Hint = errors.FormatSuggestions(errors.SuggestSimilar(y.Function, FunctionNames()))
		return nil, err
	}
	fn := &Function{Def: def}
	for i, a := range y.Args {
		arg, err := d.node(a, fmt.Sprintf("%s.args[%d]", path, i))
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, arg)
	}
	return fn, nil
}

func (d *decoder) set(y *yamlNode, path string) (Node, error) {
	s := &Set{}
	for i, e := range y.Set {
		elemPath := fmt.Sprintf("%s.set[%d]", path, i)
		if e != nil && e.Between != nil {
			if len(e.Between) != 2 {
				return nil, errors.TreeErrorf(errors.E1004, elemPath, "between needs exactly two bounds")
			}
			low, err := d.node(e.Between[0], elemPath+".low")
			if err != nil {
				return nil, err
			}
			high, err := d.node(e.Between[1], elemPath+".high")
			if err != nil {
				return nil, err
			}
			s.Elements = append(s.Elements, SetElement{Low: low, High: high})
			continue
		}
		v, err := d.node(e, elemPath)
		if err != nil {
			return nil, err
		}
		s.Elements = append(s.Elements, SetElement{Low: v})
	}
	return s, nil
}

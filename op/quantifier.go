package op

// Quantifier selects whether a relation over a multi-occurrence field must
// hold for every occurrence (All) or for at least one (Any). Default keeps
// the operator's baseline opcode.
type Quantifier uint8

const (
	Default Quantifier = iota
	All
	Any
)

func (q Quantifier) String() string {
	switch q {
	case All:
		return "all"
	case Any:
		return "any"
	default:
		return "default"
	}
}

// pair holds the two members of an ALL/ANY opcode family.
type pair struct {
	all Code
	any Code
}

var pairs = map[Code]pair{}

func init() {
	for _, p := range []pair{
		{AllEq, AnyEq},
		{AllNe, AnyNe},
		{AllGt, AnyGt},
		{AllGe, AnyGe},
		{AllLt, AnyLt},
		{AllLe, AnyLe},
		{AllContains, AnyContains},
		{AllMatches, AnyMatches},
		{SetAllIn, SetAnyIn},
		{SetAllNotIn, SetAnyNotIn},
	} {
		pairs[p.all] = p
		pairs[p.any] = p
	}
}

// IsQuantified reports whether the opcode has ALL and ANY variants.
func IsQuantified(c Code) bool {
	_, ok := pairs[c]
	return ok
}

// Select returns the member of c's ALL/ANY family named by q. With Default
// the opcode is returned unchanged. The second result is false when q is not
// Default and c has no ALL/ANY family.
func Select(c Code, q Quantifier) (Code, bool) {
	if q == Default {
		return c, true
	}
	p, ok := pairs[c]
	if !ok {
		return Invalid, false
	}
	switch q {
	case All:
		return p.all, true
	case Any:
		return p.any, true
	}
	return Invalid, false
}

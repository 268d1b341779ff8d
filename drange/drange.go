// Package drange describes byte ranges applied to a field's raw bytes, as in
// "eth.src[0:3]" or "frame[4-7,10:]".
package drange

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies how a range node's end is expressed.
type Kind uint8

const (
	// Length ranges are written start:length.
	Length Kind = iota + 1
	// Offset ranges are written start-end, both inclusive.
	Offset
	// ToTheEnd ranges are written start: and run to the last byte.
	ToTheEnd
)

// Node is one offset/length window. Negative starts count from the end of
// the field value.
type Node struct {
	Kind   Kind
	Start  int
	Length int // set for Length
	End    int // set for Offset
}

func (n Node) String() string {
	switch n.Kind {
	case Length:
		if n.Length == 1 {
			return strconv.Itoa(n.Start)
		}
		return fmt.Sprintf("%d:%d", n.Start, n.Length)
	case Offset:
		return fmt.Sprintf("%d-%d", n.Start, n.End)
	case ToTheEnd:
		return fmt.Sprintf("%d:", n.Start)
	default:
		return "?"
	}
}

// Drange is an ordered list of windows. A nil Drange means "no range".
type Drange []Node

// String returns the comma separated text form without brackets.
func (d Drange) String() string {
	parts := make([]string, len(d))
	for i, n := range d {
		parts[i] = n.String()
	}
	return strings.Join(parts, ",")
}

// Clone returns an independent copy of the range.
func (d Drange) Clone() Drange {
	if d == nil {
		return nil
	}
	c := make(Drange, len(d))
	copy(c, d)
	return c
}

// Parse reads the text form of a range, with or without the surrounding
// brackets: "0:4", "[2]", "1-3,6:", ":2".
func Parse(s string) (Drange, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, fmt.Errorf("empty range")
	}
	var d Drange
	for _, part := range strings.Split(s, ",") {
		n, err := parseNode(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", s, err)
		}
		d = append(d, n)
	}
	return d, nil
}

func parseNode(s string) (Node, error) {
	if s == "" {
		return Node{}, fmt.Errorf("empty range element")
	}
	if i := strings.Index(s, ":"); i >= 0 {
		start := 0
		if i > 0 {
			v, err := strconv.Atoi(s[:i])
			if err != nil {
				return Node{}, err
			}
			start = v
		}
		rest := s[i+1:]
		if rest == "" {
			return Node{Kind: ToTheEnd, Start: start}, nil
		}
		length, err := strconv.Atoi(rest)
		if err != nil {
			return Node{}, err
		}
		if length <= 0 {
			return Node{}, fmt.Errorf("length must be positive (got %d)", length)
		}
		return Node{Kind: Length, Start: start, Length: length}, nil
	}
	// A leading minus is a negative start, not an offset separator.
	if i := strings.Index(s[1:], "-"); i >= 0 {
		i++
		start, err := strconv.Atoi(s[:i])
		if err != nil {
			return Node{}, err
		}
		end, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: Offset, Start: start, End: end}, nil
	}
	start, err := strconv.Atoi(s)
	if err != nil {
		return Node{}, err
	}
	return Node{Kind: Length, Start: start, Length: 1}, nil
}

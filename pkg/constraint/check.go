package constraint

import (
	"fmt"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/version"
)

type pred func(version.Version) bool

func all(version.Version) bool  { return true }
func none(version.Version) bool { return false }

func cmpVersion(op Op, bound version.Version) pred {
	return func(v version.Version) bool {
		c := v.Compare(bound)
		switch op {
		case OpExact:
			return c == 0
		case OpNotEqual:
			return c != 0
		case OpGreater:
			return c > 0
		case OpGreaterEqual:
			return c >= 0
		case OpLess:
			return c < 0
		case OpLessEqual:
			return c <= 0
		}
		return false
	}
}

// below is an exclusive upper bound that compares release segments only, so
// pre-releases of the bound itself stay outside the range.
func below(segs []int) pred {
	return func(v version.Version) bool {
		return version.CompareSegments(version.SegmentsOf(v), segs) < 0
	}
}

func atLeast(segs []int) pred {
	return func(v version.Version) bool {
		return version.CompareSegments(version.SegmentsOf(v), segs) >= 0
	}
}

func (d Dialect) lower(t Text) (version.Version, error) {
	raw := t.bound(d.Width)
	v, err := d.Scheme.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("bound %q: %w", raw, err)
	}
	return v, nil
}

func (d Dialect) exact(t Text) (version.Version, error) {
	raw := t.Prefix + strings.Join(t.Parts, ".") + t.Rest
	v, err := d.Scheme.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("version %q: %w", raw, err)
	}
	return v, nil
}

// partial reports whether t stands for a range of versions.
func (d Dialect) partial(t Text) bool {
	return t.Wildcard() || d.PartialExact && d.short(t)
}

func (d Dialect) short(t Text) bool {
	return d.Width > 0 && len(t.Parts) < d.Width
}

// upperIndex is the index of the segment bumped to form the exclusive
// upper bound of a range operator.
func upperIndex(op Op, concrete []int) int {
	n := len(concrete)
	switch op {
	case OpCaret:
		for i, s := range concrete {
			if s != 0 {
				return i
			}
		}
		return n - 1
	case OpTilde:
		if n >= 2 {
			return 1
		}
		return 0
	case OpPessimistic:
		return max(n-2, 0)
	}
	return n - 1
}

func (c Comparator) predicates(d Dialect) ([]pred, error) {
	if c.Branch != "" {
		return []pred{none}, nil
	}
	t := c.V
	concrete := t.Concrete()
	n := len(concrete)
	partial := d.partial(t)

	switch c.Op {
	case OpExact:
		if !partial {
			v, err := d.exact(t)
			if err != nil {
				return nil, err
			}
			return []pred{cmpVersion(OpExact, v)}, nil
		}
		if n == 0 {
			return []pred{all}, nil
		}
		lo, err := d.lower(t)
		if err != nil {
			return nil, err
		}
		return []pred{cmpVersion(OpGreaterEqual, lo), below(version.Bump(concrete, n-1, n))}, nil

	case OpNotEqual:
		if !partial {
			v, err := d.exact(t)
			if err != nil {
				return nil, err
			}
			return []pred{cmpVersion(OpNotEqual, v)}, nil
		}
		if n == 0 {
			return []pred{none}, nil
		}
		lo, hi := version.Pad(concrete, d.Width), version.Bump(concrete, n-1, n)
		return []pred{func(v version.Version) bool {
			s := version.SegmentsOf(v)
			return version.CompareSegments(s, lo) < 0 || version.CompareSegments(s, hi) >= 0
		}}, nil

	case OpGreater:
		if partial {
			if n == 0 {
				return []pred{none}, nil
			}
			return []pred{atLeast(version.Bump(concrete, n-1, n))}, nil
		}
		v, err := d.exact(t)
		if err != nil {
			return nil, err
		}
		return []pred{cmpVersion(OpGreater, v)}, nil

	case OpGreaterEqual:
		if n == 0 {
			return []pred{all}, nil
		}
		lo, err := d.lower(t)
		if err != nil {
			return nil, err
		}
		return []pred{cmpVersion(OpGreaterEqual, lo)}, nil

	case OpLess:
		if n == 0 {
			return []pred{none}, nil
		}
		lo, err := d.lower(t)
		if err != nil {
			return nil, err
		}
		return []pred{cmpVersion(OpLess, lo)}, nil

	case OpLessEqual:
		if partial {
			if n == 0 {
				return []pred{all}, nil
			}
			return []pred{below(version.Bump(concrete, n-1, n))}, nil
		}
		v, err := d.exact(t)
		if err != nil {
			return nil, err
		}
		return []pred{cmpVersion(OpLessEqual, v)}, nil

	case OpCaret, OpTilde, OpPessimistic:
		if n == 0 {
			return []pred{all}, nil
		}
		lo, err := d.lower(t)
		if err != nil {
			return nil, err
		}
		idx := upperIndex(c.Op, concrete)
		return []pred{cmpVersion(OpGreaterEqual, lo), below(version.Bump(concrete, idx, n))}, nil

	case OpHyphen:
		preds := []pred{all}
		if n > 0 {
			lo, err := d.lower(t)
			if err != nil {
				return nil, err
			}
			preds = []pred{cmpVersion(OpGreaterEqual, lo)}
		}
		u := *c.Upper
		uc := u.Concrete()
		switch {
		case len(uc) == 0:
		case u.Wildcard() || d.short(u):
			preds = append(preds, below(version.Bump(uc, len(uc)-1, len(uc))))
		default:
			hi, err := d.exact(u)
			if err != nil {
				return nil, err
			}
			preds = append(preds, cmpVersion(OpLessEqual, hi))
		}
		return preds, nil
	}
	return nil, fmt.Errorf("unsupported operator %s", c.Op)
}

func (d Dialect) checkAlternative(a Alternative, v version.Version) bool {
	for _, c := range a.Comparators {
		preds, err := c.predicates(d)
		if err != nil {
			return false
		}
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
	}
	if d.PrereleaseTuple && v.Prerelease() {
		return namesPrerelease(a, v)
	}
	return true
}

// namesPrerelease reports whether a comparator of a names a pre-release
// with the same release tuple as v.
func namesPrerelease(a Alternative, v version.Version) bool {
	segs := version.SegmentsOf(v)
	for _, c := range a.Comparators {
		for _, t := range []*Text{&c.V, c.Upper} {
			if t == nil || t.Pre() == "" {
				continue
			}
			if version.CompareSegments(t.Concrete(), segs) == 0 {
				return true
			}
		}
	}
	return false
}

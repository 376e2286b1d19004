package constraint

import (
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Bumped returns c rewritten so that target becomes its floor. Operators,
// written precision and wildcards are kept, upper bounds are raised only
// when they exclude target, and branch alternatives are left untouched.
// Alternatives that end up identical are collapsed.
//
//	"^1.2.3"             -> "^1.5.0"           (target 1.5.0)
//	">= 1.0, < 1.4"      -> ">= 1.5, < 1.6"
//	"dev-main || ^1.0"   -> "dev-main || ^1.5"
func (c *Constraint) Bumped(target version.Version) *Constraint {
	out := &Constraint{Dialect: c.Dialect}
	seen := map[string]bool{}
	for i, a := range c.Alternatives {
		if !a.IsBranch() {
			a = a.bumped(c.Dialect, target)
		} else {
			a = a.Clone()
		}
		key := a.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		sep := ""
		if i > 0 && i-1 < len(c.OrSeps) {
			sep = c.OrSeps[i-1]
		}
		out.Append(a, sep)
	}
	return out
}

func (a Alternative) bumped(d Dialect, target version.Version) Alternative {
	out := a.Clone()
	for i, cmp := range out.Comparators {
		switch {
		case cmp.Branch != "", cmp.Op == OpNotEqual, cmp.Op == OpGreater:
		case cmp.IsUpperBound():
			if !cmp.Check(d, target) {
				out.Comparators[i] = cmp.RaisedTo(target)
			}
		case cmp.Op == OpHyphen:
			u := cmp.UpdatedTo(target)
			if !u.Check(d, target) {
				u = u.RaisedTo(target)
			}
			out.Comparators[i] = u
		default:
			out.Comparators[i] = cmp.UpdatedTo(target)
		}
	}
	return out
}

// Widened returns c extended so that it also admits target, never
// excluding versions c admitted. In order of preference it raises an
// existing upper bound, appends an alternative shaped like the last
// numeric one (dialects with "||"), or spells range operators out as
// explicit bounds:
//
//	">= 1.0, < 2.0"  -> ">= 1.0, < 3.0"       (target 2.1.0)
//	"~1.4.0"         -> "~1.4.0 || ~1.5.0"    (Composer, target 1.5.0)
//	"~> 1.4"         -> ">= 1.4, < 3.0"       (RubyGems, target 2.1.0)
//
// A constraint already admitting target is returned unchanged.
func (c *Constraint) Widened(target version.Version) *Constraint {
	if c.Check(target) {
		return c.Clone()
	}
	d := c.Dialect

	for i, a := range c.Alternatives {
		if a.IsBranch() || !a.hasUpperBound() {
			continue
		}
		r := a.raised(target)
		if r.Check(d, target) {
			out := c.Clone()
			out.Alternatives[i] = r
			return out
		}
	}

	if d.Or {
		for i := len(c.Alternatives) - 1; i >= 0; i-- {
			if c.Alternatives[i].IsBranch() {
				continue
			}
			out := c.Clone()
			out.Append(c.Alternatives[i].bumped(d, target), "")
			return out
		}
	}

	for i, a := range c.Alternatives {
		if a.IsBranch() {
			continue
		}
		r := a.expanded(d, target)
		if r.Check(d, target) {
			out := c.Clone()
			out.Alternatives[i] = r
			return out
		}
	}
	return c.Bumped(target)
}

func (a Alternative) hasUpperBound() bool {
	for _, c := range a.Comparators {
		if c.IsUpperBound() || c.Op == OpHyphen && c.Upper != nil {
			return true
		}
	}
	return false
}

func (a Alternative) raised(target version.Version) Alternative {
	out := a.Clone()
	for i, c := range out.Comparators {
		if c.IsUpperBound() || c.Op == OpHyphen {
			out.Comparators[i] = c.RaisedTo(target)
		}
	}
	return out
}

// expanded replaces caret, tilde and pessimistic comparators with an
// explicit ">=" lower bound and a raised "<" upper bound.
func (a Alternative) expanded(d Dialect, target version.Version) Alternative {
	var out Alternative
	add := func(c Comparator) {
		if len(out.Comparators) > 0 {
			out.Seps = append(out.Seps, ", ")
		}
		out.Comparators = append(out.Comparators, c)
	}
	for _, c := range a.Comparators {
		switch c.Op {
		case OpCaret, OpTilde, OpPessimistic:
			concrete := c.V.Concrete()
			if len(concrete) == 0 {
				add(c.Clone())
				continue
			}
			n := len(concrete)
			bound := version.Bump(concrete, upperIndex(c.Op, concrete), n)

			lo := c.Clone()
			lo.Op, lo.OpText = OpGreaterEqual, ">="
			add(lo)

			hi := c.Clone()
			hi.Op, hi.OpText = OpLess, "<"
			hi.V.Parts, hi.V.Rest, hi.V.Flag = itoa(version.RaiseUpperBound(bound, version.SegmentsOf(target))), "", ""
			add(hi)
		case OpExact:
			add(c.UpdatedTo(target))
		default:
			add(c.Clone())
		}
	}
	return out
}

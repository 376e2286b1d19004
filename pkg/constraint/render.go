package constraint

import (
	"strconv"

	"github.com/matzehuels/updatecheck/pkg/version"
)

// Check reports whether v satisfies every comparator of a.
func (a Alternative) Check(d Dialect, v version.Version) bool {
	return d.checkAlternative(a, v)
}

// Check reports whether v satisfies c on its own.
func (c Comparator) Check(d Dialect, v version.Version) bool {
	preds, err := c.predicates(d)
	if err != nil {
		return false
	}
	for _, p := range preds {
		if !p(v) {
			return false
		}
	}
	return true
}

// UpdatedTo returns c with its version replaced by target. The operator,
// the written precision and wildcard positions are kept; segments beyond
// target's precision are dropped. A pre-release target is written in full.
//
//	"^1.2.3"   -> "^1.5.0"
//	"~2.4.x"   -> "~2.5.x"
//	"1"        -> "4"      (target 4.5.0)
//	"^0.*.*"   -> "^1.*.*"
func (c Comparator) UpdatedTo(target version.Version) Comparator {
	out := c.Clone()
	if c.Branch != "" {
		return out
	}
	if target.Prerelease() {
		if t, err := ParseText(version.Release(target)); err == nil {
			t.Prefix, t.Flag = c.V.Prefix, c.V.Flag
			out.V = t
		}
		return out
	}
	segs := version.SegmentsOf(target)
	var parts []string
	for i, p := range c.V.Parts {
		switch {
		case len(p) == 1 && isWildcard(p[0]):
			parts = append(parts, p)
		case i < len(segs):
			parts = append(parts, strconv.Itoa(segs[i]))
		}
	}
	out.V.Parts, out.V.Rest = parts, ""
	return out
}

// WithRelease returns c with its version set to segs. Any pre-release or
// build suffix is dropped.
func (c Comparator) WithRelease(segs []int) Comparator {
	out := c.Clone()
	out.V.Parts, out.V.Rest = itoa(segs), ""
	return out
}

// RaisedTo moves an upper bound so that it admits target while keeping its
// shape. For hyphen ranges the upper end is moved; for "<" and "<="
// comparators the version itself. Other comparators are returned as-is.
//
//	"< 1.2.0"          -> "< 1.6.0"   (target 1.5.0)
//	"1.2.3 - 1.4.0"    -> "1.2.3 - 1.6.0"
func (c Comparator) RaisedTo(target version.Version) Comparator {
	segs := version.SegmentsOf(target)
	switch c.Op {
	case OpLess, OpLessEqual:
		return c.WithRelease(version.RaiseUpperBound(c.V.Concrete(), segs))
	case OpHyphen:
		out := c.Clone()
		u := out.Upper
		u.Parts, u.Rest = itoa(version.RaiseUpperBound(u.Concrete(), segs)), ""
		return out
	}
	return c
}

// IsUpperBound reports whether c only limits versions from above.
func (c Comparator) IsUpperBound() bool {
	return c.Op == OpLess || c.Op == OpLessEqual
}

// IsLowerBound reports whether c only limits versions from below.
func (c Comparator) IsLowerBound() bool {
	return c.Op == OpGreater || c.Op == OpGreaterEqual
}

func itoa(segs []int) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = strconv.Itoa(s)
	}
	return out
}

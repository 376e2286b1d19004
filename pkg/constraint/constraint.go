package constraint

import (
	"strings"

	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Op is the resolved meaning of a comparator operator.
type Op int

const (
	OpExact Op = iota
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	// OpCaret allows changes that do not modify the left-most non-zero
	// segment.
	OpCaret
	// OpTilde allows patch-level changes when a minor version is given,
	// minor-level changes otherwise (npm and Cargo "~").
	OpTilde
	// OpPessimistic allows the last given segment to grow (RubyGems "~>",
	// Composer "~").
	OpPessimistic
	// OpHyphen is an inclusive "a - b" range.
	OpHyphen
)

var opNames = map[Op]string{
	OpExact:        "=",
	OpNotEqual:     "!=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpCaret:        "^",
	OpTilde:        "~",
	OpPessimistic:  "~>",
	OpHyphen:       "-",
}

func (o Op) String() string { return opNames[o] }

// Dialect configures the grammar for one ecosystem.
type Dialect struct {
	Name   string
	Scheme version.Scheme

	// Bare is the meaning of a version without an operator.
	Bare Op
	// Tilde is the meaning of "~" (OpTilde or OpPessimistic).
	Tilde Op
	// Width is the full release width. A version with fewer segments is
	// partial; zero disables partial handling.
	Width int
	// PartialExact makes a partial exact version match its whole range.
	PartialExact bool
	// Or accepts "||" alternatives.
	Or bool
	// Hyphen accepts "a - b" ranges.
	Hyphen bool
	// Branches recognizes "dev-" branch names and "@stability" flags.
	Branches bool
	// PrereleaseTuple admits a pre-release only when a comparator of the
	// same alternative names a pre-release of the same release tuple.
	PrereleaseTuple bool
	// EmptyAny treats an empty requirement as "*".
	EmptyAny bool
}

// Cargo is the Cargo.toml requirement dialect.
var Cargo = Dialect{
	Name:            "cargo",
	Scheme:          version.Semver,
	Bare:            OpCaret,
	Tilde:           OpTilde,
	Width:           3,
	PartialExact:    true,
	PrereleaseTuple: true,
}

// Npm is the node-semver range dialect.
var Npm = Dialect{
	Name:            "npm",
	Scheme:          version.Semver,
	Bare:            OpExact,
	Tilde:           OpTilde,
	Width:           3,
	PartialExact:    true,
	Or:              true,
	Hyphen:          true,
	PrereleaseTuple: true,
	EmptyAny:        true,
}

// Ruby returns the RubyGems requirement dialect for scheme.
func Ruby(scheme version.Scheme) Dialect {
	return Dialect{
		Name:   "rubygems",
		Scheme: scheme,
		Bare:   OpExact,
		Tilde:  OpPessimistic,
	}
}

// Composer returns the Composer constraint dialect for scheme.
func Composer(scheme version.Scheme) Dialect {
	return Dialect{
		Name:     "composer",
		Scheme:   scheme,
		Bare:     OpExact,
		Tilde:    OpPessimistic,
		Width:    3,
		Or:       true,
		Hyphen:   true,
		Branches: true,
	}
}

// Generic returns a permissive dialect used for ignore conditions.
func Generic(scheme version.Scheme) Dialect {
	return Dialect{
		Name:   "generic",
		Scheme: scheme,
		Bare:   OpExact,
		Tilde:  OpTilde,
		Or:     true,
		Hyphen: true,
	}
}

// Constraint is a parsed requirement. It is satisfied when all
// comparators of at least one alternative are.
type Constraint struct {
	Dialect      Dialect
	Alternatives []Alternative
	// OrSeps holds the text between alternatives, including whitespace.
	OrSeps []string
}

// Alternative is one AND-list of comparators.
type Alternative struct {
	Comparators []Comparator
	// Seps holds the text between comparators (", ", " ", ",").
	Seps []string
}

// Comparator is a single operator and version.
type Comparator struct {
	Op Op
	// OpText is the operator as written; empty for a bare version.
	OpText string
	// Space is the whitespace between operator and version.
	Space string
	V     Text
	// Upper and HyphenSep are set for OpHyphen.
	Upper     *Text
	HyphenSep string
	// Branch holds a "dev-" branch reference; such comparators never match
	// a version.
	Branch string
}

// Parse parses raw under dialect d.
func (d Dialect) Parse(raw string) (*Constraint, error) {
	s := strings.TrimSpace(raw)
	c := &Constraint{Dialect: d}
	if s == "" {
		if d.EmptyAny {
			return c, nil
		}
		return nil, invalid(d, raw, "empty requirement")
	}

	alts, seps := []string{s}, []string(nil)
	if d.Or {
		alts, seps = splitOr(s)
	}
	for _, alt := range alts {
		a, err := d.parseAlternative(alt)
		if err != nil {
			return nil, invalid(d, raw, err.Error())
		}
		c.Alternatives = append(c.Alternatives, a)
	}
	c.OrSeps = seps

	for _, a := range c.Alternatives {
		for _, cmp := range a.Comparators {
			if _, err := cmp.predicates(d); err != nil {
				return nil, invalid(d, raw, err.Error())
			}
		}
	}
	return c, nil
}

// MustParse is Parse for tests and constants.
func (d Dialect) MustParse(raw string) *Constraint {
	c, err := d.Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Check reports whether v satisfies c. Branch-only alternatives never
// match; an empty constraint matches everything.
func (c *Constraint) Check(v version.Version) bool {
	if len(c.Alternatives) == 0 {
		return true
	}
	for _, a := range c.Alternatives {
		if c.Dialect.checkAlternative(a, v) {
			return true
		}
	}
	return false
}

// String renders c from its structure.
func (c *Constraint) String() string {
	var b strings.Builder
	for i, a := range c.Alternatives {
		if i > 0 {
			if i-1 < len(c.OrSeps) {
				b.WriteString(c.OrSeps[i-1])
			} else {
				b.WriteString(" || ")
			}
		}
		b.WriteString(a.String())
	}
	return b.String()
}

// Comparators returns every comparator of every alternative.
func (c *Constraint) Comparators() []Comparator {
	var out []Comparator
	for _, a := range c.Alternatives {
		out = append(out, a.Comparators...)
	}
	return out
}

// Append adds an alternative joined with sep, or with the separator used
// by c when sep is empty.
func (c *Constraint) Append(a Alternative, sep string) {
	if sep == "" {
		sep = " || "
		if len(c.OrSeps) > 0 {
			sep = c.OrSeps[0]
		}
	}
	if len(c.Alternatives) > 0 {
		c.OrSeps = append(c.OrSeps, sep)
	}
	c.Alternatives = append(c.Alternatives, a)
}

// Clone returns a deep copy of c.
func (c *Constraint) Clone() *Constraint {
	out := &Constraint{Dialect: c.Dialect, OrSeps: append([]string(nil), c.OrSeps...)}
	for _, a := range c.Alternatives {
		out.Alternatives = append(out.Alternatives, a.Clone())
	}
	return out
}

func (a Alternative) String() string {
	var b strings.Builder
	for i, cmp := range a.Comparators {
		if i > 0 {
			if i-1 < len(a.Seps) {
				b.WriteString(a.Seps[i-1])
			} else {
				b.WriteString(", ")
			}
		}
		b.WriteString(cmp.String())
	}
	return b.String()
}

// Clone returns a deep copy of a.
func (a Alternative) Clone() Alternative {
	out := Alternative{Seps: append([]string(nil), a.Seps...)}
	for _, c := range a.Comparators {
		out.Comparators = append(out.Comparators, c.Clone())
	}
	return out
}

// IsBranch reports whether every comparator of a is a branch reference.
func (a Alternative) IsBranch() bool {
	if len(a.Comparators) == 0 {
		return false
	}
	for _, c := range a.Comparators {
		if c.Branch == "" {
			return false
		}
	}
	return true
}

func (c Comparator) String() string {
	if c.Branch != "" {
		return c.OpText + c.Space + c.Branch
	}
	s := c.OpText + c.Space + c.V.String()
	if c.Op == OpHyphen && c.Upper != nil {
		s += c.HyphenSep + c.Upper.String()
	}
	return s
}

// Clone returns a deep copy of c.
func (c Comparator) Clone() Comparator {
	c.V = c.V.Clone()
	if c.Upper != nil {
		u := c.Upper.Clone()
		c.Upper = &u
	}
	return c
}

func invalid(d Dialect, raw, reason string) error {
	return errors.New(errors.ErrCodeInvalidRequirement, "invalid %s requirement %q: %s", d.Name, raw, reason)
}

package constraint

import (
	"fmt"
	"strconv"
	"strings"
)

// Text is a version as written inside a requirement. Parts holds the
// leading release segments, each a number or a wildcard ("*", "x", "X");
// Rest holds whatever follows them ("-beta.1", ".pre", "+build").
type Text struct {
	Prefix string
	Parts  []string
	Rest   string
	// Flag is a trailing Composer stability flag such as "@dev".
	Flag string
}

// ParseText splits a version string into its parts.
func ParseText(s string) (Text, error) {
	var t Text
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') && (isDigit(s[1]) || isWildcard(s[1])) {
		t.Prefix, s = s[:1], s[1:]
	}
	pos := 0
	for pos < len(s) {
		start := pos
		if isWildcard(s[pos]) && (pos+1 == len(s) || strings.IndexByte(".-+", s[pos+1]) >= 0) {
			pos++
		} else {
			for pos < len(s) && isDigit(s[pos]) {
				pos++
			}
		}
		if pos == start {
			break
		}
		t.Parts = append(t.Parts, s[start:pos])
		if pos+1 < len(s) && s[pos] == '.' && (isDigit(s[pos+1]) || isWildcard(s[pos+1])) {
			pos++
			continue
		}
		break
	}
	if len(t.Parts) == 0 {
		return Text{}, fmt.Errorf("%q is not a version", s)
	}
	t.Rest = s[pos:]
	return t, nil
}

func (t Text) String() string {
	return t.Prefix + strings.Join(t.Parts, ".") + t.Rest + t.Flag
}

// Clone returns a deep copy of t.
func (t Text) Clone() Text {
	t.Parts = append([]string(nil), t.Parts...)
	return t
}

// Concrete returns the numeric segments before the first wildcard.
func (t Text) Concrete() []int {
	var out []int
	for _, p := range t.Parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

// Wildcard reports whether any segment is a wildcard.
func (t Text) Wildcard() bool {
	for _, p := range t.Parts {
		if len(p) == 1 && isWildcard(p[0]) {
			return true
		}
	}
	return false
}

// Pre returns the pre-release part, without its leading separator and
// without build metadata.
func (t Text) Pre() string {
	r := t.Rest
	if i := strings.IndexByte(r, '+'); i >= 0 {
		r = r[:i]
	}
	if strings.HasPrefix(r, "_") {
		r = strings.TrimLeft(r[1:], "0123456789")
	}
	return strings.TrimLeft(r, "-.")
}

// Precision is the number of written release segments.
func (t Text) Precision() int { return len(t.Parts) }

// bound renders the concrete parts padded to width followed by the
// remainder, the lowest version the text can stand for.
func (t Text) bound(width int) string {
	segs := t.Concrete()
	for len(segs) < max(width, 1) {
		segs = append(segs, 0)
	}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = strconv.Itoa(s)
	}
	s := t.Prefix + strings.Join(parts, ".")
	if !t.Wildcard() {
		s += t.Rest
	}
	return s
}

func isDigit(b byte) bool    { return b >= '0' && b <= '9' }
func isWildcard(b byte) bool { return b == '*' || b == 'x' || b == 'X' }

const opChars = "=!<>~^"

func isOpChar(b byte) bool { return strings.IndexByte(opChars, b) >= 0 }

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

// splitOr splits s on "||" (or a single "|"), returning the alternatives
// and the separators including surrounding whitespace and commas.
func splitOr(s string) (parts, seps []string) {
	start := 0
	for i := 0; i < len(s); {
		if s[i] != '|' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '|' {
			j++
		}
		k := i
		for k > start && (isSpace(s[k-1]) || s[k-1] == ',') {
			k--
		}
		e := j
		for e < len(s) && isSpace(s[e]) {
			e++
		}
		parts = append(parts, s[start:k])
		seps = append(seps, s[k:e])
		start, i = e, e
	}
	return append(parts, s[start:]), seps
}

func (d Dialect) parseAlternative(s string) (Alternative, error) {
	var a Alternative
	if strings.TrimSpace(s) == "" {
		return a, fmt.Errorf("empty alternative")
	}
	pos := 0
	for {
		sepStart := pos
		for pos < len(s) && (isSpace(s[pos]) || s[pos] == ',') {
			pos++
		}
		if pos == len(s) {
			break
		}
		if len(a.Comparators) > 0 {
			a.Seps = append(a.Seps, s[sepStart:pos])
		}

		var c Comparator
		opStart := pos
		for pos < len(s) && isOpChar(s[pos]) {
			pos++
		}
		c.OpText = s[opStart:pos]
		spStart := pos
		for pos < len(s) && isSpace(s[pos]) {
			pos++
		}
		c.Space = s[spStart:pos]
		verStart := pos
		for pos < len(s) && !isSpace(s[pos]) && s[pos] != ',' && !isOpChar(s[pos]) {
			pos++
		}
		raw := s[verStart:pos]
		if raw == "" {
			return a, fmt.Errorf("operator %q without version", c.OpText)
		}

		if d.Branches && isBranch(raw) {
			c.Op, c.Branch = OpExact, raw
			a.Comparators = append(a.Comparators, c)
			continue
		}

		t, err := d.parseText(raw)
		if err != nil {
			return a, err
		}
		c.V = t

		op, err := d.resolveOp(c.OpText, t)
		if err != nil {
			return a, err
		}
		c.Op = op

		if d.Hyphen && c.OpText == "" {
			if sep, upper, n, ok := scanHyphen(s[pos:]); ok {
				ut, err := d.parseText(upper)
				if err != nil {
					return a, err
				}
				c.Op, c.HyphenSep, c.Upper = OpHyphen, sep, &ut
				pos += n
			}
		}
		a.Comparators = append(a.Comparators, c)
	}
	return a, nil
}

func (d Dialect) parseText(raw string) (Text, error) {
	var flag string
	if d.Branches {
		if i := strings.IndexByte(raw, '@'); i >= 0 {
			raw, flag = raw[:i], raw[i:]
		}
	}
	t, err := ParseText(raw)
	if err != nil {
		return t, err
	}
	t.Flag = flag
	return t, nil
}

// scanHyphen recognizes " - upper" at the start of s.
func scanHyphen(s string) (sep, upper string, n int, ok bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i == 0 || i >= len(s) || s[i] != '-' {
		return "", "", 0, false
	}
	j := i + 1
	if j >= len(s) || !isSpace(s[j]) {
		return "", "", 0, false
	}
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	k := j
	for k < len(s) && !isSpace(s[k]) && s[k] != ',' && !isOpChar(s[k]) {
		k++
	}
	if k == j {
		return "", "", 0, false
	}
	return s[:j], s[j:k], k, true
}

func (d Dialect) resolveOp(text string, t Text) (Op, error) {
	switch text {
	case "":
		if t.Wildcard() {
			return OpExact, nil
		}
		return d.Bare, nil
	case "=", "==":
		return OpExact, nil
	case "!=":
		return OpNotEqual, nil
	case ">":
		return OpGreater, nil
	case ">=", "=>":
		return OpGreaterEqual, nil
	case "<":
		return OpLess, nil
	case "<=", "=<":
		return OpLessEqual, nil
	case "^":
		return OpCaret, nil
	case "~":
		return d.Tilde, nil
	case "~>":
		return OpPessimistic, nil
	}
	return 0, fmt.Errorf("unknown operator %q", text)
}

func isBranch(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "dev-") || strings.HasSuffix(s, "-dev")
}

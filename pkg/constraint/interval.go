package constraint

import (
	"fmt"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Interval is a bracketed version range as used by Maven and NuGet:
// "[1.0,2.0)", "(,1.5]", "[1.0,)" or the exact form "[1.0]".
type Interval struct {
	Lower, Upper   string
	LowerInclusive bool
	UpperInclusive bool
	Exact          bool
	upperSp        string
}

// IsInterval reports whether raw uses interval notation.
func IsInterval(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "(")
}

// ParseIntervals parses one interval, or a comma-separated union of
// intervals when multi is set (Maven).
func ParseIntervals(raw string, multi bool) ([]Interval, error) {
	s := strings.TrimSpace(raw)
	var out []Interval
	for s != "" {
		end := strings.IndexAny(s, "])")
		if end < 0 {
			return nil, intervalError(raw, "unterminated interval")
		}
		iv, err := parseInterval(s[:end+1])
		if err != nil {
			return nil, intervalError(raw, err.Error())
		}
		out = append(out, iv)
		s = strings.TrimSpace(s[end+1:])
		if s == "" {
			break
		}
		if !multi || s[0] != ',' {
			return nil, intervalError(raw, "unexpected trailing text")
		}
		s = strings.TrimSpace(s[1:])
		if s == "" {
			return nil, intervalError(raw, "trailing comma")
		}
	}
	if len(out) == 0 {
		return nil, intervalError(raw, "empty interval")
	}
	return out, nil
}

func parseInterval(s string) (Interval, error) {
	var iv Interval
	if len(s) < 2 {
		return iv, fmt.Errorf("interval too short")
	}
	open, closing := s[0], s[len(s)-1]
	if open != '[' && open != '(' {
		return iv, fmt.Errorf("interval must start with [ or (")
	}
	body := s[1 : len(s)-1]
	iv.LowerInclusive = open == '['
	iv.UpperInclusive = closing == ']'

	lo, hi, found := strings.Cut(body, ",")
	if !found {
		if !iv.LowerInclusive || !iv.UpperInclusive || strings.TrimSpace(body) == "" {
			return iv, fmt.Errorf("exact interval must be written [x]")
		}
		v := strings.TrimSpace(body)
		iv.Lower, iv.Upper, iv.Exact = v, v, true
		return iv, nil
	}
	iv.Lower = strings.TrimSpace(lo)
	iv.Upper, iv.upperSp = strings.TrimSpace(hi), leadingSpace(hi)
	if iv.Lower == "" && iv.LowerInclusive || iv.Upper == "" && iv.UpperInclusive {
		return iv, fmt.Errorf("unbounded side must be exclusive")
	}
	return iv, nil
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " "))]
}

// Contains reports whether v lies inside iv, parsing the bounds with s.
func (iv Interval) Contains(s version.Scheme, v version.Version) (bool, error) {
	if iv.Lower != "" {
		lo, err := s.Parse(iv.Lower)
		if err != nil {
			return false, err
		}
		c := v.Compare(lo)
		if c < 0 || c == 0 && !iv.LowerInclusive {
			return false, nil
		}
	}
	if iv.Upper != "" {
		hi, err := s.Parse(iv.Upper)
		if err != nil {
			return false, err
		}
		c := v.Compare(hi)
		if c > 0 || c == 0 && !iv.UpperInclusive {
			return false, nil
		}
	}
	return true, nil
}

func (iv Interval) String() string {
	open, closing := "(", ")"
	if iv.LowerInclusive {
		open = "["
	}
	if iv.UpperInclusive {
		closing = "]"
	}
	if iv.Exact {
		return "[" + iv.Lower + "]"
	}
	return open + iv.Lower + "," + iv.upperSp + iv.Upper + closing
}

// ContainsAny reports whether v lies in any of ivs.
func ContainsAny(ivs []Interval, s version.Scheme, v version.Version) (bool, error) {
	for _, iv := range ivs {
		ok, err := iv.Contains(s, v)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// JoinIntervals renders a union of intervals.
func JoinIntervals(ivs []Interval) string {
	parts := make([]string, len(ivs))
	for i, iv := range ivs {
		parts[i] = iv.String()
	}
	return strings.Join(parts, ",")
}

func intervalError(raw, reason string) error {
	return errors.New(errors.ErrCodeInvalidRequirement, "invalid interval %q: %s", raw, reason)
}

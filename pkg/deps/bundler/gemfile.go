package bundler

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/deps"
)

var (
	gemPattern     = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"]\s*,?\s*(.*)$`)
	groupPattern   = regexp.MustCompile(`^\s*group\s+(.+?)\s+do\b`)
	sourcePattern  = regexp.MustCompile(`^\s*source\s+['"]([^'"]+)['"]\s+do\b`)
	blockPattern   = regexp.MustCompile(`\bdo\s*(\|[^|]*\|)?\s*$`)
	endPattern     = regexp.MustCompile(`^\s*end\b`)
	optionPattern  = regexp.MustCompile(`:?(\w+)(?::|\s*=>)\s*(\[[^\]]*\]|['"][^'"]*['"]|:\w+|\w+)`)
	symbolPattern  = regexp.MustCompile(`:(\w+)|['"](\w+)['"]`)
	quotedPattern  = regexp.MustCompile(`^['"]([^'"]*)['"]$`)
	gemspecPattern = regexp.MustCompile(`^\s*\w+\.add_(runtime_|development_)?dependency\s*\(?\s*['"]([^'"]+)['"]\s*,?\s*([^)]*)\)?\s*$`)
)

// Gemfile extracts gem declarations from a Gemfile. Groups come from
// "group ... do" blocks and group: options; git, github and path options
// become sources.
type Gemfile struct{}

func (Gemfile) Supports(name string) bool { return name == "Gemfile" || name == "gems.rb" }

type block struct {
	groups   []string
	registry string
}

func (Gemfile) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var stack []block
	var out []deps.Dependency

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := gemPattern.FindStringSubmatch(line); m != nil {
			var groups []string
			registry := ""
			for _, b := range stack {
				groups = append(groups, b.groups...)
				if b.registry != "" {
					registry = b.registry
				}
			}
			out = append(out, gem(path, m[1], m[2], groups, registry))
			if blockPattern.MatchString(line) {
				stack = append(stack, block{})
			}
			continue
		}

		switch {
		case groupPattern.MatchString(line):
			stack = append(stack, block{groups: symbols(groupPattern.FindStringSubmatch(line)[1])})
		case sourcePattern.MatchString(line):
			stack = append(stack, block{registry: sourcePattern.FindStringSubmatch(line)[1]})
		case blockPattern.MatchString(line):
			stack = append(stack, block{})
		case endPattern.MatchString(line) && len(stack) > 0:
			stack = stack[:len(stack)-1]
		}
	}
	return deps.Merge(out), scanner.Err()
}

// gem builds a dependency from the arguments following the gem name.
func gem(path, name, args string, groups []string, registry string) deps.Dependency {
	args = blockPattern.ReplaceAllString(args, "")
	var reqs []string
	for _, arg := range splitArgs(args) {
		if m := quotedPattern.FindStringSubmatch(arg); m != nil {
			reqs = append(reqs, m[1])
		}
	}

	req := deps.Requirement{File: path, Requirement: strings.Join(reqs, ", ")}
	var src *deps.Source
	for _, m := range optionPattern.FindAllStringSubmatch(args, -1) {
		key, val := m[1], strings.Trim(m[2], `'"`)
		switch key {
		case "group", "groups":
			groups = append(groups, symbols(m[2])...)
		case "git":
			src = ensure(src, deps.SourceGit)
			src.URL = val
		case "github":
			src = ensure(src, deps.SourceGit)
			src.URL = "https://github.com/" + val
		case "path":
			src = ensure(src, deps.SourcePath)
			src.URL = val
		case "branch", "ref":
			src = ensure(src, deps.SourceGit)
			src.Ref = val
		case "tag":
			src = ensure(src, deps.SourceGit)
			src.Tag = val
		case "source":
			registry = val
		}
	}
	if src == nil && registry != "" {
		src = &deps.Source{Kind: deps.SourceRegistry, Registry: registry}
	}
	if len(groups) == 0 {
		groups = []string{"default"}
	}
	req.Groups, req.Source = groups, src
	return deps.Dependency{Name: name, Ecosystem: "bundler", Requirements: []deps.Requirement{req}}
}

func ensure(src *deps.Source, kind deps.SourceKind) *deps.Source {
	if src == nil {
		return &deps.Source{Kind: kind}
	}
	return src
}

// splitArgs splits on commas outside brackets.
func splitArgs(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func symbols(s string) []string {
	var out []string
	for _, m := range symbolPattern.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1]+m[2])
	}
	return out
}

func stripComment(line string) string {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return ""
	}
	if i := strings.Index(line, " #"); i >= 0 && strings.Count(line[:i], "'")%2 == 0 && strings.Count(line[:i], `"`)%2 == 0 {
		return line[:i]
	}
	return line
}

// Gemspec extracts add_dependency calls from a .gemspec file.
type Gemspec struct{}

func (Gemspec) Supports(name string) bool { return strings.HasSuffix(name, ".gemspec") }

func (Gemspec) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var out []deps.Dependency
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		m := gemspecPattern.FindStringSubmatch(stripComment(scanner.Text()))
		if m == nil {
			continue
		}
		group := "runtime"
		if m[1] == "development_" {
			group = "development"
		}
		var reqs []string
		for _, arg := range splitArgs(m[3]) {
			if q := quotedPattern.FindStringSubmatch(arg); q != nil {
				reqs = append(reqs, q[1])
			}
		}
		out = append(out, deps.Dependency{Name: m[2], Ecosystem: "bundler", Requirements: []deps.Requirement{{
			File:        path,
			Requirement: strings.Join(reqs, ", "),
			Groups:      []string{group},
		}}})
	}
	return deps.Merge(out), scanner.Err()
}

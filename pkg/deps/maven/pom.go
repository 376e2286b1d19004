package maven

import (
	"strings"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations/maven"
)

// MetaProperty names the pom property a requirement's version comes from.
const MetaProperty = "property"

// POM extracts versioned dependencies, managed dependencies and plugins
// from pom.xml. Test-scoped declarations are skipped. A version given as a
// single ${property} is resolved, and the property name is kept in the
// requirement metadata so an update can rewrite the property instead.
type POM struct{}

func (POM) Supports(name string) bool { return name == "pom.xml" }

func (POM) Extract(path string, content []byte) ([]deps.Dependency, error) {
	pom, err := maven.ParsePOM(content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	var out []deps.Dependency
	for _, d := range pom.Declared() {
		req := deps.Requirement{File: path, Requirement: pom.Resolve(strings.TrimSpace(d.Version))}
		if prop, ok := maven.Property(d.Version); ok {
			req.Metadata = map[string]string{MetaProperty: prop}
		}
		scope := d.Scope
		if scope == "" {
			scope = "compile"
		}
		req.Groups = []string{scope}

		dep := deps.Dependency{Name: d.Coordinate(), Ecosystem: "maven", Requirements: []deps.Requirement{req}}
		if !constraintLike(req.Requirement) {
			dep.Version = req.Requirement
		}
		out = append(out, dep)
	}
	return deps.Merge(out), nil
}

// constraintLike reports an interval or an unresolved property.
func constraintLike(s string) bool {
	return strings.ContainsAny(s, "[]()$")
}

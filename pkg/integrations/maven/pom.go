package maven

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// POM is the subset of a Maven project file needed to find dependency
// declarations and their versions.
type POM struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Parent     struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	} `xml:"parent"`
	Properties   Properties   `xml:"properties"`
	Dependencies []Dependency `xml:"dependencies>dependency"`
	Managed      []Dependency `xml:"dependencyManagement>dependencies>dependency"`
	Plugins      []Dependency `xml:"build>plugins>plugin"`
}

// Dependency is one <dependency> or <plugin> element.
type Dependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

// Coordinate returns "groupId:artifactId".
func (d Dependency) Coordinate() string {
	return d.GroupID + ":" + d.ArtifactID
}

// Properties holds the free-form <properties> block.
type Properties map[string]string

// UnmarshalXML collects every child element as a name/value pair.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		Entries []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*p = make(Properties, len(raw.Entries))
	for _, e := range raw.Entries {
		(*p)[e.XMLName.Local] = strings.TrimSpace(e.Value)
	}
	return nil
}

// ParsePOM decodes a pom.xml document.
func ParsePOM(data []byte) (*POM, error) {
	var pom POM
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil, fmt.Errorf("parse pom.xml: %w", err)
	}
	return &pom, nil
}

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// Property returns the property a version refers to, when the version is
// exactly one ${name} reference.
func Property(version string) (string, bool) {
	m := propertyRef.FindStringSubmatch(strings.TrimSpace(version))
	if m == nil || m[0] != strings.TrimSpace(version) {
		return "", false
	}
	return m[1], true
}

// Resolve expands ${...} references using the POM's properties and the
// built-in project.* names. Unknown references are left as they are.
func (p *POM) Resolve(s string) string {
	return propertyRef.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[2 : len(ref)-1]
		switch name {
		case "project.version", "version":
			if p.Version != "" {
				return p.Version
			}
			return p.Parent.Version
		case "project.groupId":
			if p.GroupID != "" {
				return p.GroupID
			}
			return p.Parent.GroupID
		case "project.parent.version":
			return p.Parent.Version
		}
		if v, ok := p.Properties[name]; ok {
			return v
		}
		return ref
	})
}

// Declared returns the dependencies that pin a version in this file,
// skipping test-only declarations and unresolved coordinates.
func (p *POM) Declared() []Dependency {
	var out []Dependency
	seen := make(map[string]bool)
	for i, group := range [][]Dependency{p.Dependencies, p.Managed, p.Plugins} {
		plugins := i == 2
		for _, dep := range group {
			if dep.Version == "" || dep.Scope == "test" {
				continue
			}
			dep.GroupID = p.Resolve(dep.GroupID)
			dep.ArtifactID = p.Resolve(dep.ArtifactID)
			if dep.GroupID == "" && plugins {
				dep.GroupID = "org.apache.maven.plugins"
			}
			if strings.Contains(dep.GroupID, "${") || strings.Contains(dep.ArtifactID, "${") {
				continue
			}
			if seen[dep.Coordinate()] {
				continue
			}
			seen[dep.Coordinate()] = true
			out = append(out, dep)
		}
	}
	return out
}

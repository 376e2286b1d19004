package nuget

import (
	"encoding/xml"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// MetaProperty names the MSBuild property a requirement's version comes
// from.
const MetaProperty = "property"

// Groups assigned to extracted requirements.
const (
	GroupReference = "reference"
	GroupCentral   = "central"
	GroupGlobal    = "global"
)

var propertyRef = regexp.MustCompile(`^\$\(([A-Za-z_][A-Za-z0-9_.-]*)\)$`)

// Project extracts package references from MSBuild project files and the
// centrally managed versions of Directory.Packages.props. Versions given
// as a single $(Property) defined in the same file are resolved.
type Project struct{}

func (Project) Supports(name string) bool {
	if strings.EqualFold(name, "Directory.Packages.props") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csproj", ".fsproj", ".vbproj":
		return true
	}
	return false
}

func (Project) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var p projectFile
	if err := xml.Unmarshal(content, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	props := p.properties()

	var out []deps.Dependency
	add := func(group string, items []packageItem) {
		for _, it := range items {
			name := strings.TrimSpace(it.Include)
			if name == "" {
				name = strings.TrimSpace(it.Update)
			}
			raw := it.version()
			if name == "" || raw == "" {
				continue
			}
			req := deps.Requirement{File: path, Requirement: raw, Groups: []string{group}}
			if m := propertyRef.FindStringSubmatch(raw); m != nil {
				req.Metadata = map[string]string{MetaProperty: m[1]}
				if v, ok := props[m[1]]; ok {
					req.Requirement = v
				}
			}
			dep := deps.Dependency{Name: name, Ecosystem: "nuget", Requirements: []deps.Requirement{req}}
			if _, err := ParseVersion(req.Requirement); err == nil {
				dep.Version = req.Requirement
			}
			out = append(out, dep)
		}
	}
	for _, g := range p.ItemGroups {
		add(GroupReference, g.References)
		add(GroupCentral, g.Versions)
		add(GroupGlobal, g.Globals)
	}
	return deps.Merge(out), nil
}

type projectFile struct {
	PropertyGroups []struct {
		Props []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	} `xml:"PropertyGroup"`
	ItemGroups []struct {
		References []packageItem `xml:"PackageReference"`
		Versions   []packageItem `xml:"PackageVersion"`
		Globals    []packageItem `xml:"GlobalPackageReference"`
	} `xml:"ItemGroup"`
}

// properties returns the first definition of every property.
func (p projectFile) properties() map[string]string {
	out := map[string]string{}
	for _, g := range p.PropertyGroups {
		for _, prop := range g.Props {
			if _, ok := out[prop.XMLName.Local]; !ok {
				out[prop.XMLName.Local] = strings.TrimSpace(prop.Value)
			}
		}
	}
	return out
}

type packageItem struct {
	Include         string `xml:"Include,attr"`
	Update          string `xml:"Update,attr"`
	Version         string `xml:"Version,attr"`
	VersionOverride string `xml:"VersionOverride,attr"`
	VersionElem     string `xml:"Version"`
}

func (it packageItem) version() string {
	for _, v := range []string{it.VersionOverride, it.Version, it.VersionElem} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

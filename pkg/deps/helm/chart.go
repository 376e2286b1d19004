package helm

import (
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/deps/docker"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// MetaAlias holds the alias a chart dependency is installed under.
const MetaAlias = "alias"

// Chart extracts the dependencies of a Chart.yaml.
//
// Local charts (file://) are skipped. Repositories given by name ("@stable"
// or "alias:stable") are kept with the name in Source.Registry; they need
// an explicit registry to be checked.
type Chart struct{}

func (Chart) Supports(name string) bool { return filepath.Base(name) == "Chart.yaml" }

func (Chart) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var file struct {
		Dependencies []struct {
			Name       string `yaml:"name"`
			Version    string `yaml:"version"`
			Repository string `yaml:"repository"`
			Alias      string `yaml:"alias"`
		} `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	var out []deps.Dependency
	for _, d := range file.Dependencies {
		repo := strings.TrimSpace(d.Repository)
		if d.Name == "" || strings.HasPrefix(repo, "file://") {
			continue
		}
		req := deps.Requirement{
			File:        path,
			Requirement: strings.TrimSpace(d.Version),
			Groups:      []string{"dependencies"},
			Source:      chartSource(repo),
		}
		if d.Alias != "" {
			req.Metadata = map[string]string{MetaAlias: d.Alias}
		}
		dep := deps.Dependency{Name: d.Name, Ecosystem: "helm", Requirements: []deps.Requirement{req}}
		if v, err := version.Generic.Parse(req.Requirement); err == nil {
			dep.Version = v.String()
		}
		out = append(out, dep)
	}
	return deps.Merge(out), nil
}

func chartSource(repo string) *deps.Source {
	if name, ok := strings.CutPrefix(repo, "@"); ok {
		return &deps.Source{Kind: deps.SourceRegistry, Registry: name}
	}
	if name, ok := strings.CutPrefix(repo, "alias:"); ok {
		return &deps.Source{Kind: deps.SourceRegistry, Registry: name}
	}
	return &deps.Source{Kind: deps.SourceRegistry, URL: strings.TrimSuffix(repo, "/")}
}

// Values extracts container images from a values file. Two shapes are
// recognized:
//
//	image: nginx:1.25
//
//	image:
//	  registry: docker.io
//	  repository: bitnami/redis
//	  tag: 7.2.4
//
// Each image is grouped by the dotted path of its key.
type Values struct{}

func (Values) Supports(name string) bool {
	base := filepath.Base(name)
	return base == "values.yaml" || base == "values.yml"
}

func (Values) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	var out []deps.Dependency
	walk(&doc, "", func(group string, img docker.Image) {
		if d, ok := img.Dependency(path, group); ok {
			out = append(out, d)
		}
	})
	return deps.Merge(out), nil
}

func walk(n *yaml.Node, at string, emit func(string, docker.Image)) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			walk(c, at, emit)
		}
	case yaml.MappingNode:
		if img, ok := imageMap(n); ok {
			emit(at, img)
			return
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i].Value, n.Content[i+1]
			path := key
			if at != "" {
				path = at + "." + key
			}
			if key == "image" && val.Kind == yaml.ScalarNode {
				emit(path, docker.ParseImage(val.Value))
				continue
			}
			walk(val, path, emit)
		}
	}
}

// imageMap reads a repository/tag mapping. Tags are taken verbatim from
// the scalar so that "1.10" is not read as a float.
func imageMap(n *yaml.Node) (docker.Image, bool) {
	fields := map[string]string{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if v := n.Content[i+1]; v.Kind == yaml.ScalarNode {
			fields[n.Content[i].Value] = v.Value
		}
	}
	repo, tag := fields["repository"], fields["tag"]
	if repo == "" || tag == "" && fields["digest"] == "" {
		return docker.Image{}, false
	}
	img := docker.ParseImage(repo)
	if r := fields["registry"]; r != "" && img.Registry == "" {
		img.Registry = r
	}
	img.Tag, img.Digest = tag, fields["digest"]
	return img, true
}

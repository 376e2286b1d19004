package docker

import (
	"bufio"
	"bytes"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// Image is a parsed image reference.
type Image struct {
	Registry string
	Name     string
	Tag      string
	Digest   string
}

// ParseImage splits "registry/name:tag@digest". The registry is only set
// when the first path element looks like a host.
func ParseImage(ref string) Image {
	var img Image
	ref = strings.TrimSpace(ref)
	ref, img.Digest, _ = strings.Cut(ref, "@")
	if first, rest, ok := strings.Cut(ref, "/"); ok && (strings.ContainsAny(first, ".:") || first == "localhost") {
		img.Registry, ref = first, rest
	}
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		ref, img.Tag = ref[:i], ref[i+1:]
	}
	img.Name = ref
	return img
}

// Dependency turns an image into a dependency. Images with neither tag nor
// digest, and templated references, are skipped.
func (img Image) Dependency(path string, groups ...string) (deps.Dependency, bool) {
	if img.Name == "" || img.Tag == "" && img.Digest == "" || strings.Contains(img.Name+img.Tag, "$") {
		return deps.Dependency{}, false
	}
	req := deps.Requirement{
		File:        path,
		Requirement: RenderReference(img.Tag, img.Digest),
		Groups:      groups,
		Source: &deps.Source{
			Kind:     deps.SourceDocker,
			Registry: img.Registry,
			Tag:      img.Tag,
			Digest:   img.Digest,
		},
	}
	return deps.Dependency{Name: img.Name, Version: img.Tag, Ecosystem: "docker", Requirements: []deps.Requirement{req}}, true
}

// Dockerfile extracts the base images of FROM instructions. References to
// earlier build stages and scratch are skipped.
type Dockerfile struct{}

func (Dockerfile) Supports(name string) bool {
	lower := strings.ToLower(name)
	return lower == "dockerfile" || lower == "containerfile" ||
		strings.HasPrefix(lower, "dockerfile.") || strings.HasSuffix(lower, ".dockerfile")
}

func (Dockerfile) Extract(path string, content []byte) ([]deps.Dependency, error) {
	stages := map[string]bool{"scratch": true}
	var out []deps.Dependency
	for _, line := range instructions(content) {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.EqualFold(fields[0], "FROM") {
			continue
		}
		args := fields[1:]
		for len(args) > 0 && strings.HasPrefix(args[0], "--") {
			args = args[1:]
		}
		if len(args) == 0 {
			continue
		}
		stage := stages[strings.ToLower(args[0])]
		if len(args) >= 3 && strings.EqualFold(args[1], "AS") {
			stages[strings.ToLower(args[2])] = true
		}
		if stage {
			continue
		}
		if d, ok := ParseImage(args[0]).Dependency(path); ok {
			out = append(out, d)
		}
	}
	return deps.Merge(out), nil
}

// instructions joins continuation lines and drops comments.
func instructions(content []byte) []string {
	var out []string
	var cur strings.Builder
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, "\\") {
			cur.WriteString(strings.TrimSuffix(line, "\\"))
			cur.WriteByte(' ')
			continue
		}
		cur.WriteString(line)
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// Compose extracts service images from Compose files. Each requirement is
// grouped under its service name.
type Compose struct{}

func (Compose) Supports(name string) bool {
	switch strings.ToLower(filepath.Base(name)) {
	case "docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml":
		return true
	}
	return false
}

func (Compose) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var file struct {
		Services map[string]struct {
			Image string `yaml:"image"`
		} `yaml:"services"`
	}
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	names := make([]string, 0, len(file.Services))
	for name := range file.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []deps.Dependency
	for _, name := range names {
		if d, ok := ParseImage(file.Services[name].Image).Dependency(path, name); ok {
			out = append(out, d)
		}
	}
	return deps.Merge(out), nil
}

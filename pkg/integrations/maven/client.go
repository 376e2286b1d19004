package maven

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// DefaultBaseURL is Maven Central's repository root.
const DefaultBaseURL = "https://repo.maven.apache.org/maven2"

// Client provides access to Maven repositories.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Maven repository client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	headers := map[string]string{"Accept": "application/xml"}
	return &Client{
		Client:  integrations.NewClient(backend, "maven", cacheTTL, headers, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another repository (Nexus, Artifactory...).
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// FetchReleases lists the versions of an artifact from the repository's
// maven-metadata.xml.
//
// The coordinate must be in the form "groupId:artifactId".
// Maven metadata does not record per-version publication times.
func (c *Client) FetchReleases(ctx context.Context, coordinate string, refresh bool) ([]integrations.Release, error) {
	groupID, artifactID, err := parseCoordinate(coordinate)
	if err != nil {
		return nil, err
	}
	url := c.MetadataURL(groupID, artifactID)

	var releases []integrations.Release
	err = c.Cached(ctx, groupID+":"+artifactID, refresh, &releases, func() error {
		return c.fetch(ctx, url, &releases)
	})
	return c.Settle(url, releases, err)
}

// MetadataURL returns the location of an artifact's maven-metadata.xml.
func (c *Client) MetadataURL(groupID, artifactID string) string {
	return fmt.Sprintf("%s/%s/%s/maven-metadata.xml", c.baseURL, strings.ReplaceAll(groupID, ".", "/"), artifactID)
}

func (c *Client) fetch(ctx context.Context, url string, releases *[]integrations.Release) error {
	body, err := c.GetBytes(ctx, url, nil)
	if err != nil {
		return err
	}
	meta, err := ParseMetadata(body)
	if err != nil {
		return err
	}

	out := make([]integrations.Release, 0, len(meta.Versioning.Versions))
	seen := make(map[string]bool)
	for _, v := range meta.Versioning.Versions {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, integrations.Release{Version: v})
	}
	*releases = out
	return nil
}

// Metadata is the subset of maven-metadata.xml used for version listing.
type Metadata struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Versioning struct {
		Latest      string   `xml:"latest"`
		Release     string   `xml:"release"`
		Versions    []string `xml:"versions>version"`
		LastUpdated string   `xml:"lastUpdated"`
	} `xml:"versioning"`
}

// ParseMetadata decodes a maven-metadata.xml document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var meta Metadata
	if err := xml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: maven-metadata.xml: %v", integrations.ErrMalformed, err)
	}
	return &meta, nil
}

func parseCoordinate(coord string) (groupID, artifactID string, err error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid maven coordinate %q (expected groupId:artifactId)", coord)
	}
	return parts[0], parts[1], nil
}

package nuget

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

func newFeed(t *testing.T, resources string, routes map[string]string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v3/index.json" {
			fmt.Fprintf(w, `{"version": "3.0.0", "resources": [%s]}`, strings.ReplaceAll(resources, "{base}", server.URL))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(strings.ReplaceAll(body, "{base}", server.URL)))
	}))
	t.Cleanup(server.Close)
	return server
}

const allResources = `
	{"@id": "{base}/registration", "@type": "RegistrationsBaseUrl/3.6.0"},
	{"@id": "{base}/flat/", "@type": "PackageBaseAddress/3.0.0"},
	{"@id": "{base}/query", "@type": "SearchQueryService"}`

func TestClient_FetchReleases_Registration(t *testing.T) {
	server := newFeed(t, allResources, map[string]string{
		"/registration/newtonsoft.json/index.json": `{"items": [
			{"@id": "{base}/registration/newtonsoft.json/page/1.json"},
			{"items": [
				{"catalogEntry": {"version": "13.0.3", "listed": true, "published": "2023-03-08T07:42:54Z"}}
			]}
		]}`,
		"/registration/newtonsoft.json/page/1.json": `{"items": [
			{"catalogEntry": {"version": "12.0.1", "published": "1900-01-01T00:00:00Z"}},
			{"catalogEntry": {"version": "12.0.3", "published": "2019-11-09T01:27:30Z", "deprecation": {"reasons": ["Legacy"]}}}
		]}`,
	})

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "Newtonsoft.Json", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	if len(releases) != 3 {
		t.Fatalf("expected 3 releases, got %d", len(releases))
	}
	if !releases[0].Yanked || !releases[0].PublishedAt.IsZero() {
		t.Errorf("12.0.1 should be unlisted: %+v", releases[0])
	}
	if !releases[1].Deprecated {
		t.Errorf("12.0.3 should be deprecated: %+v", releases[1])
	}
	if releases[2].Version != "13.0.3" || releases[2].Yanked {
		t.Errorf("releases[2] = %+v", releases[2])
	}
}

func TestClient_FetchReleases_FlatContainerFallback(t *testing.T) {
	server := newFeed(t, allResources, map[string]string{
		"/flat/private.lib/index.json": `{"versions": ["1.0.0", "1.1.0-beta"]}`,
	})

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "Private.Lib", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	if len(releases) != 2 || releases[1].Version != "1.1.0-beta" {
		t.Errorf("unexpected releases: %+v", releases)
	}
}

func TestClient_FetchReleases_SearchFallback(t *testing.T) {
	resources := `{"@id": "%s/query", "@type": "SearchQueryService/3.5.0"}`
	var query string
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/index.json":
			fmt.Fprintf(w, `{"resources": [%s]}`, fmt.Sprintf(resources, server.URL))
		case "/query":
			query = r.URL.Query().Get("q")
			w.Write([]byte(`{"data": [
				{"id": "Other", "versions": [{"version": "9.9.9"}]},
				{"id": "Serilog", "versions": [{"version": "3.0.0"}, {"version": "3.1.1"}]}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "serilog", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	if query != "packageid:serilog" {
		t.Errorf("query = %q", query)
	}
	if len(releases) != 2 || releases[1].Version != "3.1.1" {
		t.Errorf("unexpected releases: %+v", releases)
	}
}

func TestClient_FetchReleases_NotFound(t *testing.T) {
	server := newFeed(t, allResources, map[string]string{
		"/query": `{"data": []}`,
	})

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "missing", true)
	if err != nil {
		t.Fatalf("unknown package should not be an error: %v", err)
	}
	if len(releases) != 0 {
		t.Errorf("expected no releases, got %d", len(releases))
	}
}

func TestServiceIndexResource(t *testing.T) {
	idx := &serviceIndex{}
	idx.Resources = append(idx.Resources,
		struct {
			ID   string `json:"@id"`
			Type string `json:"@type"`
		}{"https://example.com/reg", "RegistrationsBaseUrl/Versioned"},
	)
	if got := idx.resource(registrationsResource); got != "https://example.com/reg/" {
		t.Errorf("resource() = %q", got)
	}
	if got := idx.resource(flatContainerResource); got != "" {
		t.Errorf("missing resource should be empty, got %q", got)
	}
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return &Client{
		Client:   integrations.NewClient(cache.NewNullCache(), "nuget", time.Hour, nil, integrations.WithRetry(2, time.Millisecond)),
		indexURL: serverURL + "/v3/index.json",
	}
}

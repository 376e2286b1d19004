package goproxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

func TestParseRetractions(t *testing.T) {
	content := `module github.com/example/myapp

go 1.21

retract (
	v1.0.1 // broken build
	[v1.1.0, v1.1.3]
)
`
	ivs := ParseRetractions([]byte(content))
	if len(ivs) != 2 {
		t.Fatalf("expected 2 retractions, got %d", len(ivs))
	}

	tests := []struct {
		version string
		want    bool
	}{
		{"v1.0.0", false},
		{"v1.0.1", true},
		{"v1.1.0", true},
		{"v1.1.2", true},
		{"v1.1.4", false},
	}
	for _, tt := range tests {
		if got := retracted(ivs, tt.version); got != tt.want {
			t.Errorf("retracted(%s) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestClient_FetchReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/github.com/!azure/sdk/@v/list":
			w.Write([]byte("v1.0.0\nv1.0.1\nv1.1.0\n"))
		case "/github.com/!azure/sdk/@v/v1.0.0.info":
			w.Write([]byte(`{"Version":"v1.0.0","Time":"2023-01-01T00:00:00Z"}`))
		case "/github.com/!azure/sdk/@v/v1.0.1.info":
			w.Write([]byte(`{"Version":"v1.0.1","Time":"2023-02-01T00:00:00Z"}`))
		case "/github.com/!azure/sdk/@v/v1.1.0.info":
			w.Write([]byte(`{"Version":"v1.1.0","Time":"2023-03-01T00:00:00Z"}`))
		case "/github.com/!azure/sdk/@v/v1.1.0.mod":
			w.Write([]byte("module github.com/Azure/sdk\n\nretract v1.0.1\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	releases, err := c.FetchReleases(context.Background(), "github.com/Azure/sdk", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	if len(releases) != 3 {
		t.Fatalf("expected 3 releases, got %d", len(releases))
	}
	for _, r := range releases {
		if r.PublishedAt.IsZero() {
			t.Errorf("%s: missing publication time", r.Version)
		}
		if want := r.Version == "v1.0.1"; r.Retracted != want {
			t.Errorf("%s: retracted = %v, want %v", r.Version, r.Retracted, want)
		}
	}
}

func TestClient_FetchReleases_PseudoOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/example.com/untagged/@v/list":
			w.Write(nil)
		case "/example.com/untagged/@latest":
			w.Write([]byte(`{"Version":"v0.0.0-20240101120000-abcdefabcdef","Time":"2024-01-01T12:00:00Z"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "example.com/untagged", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	if len(releases) != 1 || releases[0].Version != "v0.0.0-20240101120000-abcdefabcdef" {
		t.Errorf("releases = %+v", releases)
	}
}

func TestClient_FetchReleases_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found: module example.com/missing: 404 Not Found", http.StatusGone)
	}))
	defer server.Close()

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "example.com/missing", true)
	if err != nil || len(releases) != 0 {
		t.Errorf("missing module should yield no releases, got %v, %v", releases, err)
	}
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return &Client{
		Client:  integrations.NewClient(cache.NewNullCache(), "goproxy", time.Hour, nil, integrations.WithRetry(2, time.Millisecond)),
		baseURL: serverURL,
	}
}

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

func TestClient_FetchReleases(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/repos/bazelbuild/rules_go/releases" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/bazelbuild/rules_go/releases?per_page=100&page=2>; rel="next"`, server.URL))
			w.Write([]byte(`[
				{"tag_name": "v0.41.0", "published_at": "2023-07-10T12:00:00Z"},
				{"tag_name": "v0.42.0-rc1", "draft": true}
			]`))
			return
		}
		w.Write([]byte(`[{"tag_name": "v0.40.0", "published_at": "2023-05-10T12:00:00Z"}]`))
	}))
	defer server.Close()

	releases, err := testClient(t, server.URL, "").FetchReleases(context.Background(), "bazelbuild/rules_go", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("expected 2 releases, got %d: %+v", len(releases), releases)
	}
	if releases[0].Version != "v0.41.0" || releases[1].Version != "v0.40.0" {
		t.Errorf("unexpected releases: %+v", releases)
	}
}

func TestClient_FetchReleases_TagFallback(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/repos/owner/repo/releases":
			w.Write([]byte(`[]`))
		case "/repos/owner/repo/tags":
			w.Write([]byte(`[{"name": "1.2.0", "commit": {"sha": "abc123"}}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	releases, err := testClient(t, server.URL, "secret").FetchReleases(context.Background(), "https://github.com/owner/repo/archive/1.1.0.tar.gz", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	if len(releases) != 1 || releases[0].Version != "1.2.0" || releases[0].Digest != "abc123" {
		t.Errorf("unexpected releases: %+v", releases)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestClient_FetchReleases_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	releases, err := testClient(t, server.URL, "").FetchReleases(context.Background(), "owner/missing", true)
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if len(releases) != 0 {
		t.Errorf("expected no releases, got %d", len(releases))
	}
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"https://github.com/bazelbuild/rules_go/releases/download/v0.41.0/rules_go-v0.41.0.zip", "bazelbuild", "rules_go", true},
		{"https://github.com/google/re2/archive/refs/tags/2023-06-01.tar.gz", "google", "re2", true},
		{"https://github.com/owner/repo.git", "owner", "repo", true},
		{"git@github.com:owner/repo.git", "owner", "repo", true},
		{"https://github.com/owner/repo", "owner", "repo", true},
		{"https://gitlab.com/owner/repo", "", "", false},
		{"https://mirror.bazel.build/github.com/owner/repo/archive/v1.tar.gz", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, ok := ParseRepoURL(tt.url)
			if owner != tt.wantOwner || repo != tt.wantRepo || ok != tt.wantOK {
				t.Errorf("ParseRepoURL(%q) = %q, %q, %v; want %q, %q, %v",
					tt.url, owner, repo, ok, tt.wantOwner, tt.wantRepo, tt.wantOK)
			}
		})
	}
}

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		ref     string
		wantErr bool
	}{
		{"owner/repo", false},
		{"owner", true},
		{"-owner/repo", true},
		{"owner/re po", true},
	}
	for _, tt := range tests {
		if _, _, err := ParseRepoRef(tt.ref); (err != nil) != tt.wantErr {
			t.Errorf("ParseRepoRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
		}
	}
}

func testClient(t *testing.T, serverURL, token string) *Client {
	t.Helper()
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(cache.NewNullCache(), "github", time.Hour, headers, integrations.WithRetry(2, time.Millisecond)),
		baseURL: serverURL,
	}
}

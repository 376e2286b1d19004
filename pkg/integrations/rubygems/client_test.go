package rubygems

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

func TestClient_FetchReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/versions/nokogiri.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"number": "1.16.0", "platform": "ruby", "prerelease": false, "created_at": "2023-12-27T18:00:00.000Z", "sha": "abc"},
			{"number": "1.16.0", "platform": "x86_64-linux", "prerelease": false, "created_at": "2023-12-27T18:00:00.000Z"},
			{"number": "1.15.6-java", "platform": "java", "created_at": "2023-12-27T18:00:00.000Z"},
			{"number": "1.16.0.rc1", "platform": "ruby", "prerelease": true, "created_at": "2023-12-01T18:00:00.000Z"}
		]`))
	}))
	defer server.Close()

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "nokogiri", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("expected 2 releases, got %d: %+v", len(releases), releases)
	}
	if releases[0].Version != "1.16.0" || releases[0].Digest != "abc" {
		t.Errorf("releases[0] = %+v", releases[0])
	}
	if releases[1].Version != "1.16.0.rc1" {
		t.Errorf("releases[1] = %+v", releases[1])
	}
	if releases[0].PublishedAt.IsZero() {
		t.Error("expected publication time")
	}
}

func TestClient_FetchReleases_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "missing", true)
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if len(releases) != 0 {
		t.Errorf("expected no releases, got %d", len(releases))
	}
}

func TestClient_FetchReleases_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "rails", true)
	if err != nil {
		t.Fatalf("malformed body should not be an error: %v", err)
	}
	if len(releases) != 0 {
		t.Errorf("expected no releases, got %d", len(releases))
	}
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return &Client{
		Client:  integrations.NewClient(cache.NewNullCache(), "rubygems", time.Hour, nil, integrations.WithRetry(2, time.Millisecond)),
		baseURL: serverURL,
	}
}

package maven

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		coord        string
		wantGroup    string
		wantArtifact string
		wantErr      bool
	}{
		{"org.springframework:spring-core", "org.springframework", "spring-core", false},
		{"com.google.guava:guava", "com.google.guava", "guava", false},
		{"invalid", "", "", true},
		{":missing-group", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.coord, func(t *testing.T) {
			g, a, err := parseCoordinate(tt.coord)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseCoordinate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if g != tt.wantGroup {
				t.Errorf("groupID = %v, want %v", g, tt.wantGroup)
			}
			if a != tt.wantArtifact {
				t.Errorf("artifactID = %v, want %v", a, tt.wantArtifact)
			}
		})
	}
}

func TestClient_FetchReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/org/example/mylib/maven-metadata.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>org.example</groupId>
  <artifactId>mylib</artifactId>
  <versioning>
    <latest>2.0.0-M1</latest>
    <release>1.1.0</release>
    <versions>
      <version>1.0.0</version>
      <version>1.1.0</version>
      <version>1.1.0</version>
      <version>2.0.0-M1</version>
    </versions>
    <lastUpdated>20240101120000</lastUpdated>
  </versioning>
</metadata>`))
	}))
	defer server.Close()

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "org.example:mylib", true)
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}
	want := []string{"1.0.0", "1.1.0", "2.0.0-M1"}
	if len(releases) != len(want) {
		t.Fatalf("expected %d releases, got %d", len(want), len(releases))
	}
	for i, w := range want {
		if releases[i].Version != w {
			t.Errorf("releases[%d] = %q, want %q", i, releases[i].Version, w)
		}
	}
}

func TestClient_FetchReleases_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	releases, err := testClient(t, server.URL).FetchReleases(context.Background(), "org.missing:artifact", true)
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if len(releases) != 0 {
		t.Errorf("expected no releases, got %d", len(releases))
	}
}

func TestClient_FetchReleases_InvalidCoordinate(t *testing.T) {
	c := testClient(t, "http://unused")
	if _, err := c.FetchReleases(context.Background(), "guava", true); err == nil {
		t.Fatal("expected error for invalid coordinate")
	}
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return &Client{
		Client:  integrations.NewClient(cache.NewNullCache(), "maven", time.Hour, nil, integrations.WithRetry(2, time.Millisecond)),
		baseURL: serverURL,
	}
}

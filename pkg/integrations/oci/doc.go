// Package oci provides an HTTP client for OCI distribution (Docker v2)
// registries.
//
// # Overview
//
// The client lists repository tags (GET /v2/<repo>/tags/list, following
// Link headers) and resolves tag digests (HEAD /v2/<repo>/manifests/<tag>).
//
// # Authentication
//
// Registries that answer 401 with a Bearer challenge are handled
// transparently: a pull token is requested from the challenge realm, kept
// in memory until it expires, and the request is repeated. Credentials
// configured for the realm host are sent with the token request.
//
// # Usage
//
//	client := oci.NewClient(backend, time.Hour)
//	ref := oci.ParseReference("nginx")
//	tags, err := client.FetchTags(ctx, ref, false)
//	digest, err := client.Digest(ctx, ref, "1.25.3", false)
package oci

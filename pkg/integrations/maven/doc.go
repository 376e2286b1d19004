// Package maven provides an HTTP client for Maven repositories.
//
// # Overview
//
// This package lists artifact versions from Maven Central
// (https://repo.maven.apache.org/maven2) or any repository with the
// standard layout, by reading the artifact's maven-metadata.xml.
//
// # Usage
//
//	client := maven.NewClient(backend, 24*time.Hour)
//
//	releases, err := client.FetchReleases(ctx, "com.google.guava:guava", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # POM files
//
// [ParsePOM] decodes a pom.xml and [POM.Declared] lists the dependencies it
// pins, with ${property} references resolved from the <properties> block.
package maven

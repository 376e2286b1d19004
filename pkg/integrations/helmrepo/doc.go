// Package helmrepo reads chart versions from classic Helm chart
// repositories by fetching their index.yaml.
//
// Charts published to OCI registries are listed with the oci package
// instead.
package helmrepo

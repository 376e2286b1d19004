// Package helm checks Helm chart dependencies and the container images
// referenced by chart values.
//
// Chart dependencies are read from Chart.yaml and resolved against the
// repository they name: a classic repository's index.yaml, or the tags of
// an oci:// repository. Requirements use the Masterminds constraint syntax
// Helm itself uses; updates keep the operator of the existing requirement.
//
// Images found in values.yaml are reported under the docker ecosystem and
// checked by [docker.NewChecker].
//
// [docker.NewChecker]: github.com/matzehuels/updatecheck/pkg/deps/docker.NewChecker
package helm

// Package bazel checks Bazel dependencies.
//
// Two kinds of declaration are understood:
//
//   - bzlmod: bazel_dep calls in MODULE.bazel, resolved against the Bazel
//     Central Registry (or another registry with the same layout). Versions
//     follow Bazel's identifier ordering and requirements are exact pins.
//   - WORKSPACE: http_archive and git_repository rules whose source lives
//     on GitHub. Versions come from the repository's releases, falling back
//     to tags. When the version changes, the archive URLs and strip_prefix
//     recorded in the requirement metadata are rewritten along with it.
//
// Only requirements declared in MODULE.bazel are rewritten for bzlmod
// dependencies. [RewriteModuleFile] applies an update to a MODULE.bazel
// file using buildtools, preserving formatting and comments.
package bazel

// Package composer checks PHP Composer packages for updates.
//
// # Overview
//
// This package implements [deps.Ecosystem] for Composer, supporting:
//
//   - Packagist metadata (p2, falling back to v1 packages.json) via the
//     [packagist] client
//   - Composer version ordering with stability flags ([Scheme])
//   - "||" and "|" alternatives, caret, tilde, wildcard, hyphen ranges,
//     dev branches and inline aliases ("dev-main as 1.2.0")
//   - composer.json extraction
//
// # Platform
//
// Releases whose "php" requirement excludes the platform PHP version from
// composer.json (config.platform.php) are never offered. Releases that need
// PHP extensions the project does not declare trigger discovery: the
// missing extensions are assumed and filtering is retried, up to
// config.Config.DiscoveryAttempts times, before failing with
// MISSING_EXTENSIONS.
//
// [packagist]: github.com/matzehuels/updatecheck/pkg/integrations/packagist
// [deps.Ecosystem]: github.com/matzehuels/updatecheck/pkg/deps.Ecosystem
package composer

// Package integration implements the filter/serializer hooks that sit
// between the dependency-sorted change list and the final script (spec
// §4.5). It is grounded on the teacher's config.CompareOptions /
// IsExtensionIgnored allowlist pattern, generalized from "ignore these
// extension names" to "recognize these env-dependent fields and mask or
// drop changes that touch only them."
package integration

import "github.com/pgschemadiff/pgschemadiff/internal/catalog"

// Config controls schema-diff filtering and script masking. The zero value
// is usable; DefaultConfig returns the conventional defaults.
type Config struct {
	// IgnoredExtensions lists extension names excluded from diffing
	// entirely, e.g. "plpgsql" which ships pre-installed on every
	// PostgreSQL cluster and should never appear as a migration step.
	IgnoredExtensions []string
}

// DefaultConfig returns the default integration configuration: the
// procedural-language extension every cluster ships with is ignored.
func DefaultConfig() *Config {
	return &Config{
		IgnoredExtensions: []string{"plpgsql"},
	}
}

// WithIgnoredExtensions returns a new Config with the given extensions in
// place of the defaults.
//
// Example:
//
//	cfg := integration.WithIgnoredExtensions("plpgsql", "adminpack")
func WithIgnoredExtensions(extensions ...string) *Config {
	return &Config{IgnoredExtensions: append([]string{}, extensions...)}
}

// IsExtensionIgnored reports whether name should be excluded from diffing.
func (c *Config) IsExtensionIgnored(name string) bool {
	for _, ignored := range c.IgnoredExtensions {
		if ignored == name {
			return true
		}
	}
	return false
}

// ApplyIgnoredExtensions removes ignored extensions from both catalogs in
// place before Diff runs, so they never surface as create/drop/alter
// changes (spec §4.5: "excluded from schema diff calculations").
func ApplyIgnoredExtensions(cfg *Config, main, branch *catalog.Catalog) {
	for id, e := range main.Extensions {
		if cfg.IsExtensionIgnored(e.Name) {
			delete(main.Extensions, id)
		}
	}
	for id, e := range branch.Extensions {
		if cfg.IsExtensionIgnored(e.Name) {
			delete(branch.Extensions, id)
		}
	}
}

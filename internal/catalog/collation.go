package catalog

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation represents a PostgreSQL collation object (CREATE COLLATION).
// LocaleName is the underlying libc/ICU locale (e.g. "en-US", "de-DE-x-icu")
// as PostgreSQL records it in pg_collation.collname/collcollate.
type Collation struct {
	Schema     string
	Name       string
	LocaleName string
	Provider   string // "libc", "icu", "builtin"
	Deterministic bool
	Owner      string
	Comment    string
}

func (c *Collation) Kind() ObjectKind { return KindCollation }

func (c *Collation) StableID() string {
	return "collation:" + c.Schema + "." + c.Name
}

// IdentityFields returns the values StableID is built from (spec §4.1).
func (c *Collation) IdentityFields() []string { return []string{c.Schema, c.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (c *Collation) Validate() error {
	return requireFields(KindCollation, c, namedField{"schema", c.Schema}, namedField{"name", c.Name})
}

// CanonicalLocale parses and canonicalizes a BCP 47 locale tag the way an
// ICU-provider collation names its locale, returning an error if the tag
// is not well-formed. The extractor uses it to normalize LocaleName of
// ICU-provider collations, so two spellings ("en-US" vs "en_US") compare
// equal; LocaleName is a data field, not part of identity_fields.
func CanonicalLocale(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid collation locale %q: %w", tag, err)
	}
	// collate.New validates that a collator can actually be built for the
	// tag; it is discarded, the call is purely a validation gate.
	_ = collate.New(t)
	return t.String(), nil
}

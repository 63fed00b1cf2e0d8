// Package extract implements the concrete PostgreSQL catalog extractor
// (spec §6.1): a database/sql-based reader over pg_catalog and
// information_schema that populates a catalog.Catalog snapshot. The core
// diff pipeline treats extraction as a consumed collaborator, but this
// package exists so the pipeline is runnable end to end rather than
// stopping at a contract description.
//
// Grounded on dbschema/postgres/reader.go's Reader shape: one struct
// wrapping a *sql.DB, one ReadSchema-equivalent entry point dispatching to
// a private per-kind method apiece, every query issued with
// QueryContext/ExecContext so the caller's context governs cancellation.
package extract

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

// Extractor reads a single database's schema into a catalog.Catalog.
type Extractor struct {
	db *RDB
}

// New wraps an already-open *sql.DB. The caller owns the connection's
// lifecycle; Extract never closes db.
func New(db *sql.DB) *Extractor {
	return &Extractor{db: NewRDB(db)}
}

// Open dials dsn with the pgx stdlib driver and sets search_path = ''
// for the session, so every identifier the extractor reads back from
// pg_catalog is already schema-qualified the way spec §6.1 requires.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, `SET search_path = ''`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting search_path: %w", err)
	}
	return db, nil
}

// Extract reads the complete schema-level catalog from the wrapped
// database, excluding system schemas and information_schema (spec §6.1).
// Objects owned by an extension are not filtered out: no query applies
// notExtensionMemberFilter, so they are read like any other object.
func (e *Extractor) Extract(ctx context.Context) (*catalog.Catalog, error) {
	cat := catalog.New()

	steps := []struct {
		name string
		fn   func(context.Context, *catalog.Catalog) error
	}{
		{"schemas", e.extractSchemas},
		{"roles", e.extractRoles},
		{"extensions", e.extractExtensions},
		{"collations", e.extractCollations},
		{"domains", e.extractDomains},
		{"enums", e.extractEnums},
		{"composite_types", e.extractCompositeTypes},
		{"ranges", e.extractRangeTypes},
		{"sequences", e.extractSequences},
		{"tables", e.extractTables},
		{"indexes", e.extractIndexes},
		{"views", e.extractViews},
		{"materialized_views", e.extractMaterializedViews},
		{"procedures", e.extractProcedures},
		{"triggers", e.extractTriggers},
		{"event_triggers", e.extractEventTriggers},
		{"policies", e.extractPolicies},
		{"publications", e.extractPublications},
		{"subscriptions", e.extractSubscriptions},
		{"foreign_data_wrappers", e.extractForeignDataWrappers},
		{"servers", e.extractServers},
		{"user_mappings", e.extractUserMappings},
		{"foreign_tables", e.extractForeignTables},
		{"memberships", e.extractMemberships},
		{"default_privileges", e.extractDefaultPrivileges},
	}

	for _, step := range steps {
		if err := step.fn(ctx, cat); err != nil {
			return nil, &pgerr.ExtractionError{Database: step.name, Err: err}
		}
	}

	// Every row built by the steps above routes through the catalog's own
	// per-kind Validate before it's handed to the differ (spec §4.1): a
	// malformed row raises pgerr.ModelValidationError here rather than
	// flowing unchecked into diff/sort/serialize.
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	return cat, nil
}

// systemSchemaFilter is the standard predicate excluding pg_catalog,
// information_schema, and toast schemas from every query that scans
// pg_namespace (spec §6.1).
const systemSchemaFilter = `n.nspname NOT IN ('pg_catalog', 'information_schema') AND n.nspname NOT LIKE 'pg_toast%' AND n.nspname NOT LIKE 'pg_temp%'`

// notExtensionMemberFilter is a predicate matching objects that pg_depend
// does not record as owned by an extension (refclassid =
// 'pg_extension'::regclass). No query in this package uses it.
const notExtensionMemberFilter = `NOT EXISTS (
	SELECT 1 FROM pg_depend d
	WHERE d.objid = %s AND d.deptype = 'e' AND d.refclassid = 'pg_extension'::regclass
)`

package extract

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

func (e *Extractor) extractSchemas(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT n.oid, n.nspname, pg_get_userbyid(n.nspowner), COALESCE(obj_description(n.oid, 'pg_namespace'), '')
		FROM pg_namespace n
		WHERE `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading schemas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid int64
		s := &catalog.Schema{}
		if err := rows.Scan(&oid, &s.Name, &s.Owner, &s.Comment); err != nil {
			return err
		}
		privs, err := e.privilegesForACL(ctx, "pg_namespace", "nspacl", "oid", oid)
		if err != nil {
			return err
		}
		s.Privileges = privs
		cat.Schemas[s.StableID()] = s
	}
	return rows.Err()
}

func (e *Extractor) extractRoles(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT rolname, rolsuper, rolcreatedb, rolcreaterole, rolinherit, rolcanlogin,
		       rolreplication, rolbypassrls, rolconnlimit, rolpassword,
		       CASE WHEN rolvaliduntil IS NULL THEN NULL ELSE rolvaliduntil::text END,
		       COALESCE(shobj_description(oid, 'pg_authid'), '')
		FROM pg_authid
		WHERE rolname NOT LIKE 'pg_%'`)
	if err != nil {
		return fmt.Errorf("reading roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := &catalog.Role{}
		var password, validUntil *string
		if err := rows.Scan(&r.Name, &r.Superuser, &r.CreateDB, &r.CreateRole, &r.Inherit, &r.Login,
			&r.Replication, &r.BypassRLS, &r.ConnectionLimit, &password, &validUntil, &r.Comment); err != nil {
			return err
		}
		r.Password = password
		r.ValidUntil = validUntil
		cat.Roles[r.StableID()] = r
	}
	return rows.Err()
}

func (e *Extractor) extractExtensions(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT e.extname, n.nspname, e.extversion, e.extrelocatable,
		       COALESCE(obj_description(e.oid, 'pg_extension'), '')
		FROM pg_extension e
		JOIN pg_namespace n ON n.oid = e.extnamespace`)
	if err != nil {
		return fmt.Errorf("reading extensions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ext := &catalog.Extension{}
		if err := rows.Scan(&ext.Name, &ext.Schema, &ext.Version, &ext.Relocatable, &ext.Comment); err != nil {
			return err
		}
		cat.Extensions[ext.StableID()] = ext
	}
	return rows.Err()
}

func (e *Extractor) extractCollations(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT n.nspname, c.collname, c.collcollate, c.collprovider, c.collisdeterministic,
		       pg_get_userbyid(c.collowner), COALESCE(obj_description(c.oid, 'pg_collation'), '')
		FROM pg_collation c
		JOIN pg_namespace n ON n.oid = c.collnamespace
		WHERE `+systemSchemaFilter+` AND NOT c.collisdeterministic IS NULL`)
	if err != nil {
		return fmt.Errorf("reading collations: %w", err)
	}
	defer rows.Close()

	var errs error
	for rows.Next() {
		c := &catalog.Collation{}
		var provider string
		if err := rows.Scan(&c.Schema, &c.Name, &c.LocaleName, &provider, &c.Deterministic, &c.Owner, &c.Comment); err != nil {
			return err
		}
		c.Provider = providerName(provider)
		// Only ICU locale names are BCP 47 tags; libc locale strings
		// (e.g. "en_US.UTF-8") and "builtin" (e.g. "C", "C.UTF-8") aren't,
		// so canonicalization only applies here.
		if c.Provider == "icu" {
			if canon, err := catalog.CanonicalLocale(c.LocaleName); err != nil {
				errs = multierr.Append(errs, &pgerr.ModelValidationError{
					Kind: "collation", Row: c.StableID(),
					Err: fmt.Errorf("normalizing locale: %w", err),
				})
			} else {
				c.LocaleName = canon
			}
		}
		cat.Collations[c.StableID()] = c
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return errs
}

func providerName(code string) string {
	switch code {
	case "i":
		return "icu"
	case "c":
		return "libc"
	case "b":
		return "builtin"
	default:
		return code
	}
}

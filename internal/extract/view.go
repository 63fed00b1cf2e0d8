package extract

import (
	"context"
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
)

func (e *Extractor) extractViews(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT c.oid, n.nspname, c.relname, pg_get_viewdef(c.oid), pg_get_userbyid(c.relowner),
		       COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'v' AND `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid int64
		v := &catalog.View{}
		if err := rows.Scan(&oid, &v.Schema, &v.Name, &v.Definition, &v.Owner, &v.Comment); err != nil {
			return err
		}
		cols, err := e.columnNames(ctx, oid)
		if err != nil {
			return err
		}
		v.Columns = cols
		privs, err := e.privilegesForACL(ctx, "pg_class", "relacl", "oid", oid)
		if err != nil {
			return err
		}
		v.Privileges = privs
		cat.Views[v.StableID()] = v
	}
	return rows.Err()
}

func (e *Extractor) extractMaterializedViews(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT c.oid, n.nspname, c.relname, pg_get_viewdef(c.oid), pg_get_userbyid(c.relowner),
		       COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'm' AND `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading materialized views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid int64
		mv := &catalog.MaterializedView{}
		if err := rows.Scan(&oid, &mv.Schema, &mv.Name, &mv.Definition, &mv.Owner, &mv.Comment); err != nil {
			return err
		}
		privs, err := e.privilegesForACL(ctx, "pg_class", "relacl", "oid", oid)
		if err != nil {
			return err
		}
		mv.Privileges = privs
		cat.MaterializedViews[mv.StableID()] = mv
	}
	return rows.Err()
}

func (e *Extractor) columnNames(ctx context.Context, relOID int64) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT attname FROM pg_attribute
		WHERE attrelid = $1 AND attnum > 0 AND NOT attisdropped ORDER BY attnum`, relOID)
	if err != nil {
		return nil, fmt.Errorf("reading output columns: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

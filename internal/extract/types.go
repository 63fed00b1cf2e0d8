package extract

import (
	"context"
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
)

func (e *Extractor) extractDomains(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT t.oid, n.nspname, t.typname, format_type(t.typbasetype, t.typtypmod),
		       t.typnotnull, t.typdefault, pg_get_userbyid(t.typowner),
		       COALESCE(obj_description(t.oid, 'pg_type'), '')
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE t.typtype = 'd' AND `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading domains: %w", err)
	}
	defer rows.Close()

	var oids []int64
	domains := map[int64]*catalog.Domain{}
	for rows.Next() {
		var oid int64
		var def *string
		d := &catalog.Domain{}
		if err := rows.Scan(&oid, &d.Schema, &d.Name, &d.BaseType, &d.NotNull, &def, &d.Owner, &d.Comment); err != nil {
			return err
		}
		d.Default = def
		privs, err := e.privilegesForACL(ctx, "pg_type", "typacl", "oid", oid)
		if err != nil {
			return err
		}
		d.Privileges = privs
		domains[oid] = d
		oids = append(oids, oid)
		cat.Domains[d.StableID()] = d
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, oid := range oids {
		cRows, err := e.db.QueryContext(ctx, `
			SELECT conname, pg_get_constraintdef(oid)
			FROM pg_constraint
			WHERE contypid = $1`, oid)
		if err != nil {
			return fmt.Errorf("reading domain constraints: %w", err)
		}
		for cRows.Next() {
			var dc catalog.DomainConstraint
			var def string
			if err := cRows.Scan(&dc.Name, &def); err != nil {
				cRows.Close()
				return err
			}
			dc.Expression = def
			domains[oid].Constraints = append(domains[oid].Constraints, dc)
		}
		if err := cRows.Err(); err != nil {
			cRows.Close()
			return err
		}
		cRows.Close()
	}
	return nil
}

func (e *Extractor) extractEnums(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT t.oid, n.nspname, t.typname, pg_get_userbyid(t.typowner),
		       COALESCE(obj_description(t.oid, 'pg_type'), '')
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE t.typtype = 'e' AND `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading enums: %w", err)
	}
	defer rows.Close()

	type pending struct {
		oid int64
		e   *catalog.Enum
	}
	var list []pending
	for rows.Next() {
		var oid int64
		en := &catalog.Enum{}
		if err := rows.Scan(&oid, &en.Schema, &en.Name, &en.Owner, &en.Comment); err != nil {
			return err
		}
		privs, err := e.privilegesForACL(ctx, "pg_type", "typacl", "oid", oid)
		if err != nil {
			return err
		}
		en.Privileges = privs
		list = append(list, pending{oid, en})
		cat.Enums[en.StableID()] = en
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range list {
		vRows, err := e.db.QueryContext(ctx, `
			SELECT enumlabel FROM pg_enum WHERE enumtypid = $1 ORDER BY enumsortorder`, p.oid)
		if err != nil {
			return fmt.Errorf("reading enum values: %w", err)
		}
		for vRows.Next() {
			var v string
			if err := vRows.Scan(&v); err != nil {
				vRows.Close()
				return err
			}
			p.e.Values = append(p.e.Values, v)
		}
		if err := vRows.Err(); err != nil {
			vRows.Close()
			return err
		}
		vRows.Close()
	}
	return nil
}

func (e *Extractor) extractCompositeTypes(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT t.oid, n.nspname, t.typname, pg_get_userbyid(t.typowner),
		       COALESCE(obj_description(t.oid, 'pg_type'), '')
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE t.typtype = 'c' AND t.typrelid IN (SELECT oid FROM pg_class WHERE relkind = 'c')
		  AND `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading composite types: %w", err)
	}
	defer rows.Close()

	type pending struct {
		oid int64
		c   *catalog.CompositeType
	}
	var list []pending
	for rows.Next() {
		var oid int64
		ct := &catalog.CompositeType{}
		if err := rows.Scan(&oid, &ct.Schema, &ct.Name, &ct.Owner, &ct.Comment); err != nil {
			return err
		}
		privs, err := e.privilegesForACL(ctx, "pg_type", "typacl", "oid", oid)
		if err != nil {
			return err
		}
		ct.Privileges = privs
		list = append(list, pending{oid, ct})
		cat.CompositeTypes[ct.StableID()] = ct
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range list {
		aRows, err := e.db.QueryContext(ctx, `
			SELECT a.attname, format_type(a.atttypid, a.atttypmod), COALESCE(co.collname, '')
			FROM pg_type t
			JOIN pg_attribute a ON a.attrelid = t.typrelid
			LEFT JOIN pg_collation co ON co.oid = a.attcollation
			WHERE t.oid = $1 AND a.attnum > 0 AND NOT a.attisdropped
			ORDER BY a.attnum`, p.oid)
		if err != nil {
			return fmt.Errorf("reading composite attributes: %w", err)
		}
		for aRows.Next() {
			var attr catalog.CompositeAttribute
			if err := aRows.Scan(&attr.Name, &attr.DataType, &attr.Collation); err != nil {
				aRows.Close()
				return err
			}
			p.c.Attributes = append(p.c.Attributes, attr)
		}
		if err := aRows.Err(); err != nil {
			aRows.Close()
			return err
		}
		aRows.Close()
	}
	return nil
}

func (e *Extractor) extractRangeTypes(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT n.nspname, t.typname, format_type(r.rngsubtype, NULL),
		       COALESCE(r.rngcanonical::text, ''), COALESCE(r.rngsubdiff::text, ''),
		       COALESCE(op.opcname, ''), pg_get_userbyid(t.typowner),
		       COALESCE(obj_description(t.oid, 'pg_type'), '')
		FROM pg_range r
		JOIN pg_type t ON t.oid = r.rngtypid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		LEFT JOIN pg_opclass op ON op.oid = r.rngsubopc
		WHERE `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading range types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rt := &catalog.RangeType{}
		if err := rows.Scan(&rt.Schema, &rt.Name, &rt.Subtype, &rt.Canonical, &rt.DiffFunction,
			&rt.SubtypeOpclass, &rt.Owner, &rt.Comment); err != nil {
			return err
		}
		cat.Ranges[rt.StableID()] = rt
	}
	return rows.Err()
}

func (e *Extractor) extractSequences(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT c.oid, n.nspname, c.relname, s.seqtypid::regtype::text,
		       s.seqstart, s.seqincrement, s.seqmin, s.seqmax, s.seqcache, s.seqcycle,
		       pg_get_userbyid(c.relowner), COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_sequence s
		JOIN pg_class c ON c.oid = s.seqrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading sequences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid int64
		seq := &catalog.Sequence{}
		if err := rows.Scan(&oid, &seq.Schema, &seq.Name, &seq.DataType, &seq.StartValue, &seq.Increment,
			&seq.MinValue, &seq.MaxValue, &seq.CacheSize, &seq.Cycle, &seq.Owner, &seq.Comment); err != nil {
			return err
		}

		row := e.db.QueryRowContext(ctx, `
			SELECT coalesce(refobjid::regclass::text, ''), coalesce(a.attname, '')
			FROM pg_depend d
			LEFT JOIN pg_attribute a ON a.attrelid = d.refobjid AND a.attnum = d.refobjsubid
			WHERE d.objid = $1 AND d.deptype IN ('a', 'i') AND d.classid = 'pg_class'::regclass
			LIMIT 1`, oid)
		_ = row.Scan(&seq.OwnedByTable, &seq.OwnedByColumn)

		privs, err := e.privilegesForACL(ctx, "pg_class", "relacl", "oid", oid)
		if err != nil {
			return err
		}
		seq.Privileges = privs
		cat.Sequences[seq.StableID()] = seq
	}
	return rows.Err()
}

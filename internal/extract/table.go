package extract

import (
	"context"
	"fmt"

	"github.com/go-extras/go-kit/ptr"
	"golang.org/x/sync/errgroup"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
)

func (e *Extractor) extractTables(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT c.oid, n.nspname, c.relname, c.relpersistence, c.relrowsecurity, c.relforcerowsecurity,
		       COALESCE(pg_get_expr(c.relpartbound, c.oid), ''),
		       COALESCE(pg_get_partkeydef(c.oid), ''),
		       c.relreplident,
		       pg_get_userbyid(c.relowner), COALESCE(obj_description(c.oid, 'pg_class'), ''),
		       COALESCE(ts.spcname, ''),
		       COALESCE((SELECT array_agg(option) FROM unnest(c.reloptions) option), '{}')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_tablespace ts ON ts.oid = c.reltablespace
		WHERE c.relkind IN ('r', 'p') AND `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading tables: %w", err)
	}
	defer rows.Close()

	var oids []int64
	byOID := map[int64]*catalog.Table{}
	for rows.Next() {
		var oid int64
		var persist, replident string
		var rawOptions []string
		t := &catalog.Table{}
		if err := rows.Scan(&oid, &t.Schema, &t.Name, &persist, &t.RLSEnabled, &t.RLSForced,
			&t.PartitionBound, &t.PartitionKeyClause, &replident, &t.Owner, &t.Comment, &t.Tablespace, &rawOptions); err != nil {
			return err
		}
		t.Persistence = persistenceKind(persist)
		t.ReplicaIdentityKind, t.ReplicaIdentityIndex = replicaIdentity(replident)
		if t.ReplicaIdentityKind == catalog.ReplicaIdentityIndex {
			_ = e.db.QueryRowContext(ctx, `
				SELECT ic.relname FROM pg_index i JOIN pg_class ic ON ic.oid = i.indexrelid
				WHERE i.indrelid = $1 AND i.indisreplident`, oid).Scan(&t.ReplicaIdentityIndex)
		}
		t.StorageParams = parseOptionList(rawOptions)

		var parent string
		_ = e.db.QueryRowContext(ctx, `
			SELECT COALESCE((SELECT pc.oid::regclass::text FROM pg_inherits i
			  JOIN pg_class pc ON pc.oid = i.inhparent WHERE i.inhrelid = $1), '')`, oid).Scan(&parent)
		t.Parent = parent

		privs, err := e.privilegesForACL(ctx, "pg_class", "relacl", "oid", oid)
		if err != nil {
			return err
		}
		t.Privileges = privs

		byOID[oid] = t
		oids = append(oids, oid)
		cat.Tables[t.StableID()] = t
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Each table's columns/constraints/indexes are independent of every
	// other table's, so the per-table sub-queries fan out across the
	// shared *sql.DB connection pool instead of running one table at a
	// time (spec §5: "each extraction internally issues several catalog
	// queries ... and awaits their completion").
	g, gctx := errgroup.WithContext(ctx)
	for _, oid := range oids {
		oid, t := oid, byOID[oid]
		g.Go(func() error {
			cols, err := e.extractColumns(gctx, oid, t.StableID())
			if err != nil {
				return err
			}
			t.Columns = cols
			if err := e.extractConstraints(gctx, oid, t); err != nil {
				return err
			}
			for _, col := range t.Columns {
				if col.Identity != nil {
					t.IdentityColumnSet = append(t.IdentityColumnSet, col.Name)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func persistenceKind(code string) catalog.Persistence {
	switch code {
	case "u":
		return catalog.PersistenceUnlogged
	case "t":
		return catalog.PersistenceTemporary
	default:
		return catalog.PersistencePermanent
	}
}

func replicaIdentity(code string) (catalog.ReplicaIdentityKind, string) {
	switch code {
	case "f":
		return catalog.ReplicaIdentityFull, ""
	case "n":
		return catalog.ReplicaIdentityNothing, ""
	case "i":
		return catalog.ReplicaIdentityIndex, ""
	default:
		return catalog.ReplicaIdentityDefault, ""
	}
}

func parseOptionList(raw []string) []catalog.Option {
	var out []catalog.Option
	for _, kv := range raw {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out = append(out, catalog.Option{Key: kv[:i], Value: kv[i+1:]})
				break
			}
		}
	}
	return out
}

func (e *Extractor) extractColumns(ctx context.Context, tableOID int64, tableStableID string) ([]*catalog.Column, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT a.attname, format_type(a.atttypid, a.atttypmod), a.attnotnull,
		       COALESCE(pg_get_expr(ad.adbin, ad.adrelid), ''), ad.adbin IS NOT NULL,
		       COALESCE(a.attidentity, ''),
		       COALESCE(co.collname, ''), a.attstattarget,
		       a.attstorage, COALESCE(col_description(a.attrelid, a.attnum), ''),
		       COALESCE(pg_get_expr(gen.adbin, gen.adrelid), ''), a.attgenerated <> ''
		FROM pg_attribute a
		LEFT JOIN pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum AND a.attgenerated = ''
		LEFT JOIN pg_attrdef gen ON gen.adrelid = a.attrelid AND gen.adnum = a.attnum AND a.attgenerated <> ''
		LEFT JOIN pg_collation co ON co.oid = a.attcollation
		WHERE a.attrelid = $1 AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`, tableOID)
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Column
	for rows.Next() {
		c := &catalog.Column{TableStableID: tableStableID}
		var defaultExpr string
		var hasDefault bool
		var identity string
		var statTarget int
		var storage string
		var genExpr string
		var isGenerated bool
		if err := rows.Scan(&c.Name, &c.DataType, &c.NotNull, &defaultExpr, &hasDefault, &identity,
			&c.Collation, &statTarget, &storage, &c.Comment, &genExpr, &isGenerated); err != nil {
			return nil, err
		}
		if hasDefault && !isGenerated {
			c.Default = ptr.To(defaultExpr)
		}
		if isGenerated {
			c.GeneratedExpr = ptr.To(genExpr)
		}
		if statTarget >= 0 {
			c.StatisticsTarget = ptr.To(statTarget)
		}
		c.StorageMode = storageMode(storage)
		if identity == "a" || identity == "d" {
			c.Identity = &catalog.IdentityColumn{Always: identity == "a"}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func storageMode(code string) string {
	switch code {
	case "p":
		return "PLAIN"
	case "e":
		return "EXTERNAL"
	case "m":
		return "MAIN"
	default:
		return "EXTENDED"
	}
}

func (e *Extractor) extractConstraints(ctx context.Context, tableOID int64, t *catalog.Table) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT con.conname, con.contype, con.convalidated,
		       con.condeferrable, con.condeferred,
		       COALESCE(pg_get_expr(con.conbin, con.conrelid), ''),
		       COALESCE(fn.nspname, ''), COALESCE(ft.relname, ''),
		       COALESCE(con.confupdtype::text, ''), COALESCE(con.confdeltype::text, ''),
		       COALESCE(i.relname, '')
		FROM pg_constraint con
		LEFT JOIN pg_class ft ON ft.oid = con.confrelid
		LEFT JOIN pg_namespace fn ON fn.oid = ft.relnamespace
		LEFT JOIN pg_class i ON i.oid = con.conindid
		WHERE con.conrelid = $1`, tableOID)
	if err != nil {
		return fmt.Errorf("reading constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &catalog.Constraint{TableStableID: t.StableID()}
		var contype string
		var validated bool
		var onUpdate, onDelete string
		if err := rows.Scan(&c.Name, &contype, &validated, &c.Deferrable, &c.InitiallyDeferred,
			&c.Expression, &c.ForeignSchema, &c.ForeignTable, &onUpdate, &onDelete, &c.IndexName); err != nil {
			return err
		}
		c.Type = constraintType(contype)
		c.NotValid = !validated
		c.OnUpdate = fkActionWord(onUpdate)
		c.OnDelete = fkActionWord(onDelete)
		c.IsConstraintIndex = c.IndexName != "" && (c.Type == catalog.ConstraintPrimaryKey || c.Type == catalog.ConstraintUnique || c.Type == catalog.ConstraintExclude)

		colRows, err := e.db.QueryContext(ctx, `
			SELECT a.attname FROM pg_constraint con, unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
			WHERE con.conname = $1 AND con.conrelid = $2 ORDER BY k.ord`, c.Name, tableOID)
		if err != nil {
			return fmt.Errorf("reading constraint columns: %w", err)
		}
		for colRows.Next() {
			var col string
			if err := colRows.Scan(&col); err != nil {
				colRows.Close()
				return err
			}
			c.Columns = append(c.Columns, col)
		}
		if err := colRows.Err(); err != nil {
			colRows.Close()
			return err
		}
		colRows.Close()

		t.Constraints = append(t.Constraints, c)
	}
	return rows.Err()
}

func constraintType(code string) catalog.ConstraintType {
	switch code {
	case "p":
		return catalog.ConstraintPrimaryKey
	case "u":
		return catalog.ConstraintUnique
	case "f":
		return catalog.ConstraintForeignKey
	case "x":
		return catalog.ConstraintExclude
	default:
		return catalog.ConstraintCheck
	}
}

func fkActionWord(code string) string {
	switch code {
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	case "r":
		return "RESTRICT"
	default:
		return "NO ACTION"
	}
}

func (e *Extractor) extractIndexes(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT i.indexrelid, n.nspname, t.relname, ic.relname, am.amname, i.indisunique,
		       COALESCE(pg_get_expr(i.indpred, i.indrelid), ''),
		       COALESCE(obj_description(ic.oid, 'pg_class'), ''),
		       COALESCE(ts.spcname, ''),
		       COALESCE((SELECT array_agg(option) FROM unnest(ic.reloptions) option), '{}'),
		       EXISTS (SELECT 1 FROM pg_constraint c WHERE c.conindid = ic.oid)
		FROM pg_index i
		JOIN pg_class ic ON ic.oid = i.indexrelid
		JOIN pg_class t ON t.oid = i.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		LEFT JOIN pg_tablespace ts ON ts.oid = ic.reltablespace
		WHERE `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading indexes: %w", err)
	}
	defer rows.Close()

	var oids []int64
	byOID := map[int64]*catalog.Index{}
	for rows.Next() {
		var oid int64
		var rawOptions []string
		idx := &catalog.Index{}
		if err := rows.Scan(&oid, &idx.Schema, &idx.TableName, &idx.Name, &idx.Method, &idx.IsUnique,
			&idx.Predicate, &idx.Comment, &idx.Tablespace, &rawOptions, &idx.IsConstraintOwned); err != nil {
			return err
		}
		idx.StorageParams = parseOptionList(rawOptions)
		byOID[oid] = idx
		oids = append(oids, oid)
		cat.Indexes[idx.StableID()] = idx
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, oid := range oids {
		idx := byOID[oid]
		colRows, err := e.db.QueryContext(ctx, `
			SELECT COALESCE(a.attname, ''), COALESCE(pg_get_indexdef(i.indexrelid, k.ord, false), ''),
			       COALESCE(co.collname, ''), COALESCE(op.opcname, '')
			FROM pg_index i, unnest(i.indkey) WITH ORDINALITY AS k(attnum, ord)
			LEFT JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = k.attnum
			LEFT JOIN pg_collation co ON co.oid = (
				SELECT x FROM unnest(i.indcollation) WITH ORDINALITY u(x, o) WHERE u.o = k.ord)
			LEFT JOIN pg_opclass op ON op.oid = (
				SELECT x FROM unnest(i.indclass) WITH ORDINALITY u(x, o) WHERE u.o = k.ord)
			WHERE i.indexrelid = $1 ORDER BY k.ord`, oid)
		if err != nil {
			return fmt.Errorf("reading index keys: %w", err)
		}
		for colRows.Next() {
			var attname, exprText, collName, opcName string
			if err := colRows.Scan(&attname, &exprText, &collName, &opcName); err != nil {
				colRows.Close()
				return err
			}
			if attname != "" {
				idx.KeyColumns = append(idx.KeyColumns, attname)
				idx.IndexExpressions = append(idx.IndexExpressions, "")
			} else {
				idx.KeyColumns = append(idx.KeyColumns, "")
				idx.IndexExpressions = append(idx.IndexExpressions, exprText)
			}
			idx.ColumnCollations = append(idx.ColumnCollations, collName)
			idx.OperatorClasses = append(idx.OperatorClasses, opcName)
			idx.ColumnOptions = append(idx.ColumnOptions, "")
		}
		if err := colRows.Err(); err != nil {
			colRows.Close()
			return err
		}
		colRows.Close()
	}
	return nil
}

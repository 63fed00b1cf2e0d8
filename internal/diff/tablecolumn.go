package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func diffColumns(tableID string, m, b *catalog.Table) []*change.Change {
	var out []*change.Change

	mCols := make(map[string]*catalog.Column, len(m.Columns))
	for _, c := range m.Columns {
		mCols[c.Name] = c
	}
	bCols := make(map[string]*catalog.Column, len(b.Columns))
	for _, c := range b.Columns {
		bCols[c.Name] = c
	}

	for _, c := range b.Columns {
		if _, ok := mCols[c.Name]; !ok {
			sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", pgquote.QualifiedName(b.Schema, b.Name), renderColumnDef(c))
			out = append(out, change.New(change.OpCreate, catalog.KindColumn, change.ScopeObject, c.StableID()).
				WithSQL(sql).WithCreates(c.StableID()).WithRequires(tableID))
		}
	}

	for _, c := range m.Columns {
		if _, ok := bCols[c.Name]; !ok {
			sql := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(c.Name))
			out = append(out, change.New(change.OpDrop, catalog.KindColumn, change.ScopeObject, c.StableID()).
				WithSQL(sql).WithDrops(c.StableID()))
		}
	}

	for name, mc := range mCols {
		bc, ok := bCols[name]
		if !ok {
			continue
		}
		out = append(out, diffColumn(tableID, m.Schema, m.Name, mc, bc)...)
	}

	return out
}

func diffColumn(tableID, schema, table string, m, b *catalog.Column) []*change.Change {
	var out []*change.Change
	colRef := pgquote.ColumnRef(schema, table, m.Name)
	alterCol := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", pgquote.QualifiedName(schema, table), pgquote.Ident(m.Name))

	if m.GeneratedExpr != nil && b.GeneratedExpr != nil && *m.GeneratedExpr != *b.GeneratedExpr ||
		(m.GeneratedExpr == nil) != (b.GeneratedExpr == nil) {
		// PostgreSQL has no ALTER COLUMN ... expression statement for a
		// generated column; dropping and re-adding is the only path
		// (spec §4.2's generated-column note).
		out = append(out, change.New(change.OpDrop, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", pgquote.QualifiedName(schema, table), pgquote.Ident(m.Name))).
			WithRequires(m.StableID()))
		out = append(out, change.New(change.OpCreate, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", pgquote.QualifiedName(schema, table), renderColumnDef(b))).
			WithRequires(tableID))
		return out
	}

	if m.DataType != b.DataType || m.Collation != b.Collation {
		sql := alterCol + " TYPE " + b.DataType
		if b.Collation != "" {
			sql += " COLLATE " + pgquote.Ident(b.Collation)
		}
		sql += fmt.Sprintf(" USING %s::%s", pgquote.Ident(m.Name), b.DataType)
		out = append(out, change.New(change.OpAlter, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(sql).WithChangedField("data_type").WithRequires(m.StableID()))
	}

	if m.NotNull != b.NotNull {
		action := "DROP NOT NULL"
		if b.NotNull {
			action = "SET NOT NULL"
		}
		out = append(out, change.New(change.OpAlter, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(alterCol+" "+action).WithChangedField("not_null").WithRequires(m.StableID()))
	}

	if !strPtrEqual(m.Default, b.Default) {
		var sql string
		if b.Default != nil {
			sql = alterCol + " SET DEFAULT " + *b.Default
		} else {
			sql = alterCol + " DROP DEFAULT"
		}
		out = append(out, change.New(change.OpAlter, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(sql).WithChangedField("default").WithRequires(m.StableID()))
	}

	out = append(out, diffIdentity(m, b, alterCol)...)

	if !intPtrEqual(m.StatisticsTarget, b.StatisticsTarget) {
		target := -1
		if b.StatisticsTarget != nil {
			target = *b.StatisticsTarget
		}
		out = append(out, change.New(change.OpAlter, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(fmt.Sprintf("%s SET STATISTICS %d", alterCol, target)).
			WithChangedField("statistics_target").WithRequires(m.StableID()))
	}

	if m.StorageMode != b.StorageMode && b.StorageMode != "" {
		out = append(out, change.New(change.OpAlter, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(fmt.Sprintf("%s SET STORAGE %s", alterCol, b.StorageMode)).
			WithChangedField("storage_mode").WithRequires(m.StableID()))
	}

	if cc := DiffComment(catalog.KindColumn, m.StableID(), "COLUMN "+colRef, m.Comment, b.Comment); cc != nil {
		out = append(out, cc)
	}

	return out
}

func diffIdentity(m, b *catalog.Column, alterCol string) []*change.Change {
	switch {
	case m.Identity == nil && b.Identity == nil:
		return nil
	case m.Identity == nil && b.Identity != nil:
		kind := "BY DEFAULT"
		if b.Identity.Always {
			kind = "ALWAYS"
		}
		return []*change.Change{change.New(change.OpCreate, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(fmt.Sprintf("%s ADD GENERATED %s AS IDENTITY", alterCol, kind)).
			WithChangedField("identity").WithRequires(m.StableID())}
	case m.Identity != nil && b.Identity == nil:
		return []*change.Change{change.New(change.OpDrop, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(alterCol + " DROP IDENTITY").
			WithChangedField("identity").WithRequires(m.StableID())}
	case m.Identity.Always != b.Identity.Always:
		kind := "BY DEFAULT"
		if b.Identity.Always {
			kind = "ALWAYS"
		}
		return []*change.Change{change.New(change.OpAlter, catalog.KindColumn, change.ScopeObject, m.StableID()).
			WithSQL(fmt.Sprintf("%s SET GENERATED %s", alterCol, kind)).
			WithChangedField("identity").WithRequires(m.StableID())}
	}
	return nil
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

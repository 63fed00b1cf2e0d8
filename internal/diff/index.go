package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func indexClause(schema, table, name string) string {
	return "INDEX " + pgquote.QualifiedName(schema, name)
}

func createIndexSQL(i *catalog.Index) string {
	var keyParts []string
	for idx, col := range i.KeyColumns {
		part := col
		if idx < len(i.IndexExpressions) && i.IndexExpressions[idx] != "" {
			part = "(" + i.IndexExpressions[idx] + ")"
		} else {
			part = pgquote.Ident(col)
		}
		if idx < len(i.OperatorClasses) && i.OperatorClasses[idx] != "" {
			part += " " + i.OperatorClasses[idx]
		}
		if idx < len(i.ColumnCollations) && i.ColumnCollations[idx] != "" {
			part = "COLLATE " + pgquote.Ident(i.ColumnCollations[idx]) + " " + part
		}
		if idx < len(i.ColumnOptions) && i.ColumnOptions[idx] != "" {
			part += " " + i.ColumnOptions[idx]
		}
		keyParts = append(keyParts, part)
	}
	unique := ""
	if i.IsUnique {
		unique = "UNIQUE "
	}
	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s USING %s (%s)",
		unique, pgquote.Ident(i.Name), pgquote.QualifiedName(i.Schema, i.TableName), i.Method, strings.Join(keyParts, ", "))
	if len(i.StorageParams) > 0 {
		var opts []string
		for _, o := range i.StorageParams {
			opts = append(opts, fmt.Sprintf("%s = %s", o.Key, pgquote.Literal(o.Value)))
		}
		sql += " WITH (" + strings.Join(opts, ", ") + ")"
	}
	if i.Tablespace != "" {
		sql += " TABLESPACE " + pgquote.Ident(i.Tablespace)
	}
	if i.Predicate != "" {
		sql += fmt.Sprintf(" WHERE (%s)", i.Predicate)
	}
	return sql
}

func indexNonAlterableEqual(m, b *catalog.Index) bool {
	return m.Method == b.Method &&
		m.IsUnique == b.IsUnique &&
		catalog.EqualStringSlices(m.KeyColumns, b.KeyColumns) &&
		catalog.EqualStringSlices(m.IndexExpressions, b.IndexExpressions) &&
		catalog.EqualStringSlices(m.ColumnCollations, b.ColumnCollations) &&
		catalog.EqualStringSlices(m.OperatorClasses, b.OperatorClasses) &&
		catalog.EqualStringSlices(m.ColumnOptions, b.ColumnOptions) &&
		m.Predicate == b.Predicate
}

func diffIndexes(ctx *DiffContext, main, branch map[string]*catalog.Index) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		i := branch[id]
		if i.IsConstraintOwned {
			// Lifecycle owned by the constraint change (spec §4.2 "Index
			// replace policy"); diffConstraints already accounts for it.
			continue
		}
		out = append(out, change.New(change.OpCreate, catalog.KindIndex, change.ScopeObject, id).
			WithSQL(createIndexSQL(i)).WithCreates(id).WithRequires("table:"+i.Schema+"."+i.TableName))
		if i.Comment != "" {
			out = append(out, DiffComment(catalog.KindIndex, id, indexClause(i.Schema, i.TableName, i.Name), "", i.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		i := main[id]
		if i.IsConstraintOwned {
			continue
		}
		out = append(out, change.New(change.OpDrop, catalog.KindIndex, change.ScopeObject, id).
			WithSQL("DROP INDEX "+pgquote.QualifiedName(i.Schema, i.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		if b.IsConstraintOwned {
			continue
		}
		clause := indexClause(m.Schema, m.TableName, m.Name)

		if !indexNonAlterableEqual(m, b) {
			out = append(out, change.New(change.OpDrop, catalog.KindIndex, change.ScopeObject, id).
				WithSQL("DROP INDEX "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindIndex, change.ScopeObject, id).
				WithSQL(createIndexSQL(b)).WithCreates(id).WithRequires("table:"+b.Schema+"."+b.TableName))
			continue
		}

		if !catalog.EqualOptions(m.StorageParams, b.StorageParams) {
			out = append(out, diffOptionsBag(id, catalog.KindIndex,
				fmt.Sprintf("ALTER INDEX %s", pgquote.QualifiedName(m.Schema, m.Name)), m.StorageParams, b.StorageParams)...)
		}
		if m.Tablespace != b.Tablespace {
			out = append(out, change.New(change.OpAlter, catalog.KindIndex, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER INDEX %s SET TABLESPACE %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(b.Tablespace))).
				WithChangedField("tablespace").WithRequires(id))
		}
		for attnum, target := range b.Statistics {
			if mt, ok := m.Statistics[attnum]; !ok || mt != target {
				out = append(out, change.New(change.OpAlter, catalog.KindIndex, change.ScopeObject, id).
					WithSQL(fmt.Sprintf("ALTER INDEX %s ALTER COLUMN %d SET STATISTICS %d", pgquote.QualifiedName(m.Schema, m.Name), attnumKey(attnum), target)).
					WithChangedField("statistics").WithRequires(id))
			}
		}

		if cc := DiffComment(catalog.KindIndex, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
	}

	return out
}

func attnumKey(attnum string) int {
	n := 0
	for _, r := range attnum {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

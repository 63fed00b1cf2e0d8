package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func sequenceClause(schema, name string) string {
	return "SEQUENCE " + pgquote.QualifiedName(schema, name)
}

func createSequenceSQL(s *catalog.Sequence) string {
	sql := fmt.Sprintf("CREATE SEQUENCE %s AS %s INCREMENT BY %d MINVALUE %d MAXVALUE %d START WITH %d CACHE %d",
		pgquote.QualifiedName(s.Schema, s.Name), s.DataType, s.Increment, s.MinValue, s.MaxValue, s.StartValue, s.CacheSize)
	if s.Cycle {
		sql += " CYCLE"
	} else {
		sql += " NO CYCLE"
	}
	if s.OwnedByTable != "" {
		sql += fmt.Sprintf(" OWNED BY %s", pgquote.ColumnRef(s.Schema, s.OwnedByTable, s.OwnedByColumn))
	}
	return sql
}

func diffSequences(ctx *DiffContext, main, branch map[string]*catalog.Sequence) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		s := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindSequence, change.ScopeObject, id).
			WithSQL(createSequenceSQL(s)).WithCreates(id).WithRequires("schema:"+s.Schema, "role:"+s.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindSequence, id, sequenceClause(s.Schema, s.Name),
			DiffPrivilegeDeltas(ctx, s.Owner, nil, s.Privileges))...)
		if s.Comment != "" {
			out = append(out, DiffComment(catalog.KindSequence, id, sequenceClause(s.Schema, s.Name), "", s.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		s := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindSequence, change.ScopeObject, id).
			WithSQL("DROP SEQUENCE "+pgquote.QualifiedName(s.Schema, s.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := sequenceClause(m.Schema, m.Name)

		if m.DataType != b.DataType {
			// Non-alterable (spec §4.3): a sequence's backing integer type
			// is fixed at creation (ALTER SEQUENCE ... AS <type> exists,
			// but silently reinterpreting in-flight values is unsafe across
			// a branch diff, so this differ replaces instead).
			out = append(out, change.New(change.OpDrop, catalog.KindSequence, change.ScopeObject, id).
				WithSQL("DROP SEQUENCE "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindSequence, change.ScopeObject, id).
				WithSQL(createSequenceSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner))
			continue
		}

		var alters []string
		var changedFields []string
		if m.Increment != b.Increment {
			alters = append(alters, fmt.Sprintf("INCREMENT BY %d", b.Increment))
			changedFields = append(changedFields, "increment")
		}
		if m.MinValue != b.MinValue {
			alters = append(alters, fmt.Sprintf("MINVALUE %d", b.MinValue))
			changedFields = append(changedFields, "min_value")
		}
		if m.MaxValue != b.MaxValue {
			alters = append(alters, fmt.Sprintf("MAXVALUE %d", b.MaxValue))
			changedFields = append(changedFields, "max_value")
		}
		if m.StartValue != b.StartValue {
			alters = append(alters, fmt.Sprintf("START WITH %d", b.StartValue))
			changedFields = append(changedFields, "start_value")
		}
		if m.CacheSize != b.CacheSize {
			alters = append(alters, fmt.Sprintf("CACHE %d", b.CacheSize))
			changedFields = append(changedFields, "cache_size")
		}
		if m.Cycle != b.Cycle {
			if b.Cycle {
				alters = append(alters, "CYCLE")
			} else {
				alters = append(alters, "NO CYCLE")
			}
			changedFields = append(changedFields, "cycle")
		}
		if len(alters) > 0 {
			sql := "ALTER SEQUENCE " + pgquote.QualifiedName(m.Schema, m.Name)
			for _, a := range alters {
				sql += " " + a
			}
			c := change.New(change.OpAlter, catalog.KindSequence, change.ScopeObject, id).WithSQL(sql).WithRequires(id)
			for _, f := range changedFields {
				c.WithChangedField(f)
			}
			out = append(out, c)
		}

		if m.OwnedByTable != b.OwnedByTable || m.OwnedByColumn != b.OwnedByColumn {
			var sql string
			if b.OwnedByTable == "" {
				sql = fmt.Sprintf("ALTER SEQUENCE %s OWNED BY NONE", pgquote.QualifiedName(m.Schema, m.Name))
				out = append(out, change.New(change.OpAlter, catalog.KindSequence, change.ScopeObject, id).
					WithSQL(sql).WithChangedField("owned_by").WithRequires(id))
			} else {
				sql = fmt.Sprintf("ALTER SEQUENCE %s OWNED BY %s", pgquote.QualifiedName(m.Schema, m.Name),
					pgquote.ColumnRef(b.Schema, b.OwnedByTable, b.OwnedByColumn))
				out = append(out, change.New(change.OpAlter, catalog.KindSequence, change.ScopeObject, id).
					WithSQL(sql).WithChangedField("owned_by").
					WithRequires(id, "column:"+b.Schema+"."+b.OwnedByTable+"."+b.OwnedByColumn))
			}
		}

		if oc := DiffOwnership(catalog.KindSequence, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindSequence, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindSequence, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

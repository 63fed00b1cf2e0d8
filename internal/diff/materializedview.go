package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func materializedViewClause(schema, name string) string {
	return "MATERIALIZED VIEW " + pgquote.QualifiedName(schema, name)
}

func createMaterializedViewSQL(m *catalog.MaterializedView) string {
	return fmt.Sprintf("CREATE MATERIALIZED VIEW %s AS %s", pgquote.QualifiedName(m.Schema, m.Name), m.Definition)
}

func diffMaterializedViews(ctx *DiffContext, main, branch map[string]*catalog.MaterializedView) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		v := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindMaterializedView, change.ScopeObject, id).
			WithSQL(createMaterializedViewSQL(v)).WithCreates(id).WithRequires("schema:"+v.Schema, "role:"+v.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindMaterializedView, id, materializedViewClause(v.Schema, v.Name),
			DiffPrivilegeDeltas(ctx, v.Owner, nil, v.Privileges))...)
		if v.Comment != "" {
			out = append(out, DiffComment(catalog.KindMaterializedView, id, materializedViewClause(v.Schema, v.Name), "", v.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		v := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindMaterializedView, change.ScopeObject, id).
			WithSQL("DROP MATERIALIZED VIEW "+pgquote.QualifiedName(v.Schema, v.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := materializedViewClause(m.Schema, m.Name)

		if m.Definition != b.Definition {
			// Non-alterable (spec §4.3): PostgreSQL has no CREATE OR
			// REPLACE MATERIALIZED VIEW.
			out = append(out, change.New(change.OpDrop, catalog.KindMaterializedView, change.ScopeObject, id).
				WithSQL("DROP MATERIALIZED VIEW "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindMaterializedView, change.ScopeObject, id).
				WithSQL(createMaterializedViewSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner))
			continue
		}

		if oc := DiffOwnership(catalog.KindMaterializedView, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindMaterializedView, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindMaterializedView, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

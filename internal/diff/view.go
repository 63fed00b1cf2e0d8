package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func viewClause(schema, name string) string {
	return "VIEW " + pgquote.QualifiedName(schema, name)
}

func createViewSQL(v *catalog.View) string {
	cols := ""
	if len(v.Columns) > 0 {
		cols = " (" + strings.Join(pgquote.Idents(v.Columns), ", ") + ")"
	}
	return fmt.Sprintf("CREATE VIEW %s%s AS %s", pgquote.QualifiedName(v.Schema, v.Name), cols, v.Definition)
}

func replaceViewSQL(v *catalog.View) string {
	cols := ""
	if len(v.Columns) > 0 {
		cols = " (" + strings.Join(pgquote.Idents(v.Columns), ", ") + ")"
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s%s AS %s", pgquote.QualifiedName(v.Schema, v.Name), cols, v.Definition)
}

func diffViews(ctx *DiffContext, main, branch map[string]*catalog.View) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		v := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindView, change.ScopeObject, id).
			WithSQL(createViewSQL(v)).WithCreates(id).WithRequires("schema:"+v.Schema, "role:"+v.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindView, id, viewClause(v.Schema, v.Name),
			DiffPrivilegeDeltas(ctx, v.Owner, nil, v.Privileges))...)
		if v.Comment != "" {
			out = append(out, DiffComment(catalog.KindView, id, viewClause(v.Schema, v.Name), "", v.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		v := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindView, change.ScopeObject, id).
			WithSQL("DROP VIEW "+pgquote.QualifiedName(v.Schema, v.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := viewClause(m.Schema, m.Name)

		if m.Definition != b.Definition || !catalog.EqualStringSlices(m.Columns, b.Columns) {
			if m.CompatibleReplace(b) {
				// Tail-column-only addition: CREATE OR REPLACE VIEW is
				// eligible (spec §4.3).
				out = append(out, change.New(change.OpAlter, catalog.KindView, change.ScopeObject, id).
					WithSQL(replaceViewSQL(b)).WithChangedField("definition").WithRequires(id))
			} else {
				out = append(out, change.New(change.OpDrop, catalog.KindView, change.ScopeObject, id).
					WithSQL("DROP VIEW "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id))
				out = append(out, change.New(change.OpCreate, catalog.KindView, change.ScopeObject, id).
					WithSQL(createViewSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner))
			}
		}

		if oc := DiffOwnership(catalog.KindView, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindView, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindView, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func diffSchemas(ctx *DiffContext, main, branch map[string]*catalog.Schema) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		s := branch[id]
		sql := fmt.Sprintf("CREATE SCHEMA %s AUTHORIZATION %s", pgquote.Ident(s.Name), pgquote.Ident(s.Owner))
		out = append(out, change.New(change.OpCreate, catalog.KindSchema, change.ScopeObject, id).
			WithSQL(sql).WithCreates(id).WithRequires("role:"+s.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindSchema, id,
			"SCHEMA "+pgquote.Ident(s.Name), DiffPrivilegeDeltas(ctx, s.Owner, nil, s.Privileges))...)
		if s.Comment != "" {
			out = append(out, DiffComment(catalog.KindSchema, id, "SCHEMA "+pgquote.Ident(s.Name), "", s.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		s := main[id]
		sql := fmt.Sprintf("DROP SCHEMA %s", pgquote.Ident(s.Name))
		out = append(out, change.New(change.OpDrop, catalog.KindSchema, change.ScopeObject, id).
			WithSQL(sql).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := "SCHEMA " + pgquote.Ident(m.Name)
		if c := DiffOwnership(catalog.KindSchema, id, clause, m.Owner, b.Owner); c != nil {
			out = append(out, c)
		}
		if c := DiffComment(catalog.KindSchema, id, clause, m.Comment, b.Comment); c != nil {
			out = append(out, c)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindSchema, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

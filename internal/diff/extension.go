package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func diffExtensions(ctx *DiffContext, main, branch map[string]*catalog.Extension) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		e := branch[id]
		sql := fmt.Sprintf("CREATE EXTENSION %s SCHEMA %s VERSION %s",
			pgquote.Ident(e.Name), pgquote.Ident(e.Schema), pgquote.Literal(e.Version))
		out = append(out, change.New(change.OpCreate, catalog.KindExtension, change.ScopeObject, id).
			WithSQL(sql).WithCreates(id).WithRequires("schema:"+e.Schema))
		if e.Comment != "" {
			out = append(out, DiffComment(catalog.KindExtension, id, "EXTENSION "+pgquote.Ident(e.Name), "", e.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		e := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindExtension, change.ScopeObject, id).
			WithSQL("DROP EXTENSION "+pgquote.Ident(e.Name)).WithDrops(id).
			WithComment("-- WARNING: objects depending on this extension may need CASCADE or manual cleanup."))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := "EXTENSION " + pgquote.Ident(m.Name)

		if m.Schema != b.Schema {
			out = append(out, change.New(change.OpAlter, catalog.KindExtension, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER EXTENSION %s SET SCHEMA %s", pgquote.Ident(m.Name), pgquote.Ident(b.Schema))).
				WithChangedField("schema").WithRequires(id, "schema:"+b.Schema))
		}
		if m.Version != b.Version {
			out = append(out, change.New(change.OpAlter, catalog.KindExtension, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER EXTENSION %s UPDATE TO %s", pgquote.Ident(m.Name), pgquote.Literal(b.Version))).
				WithChangedField("version").WithRequires(id))
		}
		if c := DiffComment(catalog.KindExtension, id, clause, m.Comment, b.Comment); c != nil {
			out = append(out, c)
		}
		// Relocatable is intrinsic to the extension's control file, not a
		// property ALTER EXTENSION can change; a difference here means the
		// two databases installed genuinely different extension builds,
		// which this differ has no statement to reconcile.
	}

	return out
}

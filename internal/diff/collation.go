package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func collationClause(schema, name string) string {
	return "COLLATION " + pgquote.QualifiedName(schema, name)
}

func createCollationSQL(c *catalog.Collation) string {
	return fmt.Sprintf("CREATE COLLATION %s (PROVIDER = %s, LOCALE = %s, DETERMINISTIC = %t)",
		pgquote.QualifiedName(c.Schema, c.Name), c.Provider, pgquote.Literal(c.LocaleName), c.Deterministic)
}

func diffCollations(ctx *DiffContext, main, branch map[string]*catalog.Collation) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		c := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindCollation, change.ScopeObject, id).
			WithSQL(createCollationSQL(c)).WithCreates(id).WithRequires("schema:"+c.Schema, "role:"+c.Owner))
		if c.Comment != "" {
			out = append(out, DiffComment(catalog.KindCollation, id, collationClause(c.Schema, c.Name), "", c.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		c := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindCollation, change.ScopeObject, id).
			WithSQL("DROP COLLATION "+pgquote.QualifiedName(c.Schema, c.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := collationClause(m.Schema, m.Name)

		if m.LocaleName != b.LocaleName || m.Provider != b.Provider || m.Deterministic != b.Deterministic {
			// Non-alterable (spec §4.3): locale/provider/determinism are
			// fixed at creation, so reconciling them is a replace.
			out = append(out, change.New(change.OpDrop, catalog.KindCollation, change.ScopeObject, id).
				WithSQL("DROP COLLATION "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindCollation, change.ScopeObject, id).
				WithSQL(createCollationSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner))
			continue
		}

		if c := DiffOwnership(catalog.KindCollation, id, clause, m.Owner, b.Owner); c != nil {
			out = append(out, c)
		}
		if c := DiffComment(catalog.KindCollation, id, clause, m.Comment, b.Comment); c != nil {
			out = append(out, c)
		}
	}

	return out
}

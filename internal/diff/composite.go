package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func compositeClause(schema, name string) string {
	return "TYPE " + pgquote.QualifiedName(schema, name)
}

func createCompositeSQL(c *catalog.CompositeType) string {
	sql := "CREATE TYPE " + pgquote.QualifiedName(c.Schema, c.Name) + " AS ("
	for i, a := range c.Attributes {
		if i > 0 {
			sql += ", "
		}
		sql += pgquote.Ident(a.Name) + " " + a.DataType
		if a.Collation != "" {
			sql += " COLLATE " + pgquote.Ident(a.Collation)
		}
	}
	return sql + ")"
}

func replaceComposite(id string, m, b *catalog.CompositeType) []*change.Change {
	return []*change.Change{
		change.New(change.OpDrop, catalog.KindComposite, change.ScopeObject, id).
			WithSQL("DROP TYPE " + pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id),
		change.New(change.OpCreate, catalog.KindComposite, change.ScopeObject, id).
			WithSQL(createCompositeSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner),
	}
}

func diffComposites(ctx *DiffContext, main, branch map[string]*catalog.CompositeType) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		c := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindComposite, change.ScopeObject, id).
			WithSQL(createCompositeSQL(c)).WithCreates(id).WithRequires("schema:"+c.Schema, "role:"+c.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindComposite, id, compositeClause(c.Schema, c.Name),
			DiffPrivilegeDeltas(ctx, c.Owner, nil, c.Privileges))...)
		if c.Comment != "" {
			out = append(out, DiffComment(catalog.KindComposite, id, compositeClause(c.Schema, c.Name), "", c.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		c := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindComposite, change.ScopeObject, id).
			WithSQL("DROP TYPE "+pgquote.QualifiedName(c.Schema, c.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := compositeClause(m.Schema, m.Name)

		mByName := make(map[string]catalog.CompositeAttribute, len(m.Attributes))
		for _, a := range m.Attributes {
			mByName[a.Name] = a
		}
		bByName := make(map[string]catalog.CompositeAttribute, len(b.Attributes))
		for _, a := range b.Attributes {
			bByName[a.Name] = a
		}

		typeChanged := false
		for name, ma := range mByName {
			if ba, ok := bByName[name]; ok && (ma.DataType != ba.DataType || ma.Collation != ba.Collation) {
				typeChanged = true
				break
			}
		}

		if typeChanged {
			out = append(out, replaceComposite(id, m, b)...)
			continue
		}

		var remainingAfterDrops []string
		var dropStmts []*change.Change
		for _, a := range m.Attributes {
			if _, ok := bByName[a.Name]; ok {
				remainingAfterDrops = append(remainingAfterDrops, a.Name)
			} else {
				dropStmts = append(dropStmts, change.New(change.OpDrop, catalog.KindComposite, change.ScopeObject, id).
					WithSQL(fmt.Sprintf("ALTER TYPE %s DROP ATTRIBUTE %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(a.Name))).
					WithRequires(id))
			}
		}

		var bNamesWithoutNew []string
		var addedNames []string
		for _, a := range b.Attributes {
			if _, ok := mByName[a.Name]; ok {
				bNamesWithoutNew = append(bNamesWithoutNew, a.Name)
			} else {
				addedNames = append(addedNames, a.Name)
			}
		}

		if !catalog.EqualStringSlices(remainingAfterDrops, bNamesWithoutNew) {
			// The surviving attributes were reordered relative to each
			// other; CREATE TYPE ... AS has no reorder statement, only
			// append-at-tail ADD ATTRIBUTE (spec §4.3).
			out = append(out, replaceComposite(id, m, b)...)
			continue
		}

		out = append(out, dropStmts...)
		for _, name := range addedNames {
			a := bByName[name]
			sql := fmt.Sprintf("ALTER TYPE %s ADD ATTRIBUTE %s %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(a.Name), a.DataType)
			if a.Collation != "" {
				sql += " COLLATE " + pgquote.Ident(a.Collation)
			}
			out = append(out, change.New(change.OpCreate, catalog.KindComposite, change.ScopeObject, id).
				WithSQL(sql).WithRequires(id))
		}

		if oc := DiffOwnership(catalog.KindComposite, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindComposite, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindComposite, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

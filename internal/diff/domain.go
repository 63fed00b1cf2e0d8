package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func domainClause(schema, name string) string {
	return "DOMAIN " + pgquote.QualifiedName(schema, name)
}

func createDomainSQL(d *catalog.Domain) string {
	sql := fmt.Sprintf("CREATE DOMAIN %s AS %s", pgquote.QualifiedName(d.Schema, d.Name), d.BaseType)
	if d.Default != nil {
		sql += " DEFAULT " + *d.Default
	}
	if d.NotNull {
		sql += " NOT NULL"
	}
	for _, c := range d.Constraints {
		sql += fmt.Sprintf(" CONSTRAINT %s CHECK (%s)", pgquote.Ident(c.Name), c.Expression)
	}
	return sql
}

func diffDomains(ctx *DiffContext, main, branch map[string]*catalog.Domain) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		d := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindDomain, change.ScopeObject, id).
			WithSQL(createDomainSQL(d)).WithCreates(id).WithRequires("schema:"+d.Schema, "role:"+d.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindDomain, id, domainClause(d.Schema, d.Name),
			DiffPrivilegeDeltas(ctx, d.Owner, nil, d.Privileges))...)
		if d.Comment != "" {
			out = append(out, DiffComment(catalog.KindDomain, id, domainClause(d.Schema, d.Name), "", d.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		d := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindDomain, change.ScopeObject, id).
			WithSQL("DROP DOMAIN "+pgquote.QualifiedName(d.Schema, d.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := domainClause(m.Schema, m.Name)

		if m.BaseType != b.BaseType {
			// Non-alterable (spec §4.3): the underlying type is fixed at
			// creation.
			out = append(out, change.New(change.OpDrop, catalog.KindDomain, change.ScopeObject, id).
				WithSQL("DROP DOMAIN "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindDomain, change.ScopeObject, id).
				WithSQL(createDomainSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner))
			continue
		}

		if m.NotNull != b.NotNull {
			action := "DROP NOT NULL"
			if b.NotNull {
				action = "SET NOT NULL"
			}
			out = append(out, change.New(change.OpAlter, catalog.KindDomain, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER DOMAIN %s %s", pgquote.QualifiedName(m.Schema, m.Name), action)).
				WithChangedField("not_null").WithRequires(id))
		}

		if !strPtrEqual(m.Default, b.Default) {
			var sql string
			if b.Default != nil {
				sql = fmt.Sprintf("ALTER DOMAIN %s SET DEFAULT %s", pgquote.QualifiedName(m.Schema, m.Name), *b.Default)
			} else {
				sql = fmt.Sprintf("ALTER DOMAIN %s DROP DEFAULT", pgquote.QualifiedName(m.Schema, m.Name))
			}
			out = append(out, change.New(change.OpAlter, catalog.KindDomain, change.ScopeObject, id).
				WithSQL(sql).WithChangedField("default").WithRequires(id))
		}

		mConstraints := make(map[string]catalog.DomainConstraint, len(m.Constraints))
		for _, c := range m.Constraints {
			mConstraints[c.Name] = c
		}
		bConstraints := make(map[string]catalog.DomainConstraint, len(b.Constraints))
		for _, c := range b.Constraints {
			bConstraints[c.Name] = c
		}
		for _, c := range b.Constraints {
			if mc, ok := mConstraints[c.Name]; !ok || mc.Expression != c.Expression {
				if ok {
					out = append(out, change.New(change.OpDrop, catalog.KindDomain, change.ScopeObject, id).
						WithSQL(fmt.Sprintf("ALTER DOMAIN %s DROP CONSTRAINT %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(c.Name))).
						WithRequires(id))
				}
				out = append(out, change.New(change.OpCreate, catalog.KindDomain, change.ScopeObject, id).
					WithSQL(fmt.Sprintf("ALTER DOMAIN %s ADD CONSTRAINT %s CHECK (%s)",
						pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(c.Name), c.Expression)).
					WithRequires(id))
			}
		}
		for _, c := range m.Constraints {
			if _, ok := bConstraints[c.Name]; !ok {
				out = append(out, change.New(change.OpDrop, catalog.KindDomain, change.ScopeObject, id).
					WithSQL(fmt.Sprintf("ALTER DOMAIN %s DROP CONSTRAINT %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(c.Name))).
					WithRequires(id))
			}
		}

		if oc := DiffOwnership(catalog.KindDomain, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindDomain, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindDomain, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

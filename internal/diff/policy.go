package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func policyClause(p *catalog.Policy) string {
	return fmt.Sprintf("POLICY %s ON %s", pgquote.Ident(p.Name), pgquote.QualifiedName(p.Schema, p.TableName))
}

func createPolicySQL(p *catalog.Policy) string {
	permissive := "PERMISSIVE"
	if !p.Permissive {
		permissive = "RESTRICTIVE"
	}
	sql := fmt.Sprintf("CREATE POLICY %s ON %s AS %s FOR %s",
		pgquote.Ident(p.Name), pgquote.QualifiedName(p.Schema, p.TableName), permissive, p.Command)
	if len(p.Roles) > 0 {
		sql += " TO " + strings.Join(pgquote.Idents(p.Roles), ", ")
	}
	if p.UsingExpression != "" {
		sql += fmt.Sprintf(" USING (%s)", p.UsingExpression)
	}
	if p.CheckExpression != "" {
		sql += fmt.Sprintf(" WITH CHECK (%s)", p.CheckExpression)
	}
	return sql
}

func diffPolicies(ctx *DiffContext, main, branch map[string]*catalog.Policy) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		p := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindPolicy, change.ScopeObject, id).
			WithSQL(createPolicySQL(p)).WithCreates(id).WithRequires("table:"+p.Schema+"."+p.TableName))
		if p.Comment != "" {
			out = append(out, DiffComment(catalog.KindPolicy, id, policyClause(p), "", p.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		p := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindPolicy, change.ScopeObject, id).
			WithSQL(fmt.Sprintf("DROP POLICY %s ON %s", pgquote.Ident(p.Name), pgquote.QualifiedName(p.Schema, p.TableName))).
			WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]

		if m.Permissive != b.Permissive || m.Command != b.Command {
			// PERMISSIVE/RESTRICTIVE and the command a policy applies to
			// are fixed at creation; ALTER POLICY cannot change either.
			out = append(out, change.New(change.OpDrop, catalog.KindPolicy, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("DROP POLICY %s ON %s", pgquote.Ident(m.Name), pgquote.QualifiedName(m.Schema, m.TableName))).
				WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindPolicy, change.ScopeObject, id).
				WithSQL(createPolicySQL(b)).WithCreates(id).WithRequires("table:"+b.Schema+"."+b.TableName))
			continue
		}

		var clauses []string
		var changed []string
		if !catalog.EqualStringSets(m.Roles, b.Roles) {
			clauses = append(clauses, "TO "+strings.Join(pgquote.Idents(b.Roles), ", "))
			changed = append(changed, "roles")
		}
		if m.UsingExpression != b.UsingExpression {
			clauses = append(clauses, fmt.Sprintf("USING (%s)", b.UsingExpression))
			changed = append(changed, "using_expression")
		}
		if m.CheckExpression != b.CheckExpression {
			clauses = append(clauses, fmt.Sprintf("WITH CHECK (%s)", b.CheckExpression))
			changed = append(changed, "check_expression")
		}
		if len(clauses) > 0 {
			sql := fmt.Sprintf("ALTER POLICY %s ON %s %s",
				pgquote.Ident(m.Name), pgquote.QualifiedName(m.Schema, m.TableName), strings.Join(clauses, " "))
			c := change.New(change.OpAlter, catalog.KindPolicy, change.ScopeObject, id).WithSQL(sql).WithRequires(id)
			for _, f := range changed {
				c.WithChangedField(f)
			}
			out = append(out, c)
		}

		if cc := DiffComment(catalog.KindPolicy, id, policyClause(m), m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
	}

	return out
}

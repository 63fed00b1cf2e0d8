package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func procedureClause(p *catalog.Procedure) string {
	word := "FUNCTION"
	if p.RoutineKind == catalog.ProcedureKindProcedure {
		word = "PROCEDURE"
	}
	return fmt.Sprintf("%s %s(%s)", word, pgquote.QualifiedName(p.Schema, p.Name), p.Signature)
}

func createProcedureSQL(p *catalog.Procedure, replace bool) string {
	verb := "CREATE"
	if replace {
		verb = "CREATE OR REPLACE"
	}
	switch p.RoutineKind {
	case catalog.ProcedureKindProcedure:
		return fmt.Sprintf("%s PROCEDURE %s(%s)\nLANGUAGE %s\nAS %s",
			verb, pgquote.QualifiedName(p.Schema, p.Name), p.Signature, p.Language, pgquote.DollarQuote(p.Body))
	case catalog.ProcedureKindAggregate:
		return fmt.Sprintf("CREATE AGGREGATE %s(%s) (SFUNC = %s)",
			pgquote.QualifiedName(p.Schema, p.Name), p.Signature, p.Body)
	default:
		sql := fmt.Sprintf("%s FUNCTION %s(%s)\nRETURNS %s\nLANGUAGE %s\n%s",
			verb, pgquote.QualifiedName(p.Schema, p.Name), p.Signature, p.ReturnType, p.Language, p.Volatility)
		if p.Parallel != "" {
			sql += " PARALLEL " + p.Parallel
		}
		if p.Security == "DEFINER" {
			sql += " SECURITY DEFINER"
		}
		return sql + "\nAS " + pgquote.DollarQuote(p.Body)
	}
}

func diffProcedures(ctx *DiffContext, main, branch map[string]*catalog.Procedure) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		p := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindProcedure, change.ScopeObject, id).
			WithSQL(createProcedureSQL(p, false)).WithCreates(id).WithRequires("schema:"+p.Schema, "role:"+p.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindProcedure, id, procedureClause(p),
			DiffPrivilegeDeltas(ctx, p.Owner, nil, p.Privileges))...)
		if p.Comment != "" {
			out = append(out, DiffComment(catalog.KindProcedure, id, procedureClause(p), "", p.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		p := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindProcedure, change.ScopeObject, id).
			WithSQL("DROP "+procedureClause(p)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := procedureClause(m)

		bodyChanged := m.Body != b.Body || m.Language != b.Language || m.Volatility != b.Volatility ||
			m.Parallel != b.Parallel || m.Security != b.Security

		if m.ReturnType != b.ReturnType || (bodyChanged && m.RoutineKind == catalog.ProcedureKindAggregate) {
			// CREATE OR REPLACE cannot change a return type, and there is
			// no CREATE OR REPLACE AGGREGATE (spec §4.3): replace.
			out = append(out, change.New(change.OpDrop, catalog.KindProcedure, change.ScopeObject, id).
				WithSQL("DROP "+clause).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindProcedure, change.ScopeObject, id).
				WithSQL(createProcedureSQL(b, false)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner))
		} else if bodyChanged {
			out = append(out, change.New(change.OpAlter, catalog.KindProcedure, change.ScopeObject, id).
				WithSQL(createProcedureSQL(b, true)).WithChangedField("body").WithRequires(id))
		}

		if oc := DiffOwnership(catalog.KindProcedure, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindProcedure, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindProcedure, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

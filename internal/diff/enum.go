package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func enumClause(schema, name string) string {
	return "TYPE " + pgquote.QualifiedName(schema, name)
}

func createEnumSQL(e *catalog.Enum) string {
	literals := make([]string, len(e.Values))
	for i, v := range e.Values {
		literals[i] = pgquote.Literal(v)
	}
	sql := "CREATE TYPE " + pgquote.QualifiedName(e.Schema, e.Name) + " AS ENUM ("
	for i, l := range literals {
		if i > 0 {
			sql += ", "
		}
		sql += l
	}
	return sql + ")"
}

// isSubsequence reports whether main occurs in branch in the same
// relative order, allowing arbitrary insertions — the condition spec §4.3
// requires for enum values to be alterable by appending/inserting rather
// than forcing a replace.
func isSubsequence(main, branch []string) bool {
	j := 0
	for _, v := range branch {
		if j < len(main) && v == main[j] {
			j++
		}
	}
	return j == len(main)
}

// enumAddValueStatements assumes isSubsequence(main, branch) and returns
// one ALTER TYPE ... ADD VALUE statement per value present in branch but
// not main, anchored with BEFORE/AFTER so the final ordinal order matches
// branch exactly.
func enumAddValueStatements(schema, name string, main, branch []string) []string {
	var stmts []string
	prevValue := ""
	j := 0
	for _, v := range branch {
		if j < len(main) && v == main[j] {
			prevValue = v
			j++
			continue
		}
		var clause string
		switch {
		case prevValue != "":
			clause = fmt.Sprintf("AFTER %s", pgquote.Literal(prevValue))
		case j < len(main):
			clause = fmt.Sprintf("BEFORE %s", pgquote.Literal(main[j]))
		}
		sql := fmt.Sprintf("ALTER TYPE %s ADD VALUE %s", pgquote.QualifiedName(schema, name), pgquote.Literal(v))
		if clause != "" {
			sql += " " + clause
		}
		stmts = append(stmts, sql)
		prevValue = v
	}
	return stmts
}

func diffEnums(ctx *DiffContext, main, branch map[string]*catalog.Enum) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		e := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindEnum, change.ScopeObject, id).
			WithSQL(createEnumSQL(e)).WithCreates(id).WithRequires("schema:"+e.Schema, "role:"+e.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindEnum, id, enumClause(e.Schema, e.Name),
			DiffPrivilegeDeltas(ctx, e.Owner, nil, e.Privileges))...)
		if e.Comment != "" {
			out = append(out, DiffComment(catalog.KindEnum, id, enumClause(e.Schema, e.Name), "", e.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		e := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindEnum, change.ScopeObject, id).
			WithSQL("DROP TYPE "+pgquote.QualifiedName(e.Schema, e.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := enumClause(m.Schema, m.Name)

		if !catalog.EqualStringSlices(m.Values, b.Values) {
			if isSubsequence(m.Values, b.Values) {
				for _, sql := range enumAddValueStatements(m.Schema, m.Name, m.Values, b.Values) {
					out = append(out, change.New(change.OpAlter, catalog.KindEnum, change.ScopeObject, id).
						WithSQL(sql).WithChangedField("values").WithRequires(id))
				}
			} else {
				// Rename/reorder/remove: PostgreSQL cannot remove or
				// reorder enum labels in place (spec §4.3), so replace.
				out = append(out, change.New(change.OpDrop, catalog.KindEnum, change.ScopeObject, id).
					WithSQL("DROP TYPE "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id).
					WithComment("-- WARNING: removed/reordered enum values force a drop and recreate; migrate any column default or stored data referencing a removed value first."))
				out = append(out, change.New(change.OpCreate, catalog.KindEnum, change.ScopeObject, id).
					WithSQL(createEnumSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner))
				continue
			}
		}

		if oc := DiffOwnership(catalog.KindEnum, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindEnum, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindEnum, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

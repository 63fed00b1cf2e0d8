package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func rangeClause(schema, name string) string {
	return "TYPE " + pgquote.QualifiedName(schema, name)
}

func createRangeSQL(r *catalog.RangeType) string {
	sql := fmt.Sprintf("CREATE TYPE %s AS RANGE (SUBTYPE = %s", pgquote.QualifiedName(r.Schema, r.Name), r.Subtype)
	if r.SubtypeOpclass != "" {
		sql += ", SUBTYPE_OPCLASS = " + r.SubtypeOpclass
	}
	if r.Canonical != "" {
		sql += ", CANONICAL = " + r.Canonical
	}
	if r.DiffFunction != "" {
		sql += ", SUBTYPE_DIFF = " + r.DiffFunction
	}
	return sql + ")"
}

// diffRanges: every field but Owner/Comment is non-alterable (spec §4.3),
// since a range type's subtype and its support functions are fixed at
// creation.
func diffRanges(ctx *DiffContext, main, branch map[string]*catalog.RangeType) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		r := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindRange, change.ScopeObject, id).
			WithSQL(createRangeSQL(r)).WithCreates(id).WithRequires("schema:"+r.Schema, "role:"+r.Owner))
		if r.Comment != "" {
			out = append(out, DiffComment(catalog.KindRange, id, rangeClause(r.Schema, r.Name), "", r.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		r := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindRange, change.ScopeObject, id).
			WithSQL("DROP TYPE "+pgquote.QualifiedName(r.Schema, r.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := rangeClause(m.Schema, m.Name)

		if m.Subtype != b.Subtype || m.Canonical != b.Canonical || m.DiffFunction != b.DiffFunction || m.SubtypeOpclass != b.SubtypeOpclass {
			out = append(out, change.New(change.OpDrop, catalog.KindRange, change.ScopeObject, id).
				WithSQL("DROP TYPE "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindRange, change.ScopeObject, id).
				WithSQL(createRangeSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner))
			continue
		}

		if oc := DiffOwnership(catalog.KindRange, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindRange, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
	}

	return out
}

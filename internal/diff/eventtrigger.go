package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func eventTriggerClause(name string) string { return "EVENT TRIGGER " + pgquote.Ident(name) }

func createEventTriggerSQL(e *catalog.EventTrigger) string {
	sql := fmt.Sprintf("CREATE EVENT TRIGGER %s ON %s", pgquote.Ident(e.Name), e.Event)
	if len(e.Tags) > 0 {
		var tags []string
		for _, t := range e.Tags {
			tags = append(tags, pgquote.Literal(t))
		}
		sql += " WHEN TAG IN (" + strings.Join(tags, ", ") + ")"
	}
	return sql + fmt.Sprintf(" EXECUTE FUNCTION %s()", pgquote.QualifiedName(e.FunctionSchema, e.FunctionName))
}

func eventTriggerEnableSQL(e *catalog.EventTrigger) string {
	action := map[string]string{"O": "ENABLE", "D": "DISABLE", "R": "ENABLE REPLICA", "A": "ENABLE ALWAYS"}[e.Enabled]
	if action == "" {
		action = "ENABLE"
	}
	return fmt.Sprintf("ALTER EVENT TRIGGER %s %s", pgquote.Ident(e.Name), action)
}

func diffEventTriggers(ctx *DiffContext, main, branch map[string]*catalog.EventTrigger) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		e := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindEventTrigger, change.ScopeObject, id).
			WithSQL(createEventTriggerSQL(e)).WithCreates(id).
			WithRequires("procedure:"+e.FunctionSchema+"."+e.FunctionName+"()"))
		if e.Enabled != "O" {
			out = append(out, change.New(change.OpAlter, catalog.KindEventTrigger, change.ScopeObject, id).
				WithSQL(eventTriggerEnableSQL(e)).WithRequires(id))
		}
		if e.Comment != "" {
			out = append(out, DiffComment(catalog.KindEventTrigger, id, eventTriggerClause(e.Name), "", e.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		e := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindEventTrigger, change.ScopeObject, id).
			WithSQL("DROP EVENT TRIGGER "+pgquote.Ident(e.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := eventTriggerClause(m.Name)

		if m.Event != b.Event || m.FunctionSchema != b.FunctionSchema || m.FunctionName != b.FunctionName || !catalog.EqualStringSets(m.Tags, b.Tags) {
			out = append(out, change.New(change.OpDrop, catalog.KindEventTrigger, change.ScopeObject, id).
				WithSQL("DROP EVENT TRIGGER "+pgquote.Ident(m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindEventTrigger, change.ScopeObject, id).
				WithSQL(createEventTriggerSQL(b)).WithCreates(id).
				WithRequires("procedure:"+b.FunctionSchema+"."+b.FunctionName+"()"))
			continue
		}

		if m.Enabled != b.Enabled {
			out = append(out, change.New(change.OpAlter, catalog.KindEventTrigger, change.ScopeObject, id).
				WithSQL(eventTriggerEnableSQL(b)).WithChangedField("enabled").WithRequires(id))
		}

		if oc := DiffOwnership(catalog.KindEventTrigger, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindEventTrigger, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
	}

	return out
}

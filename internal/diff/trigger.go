package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func triggerClause(t *catalog.Trigger) string {
	return fmt.Sprintf("TRIGGER %s ON %s", pgquote.Ident(t.Name), pgquote.QualifiedName(t.Schema, t.TableName))
}

// resolveUpdateColumns turns Trigger.UpdateColumnNumbers (raw attnums) into
// an "UPDATE OF col1, col2" clause fragment, the column-number-to-name
// resolution spec §4.2 requires via a TableLike capability — here, a
// direct lookup against the owning Table in the same catalog snapshot.
// Failure to resolve is fatal (spec §4.2, §7): an UPDATE OF trigger whose
// owning table or attnum can't be found degrades silently into an
// unqualified UPDATE trigger otherwise, which fires on the wrong columns.
func resolveUpdateColumns(cat *catalog.Catalog, t *catalog.Trigger) (string, error) {
	if len(t.UpdateColumnNumbers) == 0 {
		return "", nil
	}
	table := cat.Tables["table:"+t.Schema+"."+t.TableName]
	if table == nil {
		return "", &pgerr.DiffInvariantError{
			StableIDs: []string{"trigger:" + t.Schema + "." + t.TableName + "." + t.Name, "table:" + t.Schema + "." + t.TableName},
			Reason:    "trigger column number not resolvable: owning table not found",
		}
	}
	byAttnum := map[int]string{}
	for i, c := range table.Columns {
		byAttnum[i+1] = c.Name
	}
	var names []string
	for _, n := range t.UpdateColumnNumbers {
		name, ok := byAttnum[n]
		if !ok {
			return "", &pgerr.DiffInvariantError{
				StableIDs: []string{"trigger:" + t.Schema + "." + t.TableName + "." + t.Name, "table:" + t.Schema + "." + t.TableName},
				Reason:    "trigger column number not resolvable: unknown attnum",
			}
		}
		names = append(names, name)
	}
	return " OF " + strings.Join(pgquote.Idents(names), ", "), nil
}

func createTriggerSQL(cat *catalog.Catalog, t *catalog.Trigger) (string, error) {
	var events []string
	for _, e := range t.Events {
		if e == "UPDATE" {
			updateOf, err := resolveUpdateColumns(cat, t)
			if err != nil {
				return "", err
			}
			events = append(events, "UPDATE"+updateOf)
			continue
		}
		events = append(events, e)
	}
	sql := fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s",
		pgquote.Ident(t.Name), t.Timing, strings.Join(events, " OR "), pgquote.QualifiedName(t.Schema, t.TableName))
	if t.WhenExpression != "" {
		sql += fmt.Sprintf(" WHEN (%s)", t.WhenExpression)
	}
	sql += fmt.Sprintf(" FOR EACH %s", t.Level)
	args := ""
	if len(t.Arguments) > 0 {
		quoted := make([]string, len(t.Arguments))
		for i, a := range t.Arguments {
			quoted[i] = pgquote.Literal(a)
		}
		args = strings.Join(quoted, ", ")
	}
	sql += fmt.Sprintf(" EXECUTE FUNCTION %s(%s)", pgquote.QualifiedName(t.FunctionSchema, t.FunctionName), args)
	return sql, nil
}

// diffTriggers takes full catalogs rather than just the Triggers maps
// because resolving UPDATE OF column numbers needs the owning table. An
// error here is always a pgerr.DiffInvariantError from createTriggerSQL's
// column resolution and aborts the whole diff (spec §4.2, §7).
func diffTriggers(ctx *DiffContext, main, branch *catalog.Catalog) ([]*change.Change, error) {
	var out []*change.Change

	for _, id := range added(main.Triggers, branch.Triggers) {
		t := branch.Triggers[id]
		sql, err := createTriggerSQL(branch, t)
		if err != nil {
			return nil, err
		}
		out = append(out, change.New(change.OpCreate, catalog.KindTrigger, change.ScopeObject, id).
			WithSQL(sql).WithCreates(id).
			WithRequires("table:"+t.Schema+"."+t.TableName, "procedure:"+t.FunctionSchema+"."+t.FunctionName+"()"))
		if t.Comment != "" {
			out = append(out, DiffComment(catalog.KindTrigger, id, triggerClause(t), "", t.Comment))
		}
	}

	for _, id := range removed(main.Triggers, branch.Triggers) {
		t := main.Triggers[id]
		out = append(out, change.New(change.OpDrop, catalog.KindTrigger, change.ScopeObject, id).
			WithSQL(fmt.Sprintf("DROP TRIGGER %s ON %s", pgquote.Ident(t.Name), pgquote.QualifiedName(t.Schema, t.TableName))).
			WithDrops(id))
	}

	for _, id := range common(main.Triggers, branch.Triggers) {
		m, b := main.Triggers[id], branch.Triggers[id]

		// Non-alterable except Name (spec §4.3: "Trigger | — | all (emit
		// drop+create)") — there is no meaningful ALTER TRIGGER besides
		// renaming and enable/disable, which this model doesn't track
		// separately, so any data_fields difference replaces.
		if m.Timing != b.Timing || !catalog.EqualStringSets(m.Events, b.Events) ||
			!equalIntSlices(m.UpdateColumnNumbers, b.UpdateColumnNumbers) || m.Level != b.Level ||
			m.WhenExpression != b.WhenExpression || m.FunctionSchema != b.FunctionSchema ||
			m.FunctionName != b.FunctionName || !catalog.EqualStringSlices(m.Arguments, b.Arguments) {
			sql, err := createTriggerSQL(branch, b)
			if err != nil {
				return nil, err
			}
			out = append(out, change.New(change.OpDrop, catalog.KindTrigger, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("DROP TRIGGER %s ON %s", pgquote.Ident(m.Name), pgquote.QualifiedName(m.Schema, m.TableName))).
				WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindTrigger, change.ScopeObject, id).
				WithSQL(sql).WithCreates(id).
				WithRequires("table:"+b.Schema+"."+b.TableName, "procedure:"+b.FunctionSchema+"."+b.FunctionName+"()"))
			continue
		}

		if cc := DiffComment(catalog.KindTrigger, id, triggerClause(m), m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
	}

	return out, nil
}

func equalIntSlices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func publicationClause(name string) string { return "PUBLICATION " + pgquote.Ident(name) }

func createPublicationSQL(p *catalog.Publication) string {
	sql := "CREATE PUBLICATION " + pgquote.Ident(p.Name)
	switch {
	case p.ForAllTables:
		sql += " FOR ALL TABLES"
	case len(p.Tables) > 0:
		sql += " FOR TABLE " + strings.Join(p.Tables, ", ")
	case len(p.Schemas) > 0:
		sql += " FOR TABLES IN SCHEMA " + strings.Join(pgquote.Idents(p.Schemas), ", ")
	}
	sql += " WITH (" + publishOptions(p) + ")"
	return sql
}

func publishOptions(p *catalog.Publication) string {
	opts := []string{
		"publish = '" + publishList(p) + "'",
	}
	if p.PublishViaRoot {
		opts = append(opts, "publish_via_partition_root = true")
	}
	return strings.Join(opts, ", ")
}

func publishList(p *catalog.Publication) string {
	var actions []string
	if p.PublishInsert {
		actions = append(actions, "insert")
	}
	if p.PublishUpdate {
		actions = append(actions, "update")
	}
	if p.PublishDelete {
		actions = append(actions, "delete")
	}
	if p.PublishTruncate {
		actions = append(actions, "truncate")
	}
	return strings.Join(actions, ", ")
}

func diffPublications(ctx *DiffContext, main, branch map[string]*catalog.Publication) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		p := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindPublication, change.ScopeObject, id).
			WithSQL(createPublicationSQL(p)).WithCreates(id).WithRequires("role:"+p.Owner))
		if p.Comment != "" {
			out = append(out, DiffComment(catalog.KindPublication, id, publicationClause(p.Name), "", p.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		p := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindPublication, change.ScopeObject, id).
			WithSQL("DROP PUBLICATION "+pgquote.Ident(p.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := publicationClause(m.Name)

		if m.ForAllTables != b.ForAllTables {
			// Switching between FOR ALL TABLES and an explicit list has
			// no ALTER form (spec §4.3): replace.
			out = append(out, change.New(change.OpDrop, catalog.KindPublication, change.ScopeObject, id).
				WithSQL("DROP PUBLICATION "+pgquote.Ident(m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindPublication, change.ScopeObject, id).
				WithSQL(createPublicationSQL(b)).WithCreates(id).WithRequires("role:"+b.Owner))
			continue
		}

		if !b.ForAllTables {
			for _, t := range b.Tables {
				if !contains(m.Tables, t) {
					out = append(out, change.New(change.OpAlter, catalog.KindPublication, change.ScopeObject, id).
						WithSQL(fmt.Sprintf("ALTER PUBLICATION %s ADD TABLE %s", pgquote.Ident(m.Name), t)).
						WithChangedField("tables").WithRequires(id))
				}
			}
			for _, t := range m.Tables {
				if !contains(b.Tables, t) {
					out = append(out, change.New(change.OpAlter, catalog.KindPublication, change.ScopeObject, id).
						WithSQL(fmt.Sprintf("ALTER PUBLICATION %s DROP TABLE %s", pgquote.Ident(m.Name), t)).
						WithChangedField("tables").WithRequires(id))
				}
			}
			for _, s := range b.Schemas {
				if !contains(m.Schemas, s) {
					out = append(out, change.New(change.OpAlter, catalog.KindPublication, change.ScopeObject, id).
						WithSQL(fmt.Sprintf("ALTER PUBLICATION %s ADD TABLES IN SCHEMA %s", pgquote.Ident(m.Name), pgquote.Ident(s))).
						WithChangedField("schemas").WithRequires(id))
				}
			}
			for _, s := range m.Schemas {
				if !contains(b.Schemas, s) {
					out = append(out, change.New(change.OpAlter, catalog.KindPublication, change.ScopeObject, id).
						WithSQL(fmt.Sprintf("ALTER PUBLICATION %s DROP TABLES IN SCHEMA %s", pgquote.Ident(m.Name), pgquote.Ident(s))).
						WithChangedField("schemas").WithRequires(id))
				}
			}
		}

		if m.PublishInsert != b.PublishInsert || m.PublishUpdate != b.PublishUpdate ||
			m.PublishDelete != b.PublishDelete || m.PublishTruncate != b.PublishTruncate || m.PublishViaRoot != b.PublishViaRoot {
			out = append(out, change.New(change.OpAlter, catalog.KindPublication, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER PUBLICATION %s SET (%s)", pgquote.Ident(m.Name), publishOptions(b))).
				WithChangedField("publish_flags").WithRequires(id))
		}

		if oc := DiffOwnership(catalog.KindPublication, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindPublication, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
	}

	return out
}

func contains(items []string, target string) bool {
	for _, i := range items {
		if i == target {
			return true
		}
	}
	return false
}

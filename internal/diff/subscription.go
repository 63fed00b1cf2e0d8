package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func subscriptionClause(name string) string { return "SUBSCRIPTION " + pgquote.Ident(name) }

func createSubscriptionSQL(s *catalog.Subscription) string {
	sql := fmt.Sprintf("CREATE SUBSCRIPTION %s CONNECTION %s PUBLICATION %s",
		pgquote.Ident(s.Name), pgquote.Literal(s.ConnectionInfo), strings.Join(s.Publications, ", "))
	opts := []string{fmt.Sprintf("slot_name = %s", pgquote.Literal(s.SlotName))}
	if !s.Enabled {
		opts = append(opts, "enabled = false")
	}
	if s.SyncCommit != "" {
		opts = append(opts, fmt.Sprintf("synchronous_commit = %s", pgquote.Literal(s.SyncCommit)))
	}
	return sql + " WITH (" + strings.Join(opts, ", ") + ")"
}

// diffSubscriptions marks conninfo transitions via SensitiveValues/
// ChangedFields so the integration layer can apply spec §4.5's filter
// (drop a conninfo-only change) and serializer (mask conninfo when mixed
// with other changes) without this differ knowing about either policy.
func diffSubscriptions(ctx *DiffContext, main, branch map[string]*catalog.Subscription) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		s := branch[id]
		c := change.New(change.OpCreate, catalog.KindSubscription, change.ScopeObject, id).
			WithSQL(createSubscriptionSQL(s)).WithCreates(id).
			WithSensitiveValue("conninfo", s.ConnectionInfo)
		out = append(out, c)
		if s.Comment != "" {
			out = append(out, DiffComment(catalog.KindSubscription, id, subscriptionClause(s.Name), "", s.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		s := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindSubscription, change.ScopeObject, id).
			WithSQL("DROP SUBSCRIPTION "+pgquote.Ident(s.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := subscriptionClause(m.Name)

		if m.ConnectionInfo != b.ConnectionInfo {
			out = append(out, change.New(change.OpAlter, catalog.KindSubscription, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER SUBSCRIPTION %s CONNECTION %s", pgquote.Ident(m.Name), pgquote.Literal(b.ConnectionInfo))).
				WithRequires(id).WithSensitiveValue("conninfo", b.ConnectionInfo))
		}

		if !catalog.EqualStringSlices(m.Publications, b.Publications) {
			out = append(out, change.New(change.OpAlter, catalog.KindSubscription, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER SUBSCRIPTION %s SET PUBLICATION %s", pgquote.Ident(m.Name), strings.Join(b.Publications, ", "))).
				WithChangedField("publications").WithRequires(id))
		}

		var opts []string
		var changed []string
		if m.Enabled != b.Enabled {
			opts = append(opts, fmt.Sprintf("enabled = %t", b.Enabled))
			changed = append(changed, "enabled")
		}
		if m.SyncCommit != b.SyncCommit {
			opts = append(opts, fmt.Sprintf("synchronous_commit = %s", pgquote.Literal(b.SyncCommit)))
			changed = append(changed, "sync_commit")
		}
		if len(opts) > 0 {
			c := change.New(change.OpAlter, catalog.KindSubscription, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER SUBSCRIPTION %s SET (%s)", pgquote.Ident(m.Name), strings.Join(opts, ", "))).
				WithRequires(id)
			for _, f := range changed {
				c.WithChangedField(f)
			}
			out = append(out, c)
		}

		if m.SlotName != b.SlotName {
			out = append(out, change.New(change.OpAlter, catalog.KindSubscription, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER SUBSCRIPTION %s SET (slot_name = %s)", pgquote.Ident(m.Name), pgquote.Literal(b.SlotName))).
				WithChangedField("slot_name").WithRequires(id))
		}

		if oc := DiffOwnership(catalog.KindSubscription, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindSubscription, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
	}

	return out
}

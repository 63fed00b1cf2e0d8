package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func grantRoleSQL(m *catalog.Membership) string {
	sql := fmt.Sprintf("GRANT %s TO %s", pgquote.Ident(m.Role), pgquote.Ident(m.Member))
	var withOpts []string
	if m.AdminOption {
		withOpts = append(withOpts, "ADMIN OPTION")
	}
	if !m.InheritOption {
		withOpts = append(withOpts, "INHERIT FALSE")
	}
	if m.SetOption {
		withOpts = append(withOpts, "SET TRUE")
	}
	if len(withOpts) > 0 {
		sql += " WITH "
		for i, w := range withOpts {
			if i > 0 {
				sql += ", "
			}
			sql += w
		}
	}
	if m.GrantedBy != "" {
		sql += " GRANTED BY " + pgquote.Ident(m.GrantedBy)
	}
	return sql
}

func diffMemberships(ctx *DiffContext, main, branch map[string]*catalog.Membership) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		m := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindMembership, change.ScopeObject, id).
			WithSQL(grantRoleSQL(m)).WithCreates(id).WithRequires("role:"+m.Role, "role:"+m.Member))
	}

	for _, id := range removed(main, branch) {
		m := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindMembership, change.ScopeObject, id).
			WithSQL(fmt.Sprintf("REVOKE %s FROM %s", pgquote.Ident(m.Role), pgquote.Ident(m.Member))).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		if m.AdminOption == b.AdminOption && m.InheritOption == b.InheritOption && m.SetOption == b.SetOption {
			continue
		}
		var opts []string
		if m.AdminOption != b.AdminOption {
			opts = append(opts, fmt.Sprintf("ADMIN %t", b.AdminOption))
		}
		if m.InheritOption != b.InheritOption {
			opts = append(opts, fmt.Sprintf("INHERIT %t", b.InheritOption))
		}
		if m.SetOption != b.SetOption {
			opts = append(opts, fmt.Sprintf("SET %t", b.SetOption))
		}
		sql := fmt.Sprintf("GRANT %s TO %s WITH ", pgquote.Ident(m.Role), pgquote.Ident(m.Member))
		for i, o := range opts {
			if i > 0 {
				sql += ", "
			}
			sql += o
		}
		out = append(out, change.New(change.OpAlter, catalog.KindMembership, change.ScopeObject, id).
			WithSQL(sql).WithChangedField("options").WithRequires(id))
	}

	return out
}

package diff

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

var defaultPrivilegeObjectWord = map[string]string{
	"r": "TABLES", "S": "SEQUENCES", "f": "FUNCTIONS", "T": "TYPES", "n": "SCHEMAS",
}

func defaultPrivilegePrefix(d *catalog.DefaultPrivilege) string {
	sql := "ALTER DEFAULT PRIVILEGES FOR ROLE " + pgquote.Ident(d.Grantor)
	if d.Schema != "" {
		sql += " IN SCHEMA " + pgquote.Ident(d.Schema)
	}
	return sql
}

func diffDefaultPrivileges(ctx *DiffContext, main, branch map[string]*catalog.DefaultPrivilege) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		d := branch[id]
		deltas := DiffPrivilegeDeltas(ctx, "", nil, d.Privileges)
		for _, delta := range deltas {
			sql := fmt.Sprintf("%s GRANT %s ON %s TO %s", defaultPrivilegePrefix(d), delta.Privilege,
				defaultPrivilegeObjectWord[d.ObjectType], pgquote.Ident(delta.Grantee))
			if delta.Action == PrivGrantOption {
				sql += " WITH GRANT OPTION"
			}
			out = append(out, change.New(change.OpCreate, catalog.KindDefaultPrivilege, change.ScopeObject, id).
				WithSQL(sql).WithCreates(id).WithRequires("role:"+d.Grantor, "role:"+delta.Grantee))
		}
	}

	for _, id := range removed(main, branch) {
		d := main[id]
		deltas := DiffPrivilegeDeltas(ctx, "", d.Privileges, nil)
		for _, delta := range deltas {
			sql := fmt.Sprintf("%s REVOKE %s ON %s FROM %s", defaultPrivilegePrefix(d), delta.Privilege,
				defaultPrivilegeObjectWord[d.ObjectType], pgquote.Ident(delta.Grantee))
			out = append(out, change.New(change.OpDrop, catalog.KindDefaultPrivilege, change.ScopeObject, id).
				WithSQL(sql).WithDrops(id))
		}
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		deltas := DiffPrivilegeDeltas(ctx, "", m.Privileges, b.Privileges)
		for _, delta := range deltas {
			var sql string
			op := change.OpAlter
			switch delta.Action {
			case PrivGrant:
				op = change.OpCreate
				sql = fmt.Sprintf("%s GRANT %s ON %s TO %s", defaultPrivilegePrefix(b), delta.Privilege,
					defaultPrivilegeObjectWord[b.ObjectType], pgquote.Ident(delta.Grantee))
			case PrivGrantOption:
				op = change.OpCreate
				sql = fmt.Sprintf("%s GRANT %s ON %s TO %s WITH GRANT OPTION", defaultPrivilegePrefix(b), delta.Privilege,
					defaultPrivilegeObjectWord[b.ObjectType], pgquote.Ident(delta.Grantee))
			case PrivRevokeGrantOption:
				sql = fmt.Sprintf("%s REVOKE GRANT OPTION FOR %s ON %s FROM %s", defaultPrivilegePrefix(b), delta.Privilege,
					defaultPrivilegeObjectWord[b.ObjectType], pgquote.Ident(delta.Grantee))
			case PrivRevoke:
				op = change.OpDrop
				sql = fmt.Sprintf("%s REVOKE %s ON %s FROM %s", defaultPrivilegePrefix(b), delta.Privilege,
					defaultPrivilegeObjectWord[b.ObjectType], pgquote.Ident(delta.Grantee))
			}
			out = append(out, change.New(op, catalog.KindDefaultPrivilege, change.ScopePrivilege, id).
				WithSQL(sql).WithRequires(id, "role:"+delta.Grantee))
		}
	}

	return out
}

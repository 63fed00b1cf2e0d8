package diff

import (
	"fmt"
	"sort"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

// PrivilegeAction is one of the three-state privilege transitions spec
// §4.1 describes: a privilege is granted, granted with the grant option,
// revoked outright, or only has its grant option revoked while the base
// privilege stays in force.
type PrivilegeAction string

const (
	PrivGrant             PrivilegeAction = "grant"
	PrivGrantOption       PrivilegeAction = "grant_with_option"
	PrivRevoke            PrivilegeAction = "revoke"
	PrivRevokeGrantOption PrivilegeAction = "revoke_grant_option"
)

// PrivilegeDelta is one grantee/privilege transition produced by
// DiffPrivilegeDeltas.
type PrivilegeDelta struct {
	Grantee   string
	Privilege string
	Action    PrivilegeAction
}

// DiffPrivilegeDeltas compares a main and branch privilege list for a
// single object and returns every transition needed to reach branch's
// state, implementing spec §4.1's three-state grant model. Two distinct
// filtering rules run before any row reaches the diff: rows whose grantee
// is owner are dropped, since PostgreSQL implicitly grants every privilege
// to an object's owner and that grant never appears as an explicit GRANT
// in the source that produced the catalog snapshot; and rows whose
// grantee is a known superuser are dropped too, independently, since a
// superuser's access doesn't depend on owning the object and an explicit
// GRANT to one reflects environment setup rather than a schema decision
// (spec §4.1's superuser-grantee filtering rule). Neither rule implies the
// other: a superuser need not own the object, and an owner need not be a
// superuser.
func DiffPrivilegeDeltas(ctx *DiffContext, owner string, main, branch []catalog.Privilege) []PrivilegeDelta {
	mainByKey := privilegeIndex(ctx, owner, main)
	branchByKey := privilegeIndex(ctx, owner, branch)

	var deltas []PrivilegeDelta
	for key, bp := range branchByKey {
		mp, ok := mainByKey[key]
		switch {
		case !ok:
			action := PrivGrant
			if bp.Grantable {
				action = PrivGrantOption
			}
			deltas = append(deltas, PrivilegeDelta{Grantee: bp.Grantee, Privilege: bp.Privilege, Action: action})
		case bp.Grantable && !mp.Grantable:
			deltas = append(deltas, PrivilegeDelta{Grantee: bp.Grantee, Privilege: bp.Privilege, Action: PrivGrantOption})
		case mp.Grantable && !bp.Grantable:
			deltas = append(deltas, PrivilegeDelta{Grantee: bp.Grantee, Privilege: bp.Privilege, Action: PrivRevokeGrantOption})
		}
	}
	for key, mp := range mainByKey {
		if _, ok := branchByKey[key]; !ok {
			deltas = append(deltas, PrivilegeDelta{Grantee: mp.Grantee, Privilege: mp.Privilege, Action: PrivRevoke})
		}
	}
	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].Grantee != deltas[j].Grantee {
			return deltas[i].Grantee < deltas[j].Grantee
		}
		return deltas[i].Privilege < deltas[j].Privilege
	})
	return deltas
}

func privilegeIndex(ctx *DiffContext, owner string, privs []catalog.Privilege) map[string]catalog.Privilege {
	out := make(map[string]catalog.Privilege, len(privs))
	for _, p := range privs {
		if p.Grantee == owner || ctx.IsSuperuser(p.Grantee) {
			continue
		}
		out[p.Grantee+"\x00"+p.Privilege] = p
	}
	return out
}

// RenderPrivilegeChanges turns a slice of PrivilegeDelta into Changes
// scoped to ScopePrivilege, each `requires` the owning object's stable id
// and `requires` a role:<grantee> entry so a grant can never be ordered
// ahead of the role it names (spec §4.4 rule 1's producer/consumer edges
// apply to privileges exactly as to objects).
func RenderPrivilegeChanges(ctx *DiffContext, kind catalog.ObjectKind, objStableID, objectClause string, deltas []PrivilegeDelta) []*change.Change {
	out := make([]*change.Change, 0, len(deltas))
	for _, d := range deltas {
		grantee := pgquote.Ident(d.Grantee)
		if d.Grantee == "public" || d.Grantee == "PUBLIC" {
			grantee = "PUBLIC"
		}

		var op change.Operation
		var sql string
		switch d.Action {
		case PrivGrant:
			op = change.OpCreate
			sql = fmt.Sprintf("GRANT %s ON %s TO %s", d.Privilege, objectClause, grantee)
		case PrivGrantOption:
			op = change.OpCreate
			sql = fmt.Sprintf("GRANT %s ON %s TO %s WITH GRANT OPTION", d.Privilege, objectClause, grantee)
		case PrivRevokeGrantOption:
			op = change.OpAlter
			sql = revokeGrantOptionSQL(ctx, objectClause, d.Privilege, grantee)
		case PrivRevoke:
			op = change.OpDrop
			sql = fmt.Sprintf("REVOKE %s ON %s FROM %s", d.Privilege, objectClause, grantee)
		}

		c := change.New(op, kind, change.ScopePrivilege, objStableID).WithSQL(sql).WithRequires(objStableID)
		if d.Grantee != "public" && d.Grantee != "PUBLIC" {
			c.WithRequires("role:" + d.Grantee)
		}
		out = append(out, c)
	}
	return out
}

// revokeGrantOptionSQL implements Open Question decision 2 in DESIGN.md:
// PostgreSQL 15 made dependent-privilege cleanup from a GRANT OPTION
// revoke explicit, so emit CASCADE unconditionally from 15 onward and omit
// it (defaulting to RESTRICT) on older servers where it was rarely used in
// practice and this tool prefers to match historical migration scripts.
// A zero (unset) version, or a nil ctx, gets the 15+ form.
func revokeGrantOptionSQL(ctx *DiffContext, objectClause, priv, grantee string) string {
	if ctx == nil || ctx.PGMajorVersion == 0 || ctx.PGMajorVersion >= 15 {
		return fmt.Sprintf("REVOKE GRANT OPTION FOR %s ON %s FROM %s CASCADE", priv, objectClause, grantee)
	}
	return fmt.Sprintf("REVOKE GRANT OPTION FOR %s ON %s FROM %s", priv, objectClause, grantee)
}

// DiffOwnership returns an ALTER ... OWNER TO change when owners differ, or
// nil otherwise (spec §4.1's ownership scope).
func DiffOwnership(kind catalog.ObjectKind, stableID, objectClause, mainOwner, branchOwner string) *change.Change {
	if mainOwner == branchOwner {
		return nil
	}
	sql := fmt.Sprintf("ALTER %s OWNER TO %s", objectClause, pgquote.Ident(branchOwner))
	return change.New(change.OpAlter, kind, change.ScopeOwnership, stableID).
		WithSQL(sql).
		WithRequires(stableID, "role:"+branchOwner)
}

// DiffComment returns a COMMENT ON change when comments differ, or nil
// otherwise (spec §4.1's comment scope). An empty branch comment emits
// `COMMENT ON ... IS NULL`.
func DiffComment(kind catalog.ObjectKind, stableID, objectClause, mainComment, branchComment string) *change.Change {
	if mainComment == branchComment {
		return nil
	}
	var sql string
	if branchComment == "" {
		sql = fmt.Sprintf("COMMENT ON %s IS NULL", objectClause)
	} else {
		sql = fmt.Sprintf("COMMENT ON %s IS %s", objectClause, pgquote.Literal(branchComment))
	}
	return change.New(change.OpAlter, kind, change.ScopeComment, stableID).WithSQL(sql).WithRequires(stableID)
}

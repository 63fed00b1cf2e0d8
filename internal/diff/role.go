package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func roleOptionClauses(r *catalog.Role) []string {
	opts := []string{boolOption(r.Superuser, "SUPERUSER", "NOSUPERUSER")}
	opts = append(opts, boolOption(r.CreateDB, "CREATEDB", "NOCREATEDB"))
	opts = append(opts, boolOption(r.CreateRole, "CREATEROLE", "NOCREATEROLE"))
	opts = append(opts, boolOption(r.Inherit, "INHERIT", "NOINHERIT"))
	opts = append(opts, boolOption(r.Login, "LOGIN", "NOLOGIN"))
	opts = append(opts, boolOption(r.Replication, "REPLICATION", "NOREPLICATION"))
	opts = append(opts, boolOption(r.BypassRLS, "BYPASSRLS", "NOBYPASSRLS"))
	opts = append(opts, fmt.Sprintf("CONNECTION LIMIT %d", r.ConnectionLimit))
	return opts
}

func boolOption(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

func diffRoles(ctx *DiffContext, main, branch map[string]*catalog.Role) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		r := branch[id]
		clauses := append([]string{"CREATE ROLE " + pgquote.Ident(r.Name)}, roleOptionClauses(r)...)
		if r.Password != nil {
			clauses = append(clauses, "PASSWORD "+pgquote.Literal(*r.Password))
		}
		if r.ValidUntil != nil {
			clauses = append(clauses, "VALID UNTIL "+pgquote.Literal(*r.ValidUntil))
		}
		c := change.New(change.OpCreate, catalog.KindRole, change.ScopeObject, id).
			WithSQL(strings.Join(clauses, " ")).WithCreates(id)
		if r.Password != nil {
			c.WithSensitiveValue("password", *r.Password)
		}
		out = append(out, c)
		if r.Comment != "" {
			out = append(out, DiffComment(catalog.KindRole, id, "ROLE "+pgquote.Ident(r.Name), "", r.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		r := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindRole, change.ScopeObject, id).
			WithSQL("DROP ROLE "+pgquote.Ident(r.Name)).WithDrops(id))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := "ROLE " + pgquote.Ident(m.Name)

		var changed []string
		var clauses []string
		if m.Superuser != b.Superuser {
			changed = append(changed, "superuser")
			clauses = append(clauses, boolOption(b.Superuser, "SUPERUSER", "NOSUPERUSER"))
		}
		if m.CreateDB != b.CreateDB {
			changed = append(changed, "createdb")
			clauses = append(clauses, boolOption(b.CreateDB, "CREATEDB", "NOCREATEDB"))
		}
		if m.CreateRole != b.CreateRole {
			changed = append(changed, "createrole")
			clauses = append(clauses, boolOption(b.CreateRole, "CREATEROLE", "NOCREATEROLE"))
		}
		if m.Inherit != b.Inherit {
			changed = append(changed, "inherit")
			clauses = append(clauses, boolOption(b.Inherit, "INHERIT", "NOINHERIT"))
		}
		if m.Login != b.Login {
			changed = append(changed, "login")
			clauses = append(clauses, boolOption(b.Login, "LOGIN", "NOLOGIN"))
		}
		if m.Replication != b.Replication {
			changed = append(changed, "replication")
			clauses = append(clauses, boolOption(b.Replication, "REPLICATION", "NOREPLICATION"))
		}
		if m.BypassRLS != b.BypassRLS {
			changed = append(changed, "bypassrls")
			clauses = append(clauses, boolOption(b.BypassRLS, "BYPASSRLS", "NOBYPASSRLS"))
		}
		if m.ConnectionLimit != b.ConnectionLimit {
			changed = append(changed, "connection_limit")
			clauses = append(clauses, fmt.Sprintf("CONNECTION LIMIT %d", b.ConnectionLimit))
		}

		if !strPtrEqual(m.ValidUntil, b.ValidUntil) {
			changed = append(changed, "valid_until")
			if b.ValidUntil != nil {
				clauses = append(clauses, "VALID UNTIL "+pgquote.Literal(*b.ValidUntil))
			} else {
				clauses = append(clauses, "VALID UNTIL 'infinity'")
			}
		}

		if len(clauses) > 0 {
			c := change.New(change.OpAlter, catalog.KindRole, change.ScopeObject, id).
				WithSQL("ALTER ROLE "+pgquote.Ident(m.Name)+" "+strings.Join(clauses, " ")).
				WithRequires(id)
			for _, f := range changed {
				c.WithChangedField(f)
			}
			out = append(out, c)
		}

		// Password is env-dependent (spec §4.5) and is always emitted as
		// its own change, never folded into the durable-field ALTER ROLE
		// above, so the integration filter can drop or mask it without
		// touching unrelated clauses.
		if !strPtrEqual(m.Password, b.Password) {
			pc := change.New(change.OpAlter, catalog.KindRole, change.ScopeObject, id).WithRequires(id).
				WithChangedField("password")
			if b.Password != nil {
				pc.WithSQL("ALTER ROLE " + pgquote.Ident(m.Name) + " PASSWORD " + pgquote.Literal(*b.Password)).
					WithSensitiveValue("password", *b.Password)
			} else {
				pc.WithSQL("ALTER ROLE " + pgquote.Ident(m.Name) + " PASSWORD NULL")
			}
			out = append(out, pc)
		}

		if cm := DiffComment(catalog.KindRole, id, clause, m.Comment, b.Comment); cm != nil {
			out = append(out, cm)
		}
	}

	return out
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

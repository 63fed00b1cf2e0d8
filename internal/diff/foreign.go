package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func optionsClause(opts []catalog.Option) string {
	if len(opts) == 0 {
		return ""
	}
	var parts []string
	for _, o := range opts {
		parts = append(parts, fmt.Sprintf("%s %s", o.Key, pgquote.Literal(o.Value)))
	}
	return " OPTIONS (" + strings.Join(parts, ", ") + ")"
}

func fdwClause(name string) string { return "FOREIGN DATA WRAPPER " + pgquote.Ident(name) }

func createFDWSQL(f *catalog.ForeignDataWrapper) string {
	sql := "CREATE FOREIGN DATA WRAPPER " + pgquote.Ident(f.Name)
	if f.Handler != "" {
		sql += " HANDLER " + f.Handler
	}
	if f.Validator != "" {
		sql += " VALIDATOR " + f.Validator
	}
	return sql + optionsClause(f.Options)
}

func diffFDWs(ctx *DiffContext, main, branch map[string]*catalog.ForeignDataWrapper) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		f := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindForeignDataWrapper, change.ScopeObject, id).
			WithSQL(createFDWSQL(f)).WithCreates(id))
		if f.Comment != "" {
			out = append(out, DiffComment(catalog.KindForeignDataWrapper, id, fdwClause(f.Name), "", f.Comment))
		}
	}
	for _, id := range removed(main, branch) {
		f := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindForeignDataWrapper, change.ScopeObject, id).
			WithSQL("DROP FOREIGN DATA WRAPPER "+pgquote.Ident(f.Name)).WithDrops(id))
	}
	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := fdwClause(m.Name)
		if m.Handler != b.Handler || m.Validator != b.Validator {
			out = append(out, change.New(change.OpDrop, catalog.KindForeignDataWrapper, change.ScopeObject, id).
				WithSQL("DROP FOREIGN DATA WRAPPER "+pgquote.Ident(m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindForeignDataWrapper, change.ScopeObject, id).
				WithSQL(createFDWSQL(b)).WithCreates(id))
			continue
		}
		if !catalog.EqualOptions(m.Options, b.Options) {
			out = append(out, diffOptionsBag(id, catalog.KindForeignDataWrapper,
				"ALTER FOREIGN DATA WRAPPER "+pgquote.Ident(m.Name), m.Options, b.Options)...)
		}
		if oc := DiffOwnership(catalog.KindForeignDataWrapper, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindForeignDataWrapper, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
	}
	return out
}

func serverClause(name string) string { return "SERVER " + pgquote.Ident(name) }

func createServerSQL(s *catalog.Server) string {
	sql := "CREATE SERVER " + pgquote.Ident(s.Name)
	if s.ServerType != "" {
		sql += fmt.Sprintf(" TYPE %s", pgquote.Literal(s.ServerType))
	}
	if s.ServerVersion != "" {
		sql += fmt.Sprintf(" VERSION %s", pgquote.Literal(s.ServerVersion))
	}
	sql += " FOREIGN DATA WRAPPER " + pgquote.Ident(s.ForeignDataWrapper)
	return sql + optionsClause(s.Options)
}

func diffServers(ctx *DiffContext, main, branch map[string]*catalog.Server) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		s := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindServer, change.ScopeObject, id).
			WithSQL(createServerSQL(s)).WithCreates(id).WithRequires("fdw:"+s.ForeignDataWrapper))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindServer, id, serverClause(s.Name),
			DiffPrivilegeDeltas(ctx, s.Owner, nil, s.Privileges))...)
		if s.Comment != "" {
			out = append(out, DiffComment(catalog.KindServer, id, serverClause(s.Name), "", s.Comment))
		}
	}
	for _, id := range removed(main, branch) {
		s := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindServer, change.ScopeObject, id).
			WithSQL("DROP SERVER "+pgquote.Ident(s.Name)).WithDrops(id))
	}
	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := serverClause(m.Name)
		if m.ForeignDataWrapper != b.ForeignDataWrapper || m.ServerType != b.ServerType || m.ServerVersion != b.ServerVersion {
			// "Server type change" forces replace (spec §4.3).
			out = append(out, change.New(change.OpDrop, catalog.KindServer, change.ScopeObject, id).
				WithSQL("DROP SERVER "+pgquote.Ident(m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindServer, change.ScopeObject, id).
				WithSQL(createServerSQL(b)).WithCreates(id).WithRequires("fdw:"+b.ForeignDataWrapper))
			continue
		}
		if !catalog.EqualOptions(m.Options, b.Options) {
			out = append(out, diffOptionsBag(id, catalog.KindServer, "ALTER SERVER "+pgquote.Ident(m.Name), m.Options, b.Options)...)
		}
		if oc := DiffOwnership(catalog.KindServer, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindServer, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindServer, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}
	return out
}

func userMappingClause(serverName, userName string) string {
	return fmt.Sprintf("USER MAPPING FOR %s SERVER %s", pgquote.Ident(userName), pgquote.Ident(serverName))
}

func createUserMappingSQL(u *catalog.UserMapping) string {
	return "CREATE " + userMappingClause(u.ServerName, u.UserName) + optionsClause(u.Options)
}

func diffUserMappings(ctx *DiffContext, main, branch map[string]*catalog.UserMapping) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		u := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindUserMapping, change.ScopeObject, id).
			WithSQL(createUserMappingSQL(u)).WithCreates(id).WithRequires("server:"+u.ServerName).
			WithSensitiveValue("options", optionsClause(u.Options)))
	}
	for _, id := range removed(main, branch) {
		u := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindUserMapping, change.ScopeObject, id).
			WithSQL("DROP "+userMappingClause(u.ServerName, u.UserName)).WithDrops(id))
	}
	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		if !catalog.EqualOptions(m.Options, b.Options) {
			c := diffOptionsBag(id, catalog.KindUserMapping, "ALTER "+userMappingClause(m.ServerName, m.UserName), m.Options, b.Options)
			for _, cc := range c {
				cc.WithSensitiveValue("options", optionsClause(b.Options))
			}
			out = append(out, c...)
		}
	}
	return out
}

func foreignTableClause(schema, name string) string { return "FOREIGN TABLE " + pgquote.QualifiedName(schema, name) }

func createForeignTableSQL(f *catalog.ForeignTable) string {
	var cols []string
	for _, c := range f.Columns {
		cols = append(cols, renderColumnDef(c))
	}
	sql := fmt.Sprintf("CREATE FOREIGN TABLE %s (\n  %s\n) SERVER %s",
		pgquote.QualifiedName(f.Schema, f.Name), strings.Join(cols, ",\n  "), pgquote.Ident(f.ServerName))
	return sql + optionsClause(f.Options)
}

func diffForeignTables(ctx *DiffContext, main, branch map[string]*catalog.ForeignTable) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		f := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindForeignTable, change.ScopeObject, id).
			WithSQL(createForeignTableSQL(f)).WithCreates(id).WithRequires("schema:"+f.Schema, "server:"+f.ServerName, "role:"+f.Owner))
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindForeignTable, id, foreignTableClause(f.Schema, f.Name),
			DiffPrivilegeDeltas(ctx, f.Owner, nil, f.Privileges))...)
		if f.Comment != "" {
			out = append(out, DiffComment(catalog.KindForeignTable, id, foreignTableClause(f.Schema, f.Name), "", f.Comment))
		}
	}
	for _, id := range removed(main, branch) {
		f := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindForeignTable, change.ScopeObject, id).
			WithSQL("DROP FOREIGN TABLE "+pgquote.QualifiedName(f.Schema, f.Name)).WithDrops(id))
	}
	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]
		clause := foreignTableClause(m.Schema, m.Name)

		if m.ServerName != b.ServerName {
			// Changing the backing server forces a replace: the remote
			// wire format for reads usually changes with it.
			out = append(out, change.New(change.OpDrop, catalog.KindForeignTable, change.ScopeObject, id).
				WithSQL("DROP FOREIGN TABLE "+pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id))
			out = append(out, change.New(change.OpCreate, catalog.KindForeignTable, change.ScopeObject, id).
				WithSQL(createForeignTableSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "server:"+b.ServerName, "role:"+b.Owner))
			continue
		}

		mCols := make(map[string]*catalog.Column, len(m.Columns))
		for _, c := range m.Columns {
			mCols[c.Name] = c
		}
		bCols := make(map[string]*catalog.Column, len(b.Columns))
		for _, c := range b.Columns {
			bCols[c.Name] = c
		}
		for _, c := range b.Columns {
			if _, ok := mCols[c.Name]; !ok {
				out = append(out, change.New(change.OpCreate, catalog.KindColumn, change.ScopeObject, id+"."+c.Name).
					WithSQL(fmt.Sprintf("ALTER FOREIGN TABLE %s ADD COLUMN %s", pgquote.QualifiedName(m.Schema, m.Name), renderColumnDef(c))).
					WithRequires(id))
			}
		}
		for _, c := range m.Columns {
			if _, ok := bCols[c.Name]; !ok {
				out = append(out, change.New(change.OpDrop, catalog.KindColumn, change.ScopeObject, id+"."+c.Name).
					WithSQL(fmt.Sprintf("ALTER FOREIGN TABLE %s DROP COLUMN %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(c.Name))).
					WithRequires(id))
			}
		}

		if !catalog.EqualOptions(m.Options, b.Options) {
			out = append(out, diffOptionsBag(id, catalog.KindForeignTable,
				"ALTER FOREIGN TABLE "+pgquote.QualifiedName(m.Schema, m.Name), m.Options, b.Options)...)
		}
		if oc := DiffOwnership(catalog.KindForeignTable, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindForeignTable, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindForeignTable, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}
	return out
}

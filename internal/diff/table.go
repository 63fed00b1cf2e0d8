package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func tableClause(schema, name string) string {
	return "TABLE " + pgquote.QualifiedName(schema, name)
}

func renderColumnDef(c *catalog.Column) string {
	sql := pgquote.Ident(c.Name) + " " + c.DataType
	if c.Collation != "" {
		sql += " COLLATE " + pgquote.Ident(c.Collation)
	}
	if c.GeneratedExpr != nil {
		sql += fmt.Sprintf(" GENERATED ALWAYS AS (%s) STORED", *c.GeneratedExpr)
	}
	if c.NotNull {
		sql += " NOT NULL"
	}
	if c.Default != nil {
		sql += " DEFAULT " + *c.Default
	}
	if c.Identity != nil {
		kind := "BY DEFAULT"
		if c.Identity.Always {
			kind = "ALWAYS"
		}
		sql += fmt.Sprintf(" GENERATED %s AS IDENTITY", kind)
	}
	return sql
}

func createTableSQL(t *catalog.Table) string {
	var parts []string
	for _, c := range t.Columns {
		parts = append(parts, renderColumnDef(c))
	}
	for _, con := range t.Constraints {
		parts = append(parts, renderConstraintDef(con))
	}
	unlogged := ""
	if t.Persistence == catalog.PersistenceUnlogged {
		unlogged = "UNLOGGED "
	}
	temp := ""
	if t.Persistence == catalog.PersistenceTemporary {
		temp = "TEMPORARY "
	}
	sql := fmt.Sprintf("CREATE %s%sTABLE %s (\n  %s\n)", unlogged, temp,
		pgquote.QualifiedName(t.Schema, t.Name), strings.Join(parts, ",\n  "))
	if t.PartitionBound != "" {
		sql += " " + t.PartitionBound
	}
	if t.PartitionKeyClause != "" {
		sql += " " + t.PartitionKeyClause
	}
	if t.Tablespace != "" {
		sql += " TABLESPACE " + pgquote.Ident(t.Tablespace)
	}
	return sql
}

func identitySetEqual(a, b []string) bool { return catalog.EqualStringSets(a, b) }

// tableNonAlterableDiffers reports whether any table-wide field that forces
// a full drop+create replace differs (spec §4.2, §4.3's Table row).
func tableNonAlterableDiffers(m, b *catalog.Table) bool {
	return m.Persistence != b.Persistence ||
		m.Parent != b.Parent ||
		m.PartitionBound != b.PartitionBound ||
		!identitySetEqual(m.IdentityColumnSet, b.IdentityColumnSet) ||
		replicaIdentityIndexSwitch(m, b)
}

// replicaIdentityIndexSwitch implements DESIGN.md's Open Question decision
// 3: DEFAULT/FULL/NOTHING transitions are a plain ALTER, but moving to or
// from an index-backed replica identity forces a replace.
func replicaIdentityIndexSwitch(m, b *catalog.Table) bool {
	mIndex := m.ReplicaIdentityKind == catalog.ReplicaIdentityIndex
	bIndex := b.ReplicaIdentityKind == catalog.ReplicaIdentityIndex
	if mIndex != bIndex {
		return true
	}
	return mIndex && bIndex && m.ReplicaIdentityIndex != b.ReplicaIdentityIndex
}

func replaceTable(id string, m, b *catalog.Table) []*change.Change {
	return []*change.Change{
		change.New(change.OpDrop, catalog.KindTable, change.ScopeObject, id).
			WithSQL("DROP TABLE " + pgquote.QualifiedName(m.Schema, m.Name)).WithDrops(id),
		change.New(change.OpCreate, catalog.KindTable, change.ScopeObject, id).
			WithSQL(createTableSQL(b)).WithCreates(id).WithRequires("schema:"+b.Schema, "role:"+b.Owner),
	}
}

func diffReplicaIdentity(id string, m, b *catalog.Table) *change.Change {
	if m.ReplicaIdentityKind == b.ReplicaIdentityKind {
		return nil
	}
	var clause string
	switch b.ReplicaIdentityKind {
	case catalog.ReplicaIdentityFull:
		clause = "FULL"
	case catalog.ReplicaIdentityNothing:
		clause = "NOTHING"
	default:
		clause = "DEFAULT"
	}
	sql := fmt.Sprintf("ALTER TABLE %s REPLICA IDENTITY %s", pgquote.QualifiedName(m.Schema, m.Name), clause)
	return change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, id).
		WithSQL(sql).WithChangedField("replica_identity_kind").WithRequires(id)
}

func diffTables(ctx *DiffContext, main, branch map[string]*catalog.Table) []*change.Change {
	var out []*change.Change

	for _, id := range added(main, branch) {
		t := branch[id]
		out = append(out, change.New(change.OpCreate, catalog.KindTable, change.ScopeObject, id).
			WithSQL(createTableSQL(t)).WithCreates(id).WithRequires(tableDependencies(t)...))
		for _, col := range t.Columns {
			out = append(out, change.New(change.OpCreate, catalog.KindColumn, change.ScopeObject, col.StableID()).
				WithCreates(col.StableID()).WithRequires(id).WithSQL(""))
		}
		for _, con := range t.Constraints {
			out = append(out, change.New(change.OpCreate, catalog.KindConstraint, change.ScopeObject, con.StableID()).
				WithCreates(con.StableID()).WithRequires(id).WithSQL(""))
		}
		out = append(out, tableAncillaryChanges(ctx, id, t)...)
		if t.Comment != "" {
			out = append(out, DiffComment(catalog.KindTable, id, tableClause(t.Schema, t.Name), "", t.Comment))
		}
	}

	for _, id := range removed(main, branch) {
		t := main[id]
		out = append(out, change.New(change.OpDrop, catalog.KindTable, change.ScopeObject, id).
			WithSQL("DROP TABLE "+pgquote.QualifiedName(t.Schema, t.Name)).WithDrops(id).
			WithComment("-- WARNING: dropping this table destroys its data irrecoverably."))
	}

	for _, id := range common(main, branch) {
		m, b := main[id], branch[id]

		if tableNonAlterableDiffers(m, b) {
			out = append(out, replaceTable(id, m, b)...)
			continue
		}

		clause := tableClause(m.Schema, m.Name)
		out = append(out, diffColumns(id, m, b)...)
		out = append(out, diffConstraints(id, m, b)...)

		if rc := diffReplicaIdentity(id, m, b); rc != nil {
			out = append(out, rc)
		}
		if m.RLSEnabled != b.RLSEnabled {
			action := "DISABLE ROW LEVEL SECURITY"
			if b.RLSEnabled {
				action = "ENABLE ROW LEVEL SECURITY"
			}
			out = append(out, change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER TABLE %s %s", pgquote.QualifiedName(m.Schema, m.Name), action)).
				WithChangedField("rls_enabled").WithRequires(id))
		}
		if m.RLSForced != b.RLSForced {
			action := "NO FORCE ROW LEVEL SECURITY"
			if b.RLSForced {
				action = "FORCE ROW LEVEL SECURITY"
			}
			out = append(out, change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER TABLE %s %s", pgquote.QualifiedName(m.Schema, m.Name), action)).
				WithChangedField("rls_forced").WithRequires(id))
		}
		if !catalog.EqualOptions(m.StorageParams, b.StorageParams) {
			out = append(out, diffOptionsBag(id, catalog.KindTable,
				fmt.Sprintf("ALTER TABLE %s", pgquote.QualifiedName(m.Schema, m.Name)),
				m.StorageParams, b.StorageParams)...)
		}
		if m.Tablespace != b.Tablespace {
			out = append(out, change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, id).
				WithSQL(fmt.Sprintf("ALTER TABLE %s SET TABLESPACE %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(b.Tablespace))).
				WithChangedField("tablespace").WithRequires(id))
		}

		if oc := DiffOwnership(catalog.KindTable, id, clause, m.Owner, b.Owner); oc != nil {
			out = append(out, oc)
		}
		if cc := DiffComment(catalog.KindTable, id, clause, m.Comment, b.Comment); cc != nil {
			out = append(out, cc)
		}
		out = append(out, RenderPrivilegeChanges(ctx, catalog.KindTable, id, clause,
			DiffPrivilegeDeltas(ctx, b.Owner, m.Privileges, b.Privileges))...)
	}

	return out
}

func tableDependencies(t *catalog.Table) []string {
	deps := []string{"schema:" + t.Schema, "role:" + t.Owner}
	if t.Parent != "" {
		deps = append(deps, t.Parent)
	}
	return deps
}

// tableAncillaryChanges emits the ALTER-scoped bits a fresh CREATE TABLE
// can't express inline: RLS forcing and replica identity, for a table
// that's entirely new.
func tableAncillaryChanges(ctx *DiffContext, id string, t *catalog.Table) []*change.Change {
	var out []*change.Change
	if t.RLSEnabled {
		out = append(out, change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, id).
			WithSQL(fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", pgquote.QualifiedName(t.Schema, t.Name))).
			WithRequires(id))
	}
	if t.RLSForced {
		out = append(out, change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, id).
			WithSQL(fmt.Sprintf("ALTER TABLE %s FORCE ROW LEVEL SECURITY", pgquote.QualifiedName(t.Schema, t.Name))).
			WithRequires(id))
	}
	if t.ReplicaIdentityKind == catalog.ReplicaIdentityIndex {
		out = append(out, change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, id).
			WithSQL(fmt.Sprintf("ALTER TABLE %s REPLICA IDENTITY USING INDEX %s", pgquote.QualifiedName(t.Schema, t.Name), pgquote.Ident(t.ReplicaIdentityIndex))).
			WithRequires(id, "index:"+t.Schema+"."+t.Name+"."+t.ReplicaIdentityIndex))
	} else if t.ReplicaIdentityKind != "" && t.ReplicaIdentityKind != catalog.ReplicaIdentityDefault {
		out = append(out, diffReplicaIdentity(id, &catalog.Table{Schema: t.Schema, Name: t.Name, ReplicaIdentityKind: catalog.ReplicaIdentityDefault}, t))
	}
	return out
}

// diffOptionsBag computes the SET/RESET deltas of an options bag (spec
// §4.2 "Options-bag diffing") and renders them against prefix, which is
// the ALTER statement's target clause without its trailing SET/RESET
// list, e.g. "ALTER TABLE schema.t".
func diffOptionsBag(stableID string, kind catalog.ObjectKind, prefix string, main, branch []catalog.Option) []*change.Change {
	mm, bm := catalog.OptionsToMap(main), catalog.OptionsToMap(branch)
	var sets, resets []string
	for k, v := range bm {
		if mv, ok := mm[k]; !ok || mv != v {
			sets = append(sets, fmt.Sprintf("%s = %s", k, pgquote.Literal(v)))
		}
	}
	for k := range mm {
		if _, ok := bm[k]; !ok {
			resets = append(resets, k)
		}
	}
	var out []*change.Change
	if len(sets) > 0 {
		out = append(out, change.New(change.OpAlter, kind, change.ScopeObject, stableID).
			WithSQL(fmt.Sprintf("%s SET (%s)", prefix, strings.Join(sets, ", "))).
			WithChangedField("options").WithRequires(stableID))
	}
	if len(resets) > 0 {
		out = append(out, change.New(change.OpAlter, kind, change.ScopeObject, stableID).
			WithSQL(fmt.Sprintf("%s RESET (%s)", prefix, strings.Join(resets, ", "))).
			WithChangedField("options").WithRequires(stableID))
	}
	return out
}

package diff

import (
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

func supportsNotValid(t catalog.ConstraintType) bool {
	return t == catalog.ConstraintForeignKey || t == catalog.ConstraintCheck
}

func renderConstraintDef(c *catalog.Constraint) string {
	sql := "CONSTRAINT " + pgquote.Ident(c.Name) + " "
	switch c.Type {
	case catalog.ConstraintPrimaryKey:
		sql += "PRIMARY KEY (" + strings.Join(pgquote.Idents(c.Columns), ", ") + ")"
	case catalog.ConstraintUnique:
		sql += "UNIQUE (" + strings.Join(pgquote.Idents(c.Columns), ", ") + ")"
	case catalog.ConstraintCheck:
		sql += fmt.Sprintf("CHECK (%s)", c.Expression)
	case catalog.ConstraintForeignKey:
		sql += fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			strings.Join(pgquote.Idents(c.Columns), ", "),
			pgquote.QualifiedName(c.ForeignSchema, c.ForeignTable),
			strings.Join(pgquote.Idents(c.ForeignColumns), ", "))
		if c.OnDelete != "" {
			sql += " ON DELETE " + c.OnDelete
		}
		if c.OnUpdate != "" {
			sql += " ON UPDATE " + c.OnUpdate
		}
	case catalog.ConstraintExclude:
		var parts []string
		for i, col := range c.Columns {
			op := ""
			if i < len(c.ExcludeOperators) {
				op = c.ExcludeOperators[i]
			}
			parts = append(parts, fmt.Sprintf("%s WITH %s", pgquote.Ident(col), op))
		}
		sql += fmt.Sprintf("EXCLUDE USING %s (%s)", c.IndexName, strings.Join(parts, ", "))
		if c.Expression != "" {
			sql += fmt.Sprintf(" WHERE (%s)", c.Expression)
		}
	}
	if c.Deferrable {
		sql += " DEFERRABLE"
		if c.InitiallyDeferred {
			sql += " INITIALLY DEFERRED"
		}
	}
	if c.NotValid && supportsNotValid(c.Type) {
		sql += " NOT VALID"
	}
	return sql
}

func constraintStructurallyEqual(m, b *catalog.Constraint) bool {
	mCopy, bCopy := *m, *b
	mCopy.NotValid, bCopy.NotValid = false, false
	return catalog.DeepEqual(mCopy, bCopy)
}

// addConstraintChanges emits ADD CONSTRAINT, splitting a to-be-valid
// FK/CHECK constraint into an ADD ... NOT VALID phase plus a separate
// VALIDATE CONSTRAINT phase — spec §9's cycle-breaking device, always
// applied for new constraints that support it so the sort engine has the
// option to interleave other work between the two phases when a cycle
// requires it.
func addConstraintChanges(tableID string, schema, table string, c *catalog.Constraint) []*change.Change {
	id := c.StableID()
	if supportsNotValid(c.Type) && !c.NotValid {
		notValid := *c
		notValid.NotValid = true
		addSQL := fmt.Sprintf("ALTER TABLE %s ADD %s", pgquote.QualifiedName(schema, table), renderConstraintDef(&notValid))
		validateSQL := fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s", pgquote.QualifiedName(schema, table), pgquote.Ident(c.Name))
		return []*change.Change{
			change.New(change.OpCreate, catalog.KindConstraint, change.ScopeObject, id).
				WithSQL(addSQL).WithCreates(id).WithRequires(tableID),
			change.New(change.OpAlter, catalog.KindConstraint, change.ScopeObject, id).
				WithSQL(validateSQL).WithRequires(id),
		}
	}
	sql := fmt.Sprintf("ALTER TABLE %s ADD %s", pgquote.QualifiedName(schema, table), renderConstraintDef(c))
	return []*change.Change{change.New(change.OpCreate, catalog.KindConstraint, change.ScopeObject, id).
		WithSQL(sql).WithCreates(id).WithRequires(tableID)}
}

func diffConstraints(tableID string, m, b *catalog.Table) []*change.Change {
	var out []*change.Change

	mByName := make(map[string]*catalog.Constraint, len(m.Constraints))
	for _, c := range m.Constraints {
		mByName[c.Name] = c
	}
	bByName := make(map[string]*catalog.Constraint, len(b.Constraints))
	for _, c := range b.Constraints {
		bByName[c.Name] = c
	}

	for _, c := range b.Constraints {
		mc, ok := mByName[c.Name]
		if !ok {
			out = append(out, addConstraintChanges(tableID, b.Schema, b.Name, c)...)
			continue
		}
		if constraintStructurallyEqual(mc, c) {
			if mc.NotValid && !c.NotValid {
				sql := fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(c.Name))
				out = append(out, change.New(change.OpAlter, catalog.KindConstraint, change.ScopeObject, c.StableID()).
					WithSQL(sql).WithChangedField("not_valid").WithRequires(c.StableID()))
			}
			continue
		}
		out = append(out, change.New(change.OpDrop, catalog.KindConstraint, change.ScopeObject, mc.StableID()).
			WithSQL(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(mc.Name))).
			WithDrops(mc.StableID()))
		out = append(out, addConstraintChanges(tableID, b.Schema, b.Name, c)...)
	}

	for _, c := range m.Constraints {
		if _, ok := bByName[c.Name]; !ok {
			out = append(out, change.New(change.OpDrop, catalog.KindConstraint, change.ScopeObject, c.StableID()).
				WithSQL(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", pgquote.QualifiedName(m.Schema, m.Name), pgquote.Ident(c.Name))).
				WithDrops(c.StableID()))
		}
	}

	return out
}

package catalog

// ConstraintType enumerates the table-level constraint kinds PostgreSQL
// supports.
type ConstraintType string

const (
	ConstraintPrimaryKey ConstraintType = "primary_key"
	ConstraintUnique     ConstraintType = "unique"
	ConstraintForeignKey ConstraintType = "foreign_key"
	ConstraintCheck      ConstraintType = "check"
	ConstraintExclude    ConstraintType = "exclude"
)

// Constraint is a table-level constraint. IsConstraintIndex marks
// PRIMARY KEY/UNIQUE/EXCLUDE constraints that own a backing index — per
// spec §4.2 "Index replace policy", that index's lifecycle belongs to the
// constraint and a standalone CreateIndex/DropIndex is never emitted for it.
//
// NotValid + Validated split a foreign key or check constraint's lifecycle
// into an ADD CONSTRAINT ... NOT VALID phase and a later VALIDATE
// CONSTRAINT phase (spec §9 "Catalog graph cycles"), letting the sort
// engine break an FK-to-self or similar cycle.
type Constraint struct {
	Name              string
	Type              ConstraintType
	TableStableID     string
	Columns           []string
	Expression        string // CHECK / EXCLUDE predicate
	ExcludeOperators  []string
	ForeignSchema     string
	ForeignTable      string
	ForeignColumns    []string
	OnDelete          string
	OnUpdate          string
	Deferrable        bool
	InitiallyDeferred bool
	NotValid          bool
	IsConstraintIndex bool
	IndexName         string
	Comment           string
}

func (c *Constraint) Kind() ObjectKind { return KindConstraint }

// StableID is scoped under the owning table, matching the column pattern.
func (c *Constraint) StableID() string {
	schema, table := splitTableStableID(c.TableStableID)
	return "constraint:" + schema + "." + table + "." + c.Name
}

// IdentityFields returns the values StableID is built from (spec §4.1).
func (c *Constraint) IdentityFields() []string { return []string{c.TableStableID, c.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (c *Constraint) Validate() error {
	return requireFields(KindConstraint, c, namedField{"table_stable_id", c.TableStableID}, namedField{"name", c.Name})
}

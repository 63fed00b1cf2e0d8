package catalog

// CompositeAttribute is one field of a composite type, in declared order.
type CompositeAttribute struct {
	Name     string
	DataType string
	Collation string
}

// CompositeType represents a PostgreSQL composite type (CREATE TYPE ... AS
// (...)). Attributes is ordinality-significant (spec §4.3: "reorder" is
// non-alterable; "add/drop attributes" alone is alterable).
type CompositeType struct {
	Schema     string
	Name       string
	Attributes []CompositeAttribute
	Owner      string
	Comment    string
	Privileges []Privilege
}

func (c *CompositeType) Kind() ObjectKind { return KindComposite }

func (c *CompositeType) StableID() string { return "composite:" + c.Schema + "." + c.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (c *CompositeType) IdentityFields() []string { return []string{c.Schema, c.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (c *CompositeType) Validate() error {
	return requireFields(KindComposite, c, namedField{"schema", c.Schema}, namedField{"name", c.Name})
}

package catalog

// Policy represents a row-level security policy (CREATE POLICY).
// UsingExpression, CheckExpression, Roles and Command are all alterable in
// place via ALTER POLICY (spec §4.3).
type Policy struct {
	Schema          string
	TableName       string
	Name            string
	Command         string // ALL, SELECT, INSERT, UPDATE, DELETE
	Permissive      bool
	Roles           []string
	UsingExpression string
	CheckExpression string
	Comment         string
}

func (p *Policy) Kind() ObjectKind { return KindPolicy }

func (p *Policy) StableID() string {
	return "policy:" + p.Schema + "." + p.TableName + "." + p.Name
}

// IdentityFields returns the values StableID is built from (spec §4.1).
func (p *Policy) IdentityFields() []string { return []string{p.Schema, p.TableName, p.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (p *Policy) Validate() error {
	return requireFields(KindPolicy, p,
		namedField{"schema", p.Schema}, namedField{"table_name", p.TableName}, namedField{"name", p.Name})
}

package catalog

// MaterializedView represents a PostgreSQL materialized view. Definition
// is non-alterable (spec §4.3): any change forces a drop+create replace,
// since PostgreSQL has no CREATE OR REPLACE MATERIALIZED VIEW.
type MaterializedView struct {
	Schema     string
	Name       string
	Definition string
	Owner      string
	Comment    string
	Privileges []Privilege
}

func (m *MaterializedView) Kind() ObjectKind { return KindMaterializedView }

func (m *MaterializedView) StableID() string {
	return "materialized_view:" + m.Schema + "." + m.Name
}

// IdentityFields returns the values StableID is built from (spec §4.1).
func (m *MaterializedView) IdentityFields() []string { return []string{m.Schema, m.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (m *MaterializedView) Validate() error {
	return requireFields(KindMaterializedView, m, namedField{"schema", m.Schema}, namedField{"name", m.Name})
}

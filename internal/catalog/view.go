package catalog

// View represents a plain (non-materialized) view. Definition is
// alterable only when the difference is a compatible tail-column addition
// — a view with columns [a,b] whose branch version is [a,b,c] can use
// CREATE OR REPLACE VIEW; a column removed, renamed or reordered forces a
// replace (spec §4.3). Only output column names are compared, so a changed
// Definition that keeps the leading column names uses CREATE OR REPLACE.
type View struct {
	Schema     string
	Name       string
	Columns    []string // output column names, in order
	Definition string   // the SELECT query
	Owner      string
	Comment    string
	Privileges []Privilege
}

func (v *View) Kind() ObjectKind { return KindView }

func (v *View) StableID() string { return "view:" + v.Schema + "." + v.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (v *View) IdentityFields() []string { return []string{v.Schema, v.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (v *View) Validate() error {
	return requireFields(KindView, v, namedField{"schema", v.Schema}, namedField{"name", v.Name})
}

// CompatibleReplace reports whether next's columns are a tail-appending
// superset of v's columns — the one case §4.3 allows a plain
// CREATE OR REPLACE VIEW rather than drop+create.
func (v *View) CompatibleReplace(next *View) bool {
	if len(next.Columns) < len(v.Columns) {
		return false
	}
	for i, c := range v.Columns {
		if next.Columns[i] != c {
			return false
		}
	}
	return true
}

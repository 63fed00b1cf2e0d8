package catalog

// Extension represents an installed PostgreSQL extension (CREATE EXTENSION).
type Extension struct {
	Name        string
	Schema      string
	Version     string
	Relocatable bool
	Comment     string
}

func (e *Extension) Kind() ObjectKind { return KindExtension }

func (e *Extension) StableID() string { return "extension:" + e.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (e *Extension) IdentityFields() []string { return []string{e.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (e *Extension) Validate() error { return requireField(KindExtension, e, "name", e.Name) }

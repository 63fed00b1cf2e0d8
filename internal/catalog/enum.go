package catalog

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

// Enum represents a PostgreSQL enum type (CREATE TYPE ... AS ENUM). Values
// is ordinality-significant: PostgreSQL enums have a fixed ordering used by
// comparison operators, so position matters for the differ (spec §4.3:
// "add values (position-preserving)" is alterable, "rename/reorder/remove"
// forces a replace).
type Enum struct {
	Schema     string
	Name       string
	Values     []string
	Owner      string
	Comment    string
	Privileges []Privilege
}

func (e *Enum) Kind() ObjectKind { return KindEnum }

func (e *Enum) StableID() string { return "enum:" + e.Schema + "." + e.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (e *Enum) IdentityFields() []string { return []string{e.Schema, e.Name} }

// Validate checks the fields StableID depends on and that the enum carries
// at least one value (spec §4.1).
func (e *Enum) Validate() error {
	if err := requireFields(KindEnum, e, namedField{"schema", e.Schema}, namedField{"name", e.Name}); err != nil {
		return err
	}
	if len(e.Values) == 0 {
		return &pgerr.ModelValidationError{Kind: string(KindEnum), Row: e, Err: fmt.Errorf("values is empty")}
	}
	return nil
}

// Package change implements the closed, typed taxonomy of schema changes
// the diff engine emits (spec §3.1, §9). A Change is a tagged union of
// (operation, object_type, scope); every Change is built through one
// constructor and is immutable afterward (spec §3.3) — there is no
// CreateChange/AlterChange/DropChange class hierarchy, only exhaustive
// case analysis over the Operation and Scope fields, per spec §9's design
// note.
package change

import "github.com/pgschemadiff/pgschemadiff/internal/catalog"

// Operation is the verb half of a Change's tag.
type Operation string

const (
	OpCreate Operation = "create"
	OpAlter  Operation = "alter"
	OpDrop   Operation = "drop"
)

// Scope is the sub-aspect of the object a Change concerns (spec §3.1).
type Scope string

const (
	ScopeObject    Scope = "object"
	ScopeComment   Scope = "comment"
	ScopePrivilege Scope = "privilege"
	ScopeOwnership Scope = "ownership"
)

// Node is the interface every Change satisfies: the minimal trait the
// dependency sort engine and serializer need (spec §9: "a trait/interface
// {creates, drops, requires, serialize}").
type Node interface {
	Creates() []string
	Drops() []string
	Requires() []string
	Serialize() string
}

// Change is the single concrete realization of Node. A per-kind differ
// populates every field at construction time; nothing downstream mutates
// it.
type Change struct {
	Operation  Operation
	ObjectType catalog.ObjectKind
	Scope      Scope

	// StableID is the primary object this change concerns — used for
	// phase-edge and kind-priority tie-breaking (spec §4.4 rules 3–4), and
	// to report invariant violations by offending id (spec §7).
	StableID string

	CreatesIDs  []string
	DropsIDs    []string
	RequiresIDs []string

	// SQL is the fully rendered statement(s) this change produces, already
	// in the form spec §6.2 wants (no trailing `;`, the caller joins with
	// `;\n\n`).
	SQL string

	// ChangedFields names the logical data_fields this change touches,
	// e.g. "password", "conninfo", "login" — consulted by the integration
	// filter/serializer (spec §4.5) and by cycle/diagnostic messages. Empty
	// for a pure create/drop (the whole object is "changed").
	ChangedFields []string

	// SensitiveValues maps a ChangedFields entry to the literal value that
	// appears verbatim in SQL, so the default serializer can find-and-mask
	// it without re-deriving the statement (spec §4.5).
	SensitiveValues map[string]string

	// Comment is an optional operator-facing warning prefixed as a SQL
	// comment ahead of SQL (spec §4.3's "WARNING: ..." convention, carried
	// over from the teacher's ast.CommentNode usage).
	Comment string
}

// New constructs a Change; stableID is the StableID field. The id sets
// start empty and are filled with WithCreates, WithDrops and WithRequires.
func New(op Operation, kind catalog.ObjectKind, scope Scope, stableID string) *Change {
	return &Change{Operation: op, ObjectType: kind, Scope: scope, StableID: stableID}
}

func (c *Change) Creates() []string  { return c.CreatesIDs }
func (c *Change) Drops() []string    { return c.DropsIDs }
func (c *Change) Requires() []string { return c.RequiresIDs }

// Serialize renders the final statement text, prefixing Comment (if any)
// as a standalone comment line ahead of SQL.
func (c *Change) Serialize() string {
	if c.Comment == "" {
		return c.SQL
	}
	return c.Comment + "\n" + c.SQL
}

// WithCreates, WithDrops, WithRequires and WithSQL return c for chaining,
// matching the teacher's ast.Node fluent-builder style.
func (c *Change) WithCreates(ids ...string) *Change  { c.CreatesIDs = append(c.CreatesIDs, ids...); return c }
func (c *Change) WithDrops(ids ...string) *Change    { c.DropsIDs = append(c.DropsIDs, ids...); return c }
func (c *Change) WithRequires(ids ...string) *Change { c.RequiresIDs = append(c.RequiresIDs, ids...); return c }
func (c *Change) WithSQL(sql string) *Change         { c.SQL = sql; return c }
func (c *Change) WithComment(comment string) *Change { c.Comment = comment; return c }

func (c *Change) WithChangedField(field string) *Change {
	c.ChangedFields = append(c.ChangedFields, field)
	return c
}

func (c *Change) WithSensitiveValue(field, value string) *Change {
	if c.SensitiveValues == nil {
		c.SensitiveValues = map[string]string{}
	}
	c.SensitiveValues[field] = value
	return c.WithChangedField(field)
}

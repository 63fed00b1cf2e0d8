package catalog

// Role represents a PostgreSQL role (login or group role; PostgreSQL does
// not distinguish the two at the catalog level).
//
// Password is intentionally carried here even though spec §4.5 marks
// `role.password` as env-dependent: the catalog model stores whatever the
// extractor observed (typically a SCRAM/MD5 verifier, never a cleartext
// password) and it is the integration filter layer's job, not the model's,
// to decide whether a change touching it is ever emitted.
type Role struct {
	Name            string
	Superuser       bool
	CreateDB        bool
	CreateRole      bool
	Inherit         bool
	Login           bool
	Replication     bool
	BypassRLS       bool
	ConnectionLimit int
	Password        *string
	ValidUntil      *string
	Comment         string
}

func (r *Role) Kind() ObjectKind { return KindRole }

func (r *Role) StableID() string { return "role:" + r.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (r *Role) IdentityFields() []string { return []string{r.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (r *Role) Validate() error { return requireField(KindRole, r, "name", r.Name) }

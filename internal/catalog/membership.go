package catalog

// Membership represents one row of pg_auth_members: member belongs to
// role. AdminOption/InheritOption/SetOption are alterable in place via
// GRANT ... WITH ... OPTION / ALTER (spec §4.3).
type Membership struct {
	Role          string
	Member        string
	AdminOption   bool
	InheritOption bool
	SetOption     bool
	GrantedBy     string
}

func (m *Membership) Kind() ObjectKind { return KindMembership }

// StableID uses the "->" arrow form spec §4.1 specifies:
// "membership:<role>-><member>".
func (m *Membership) StableID() string {
	return "membership:" + m.Role + "->" + m.Member
}

// IdentityFields returns the values StableID is built from (spec §4.1).
func (m *Membership) IdentityFields() []string { return []string{m.Role, m.Member} }

// Validate checks the fields StableID depends on (spec §4.1).
func (m *Membership) Validate() error {
	return requireFields(KindMembership, m, namedField{"role", m.Role}, namedField{"member", m.Member})
}

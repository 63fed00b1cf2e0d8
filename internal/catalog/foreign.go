package catalog

// ForeignDataWrapper represents a PostgreSQL FDW (CREATE FOREIGN DATA
// WRAPPER). Handler and Validator are non-alterable (spec §4.3: "handler/
// validator ... change"); Options and owner/comment are alterable.
type ForeignDataWrapper struct {
	Name      string
	Handler   string
	Validator string
	Options   []Option
	Owner     string
	Comment   string
}

func (f *ForeignDataWrapper) Kind() ObjectKind { return KindForeignDataWrapper }

func (f *ForeignDataWrapper) StableID() string { return "fdw:" + f.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (f *ForeignDataWrapper) IdentityFields() []string { return []string{f.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (f *ForeignDataWrapper) Validate() error {
	return requireField(KindForeignDataWrapper, f, "name", f.Name)
}

// Server represents a PostgreSQL foreign server (CREATE SERVER). Type and
// Version changing is treated as a "server type change" forcing replace
// (spec §4.3); Options/owner/comment are alterable.
type Server struct {
	Name           string
	ForeignDataWrapper string
	ServerType     string
	ServerVersion  string
	Options        []Option
	Owner          string
	Comment        string
	Privileges     []Privilege
}

func (s *Server) Kind() ObjectKind { return KindServer }

func (s *Server) StableID() string { return "server:" + s.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (s *Server) IdentityFields() []string { return []string{s.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (s *Server) Validate() error { return requireField(KindServer, s, "name", s.Name) }

// UserMapping represents CREATE USER MAPPING FOR <user> SERVER <server>.
type UserMapping struct {
	ServerName string
	UserName   string // role name, or "public"
	Options    []Option
}

func (u *UserMapping) Kind() ObjectKind { return KindUserMapping }

func (u *UserMapping) StableID() string {
	return "user_mapping:" + u.ServerName + ":" + u.UserName
}

// IdentityFields returns the values StableID is built from (spec §4.1).
func (u *UserMapping) IdentityFields() []string { return []string{u.ServerName, u.UserName} }

// Validate checks the fields StableID depends on (spec §4.1).
func (u *UserMapping) Validate() error {
	return requireFields(KindUserMapping, u,
		namedField{"server_name", u.ServerName}, namedField{"user_name", u.UserName})
}

// ForeignTable represents CREATE FOREIGN TABLE. It shares the Column type
// with Table; Columns and Options are alterable, Server is non-alterable
// (changing the backing server forces a replace since the wire format for
// remote data usually changes with it).
type ForeignTable struct {
	Schema     string
	Name       string
	ServerName string
	Options    []Option
	Columns    []*Column
	Owner      string
	Comment    string
	Privileges []Privilege
}

func (f *ForeignTable) Kind() ObjectKind { return KindForeignTable }

func (f *ForeignTable) StableID() string { return "foreign_table:" + f.Schema + "." + f.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (f *ForeignTable) IdentityFields() []string { return []string{f.Schema, f.Name} }

// Validate checks the fields StableID depends on, then every owned Column
// (spec §4.1).
func (f *ForeignTable) Validate() error {
	if err := requireFields(KindForeignTable, f, namedField{"schema", f.Schema}, namedField{"name", f.Name}); err != nil {
		return err
	}
	for _, c := range f.Columns {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

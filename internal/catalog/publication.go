package catalog

// Publication represents a logical-replication publication. ForAllTables
// and Tables together form a non-alterable pair (spec §4.3: "switch
// between FOR ALL TABLES and explicit list → replace"); the publish flags
// and owner, and the table/schema membership deltas within the "explicit
// list" mode, are alterable via ALTER PUBLICATION.
type Publication struct {
	Name             string
	ForAllTables     bool
	Tables           []string // schema.table, only meaningful when !ForAllTables
	Schemas          []string // FOR TABLES IN SCHEMA targets
	PublishInsert    bool
	PublishUpdate    bool
	PublishDelete    bool
	PublishTruncate  bool
	PublishViaRoot   bool
	Owner            string
	Comment          string
}

func (p *Publication) Kind() ObjectKind { return KindPublication }

func (p *Publication) StableID() string { return "publication:" + p.Name }

// IdentityFields returns the values StableID is built from (spec §4.1).
func (p *Publication) IdentityFields() []string { return []string{p.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (p *Publication) Validate() error { return requireField(KindPublication, p, "name", p.Name) }

package catalog

// Trigger represents a PostgreSQL trigger. Every field is non-alterable
// except Name (spec §4.3: "Trigger | — | all (emit drop+create)") — there
// is no meaningful ALTER TRIGGER beyond renaming, so any data_fields
// difference other than Comment is a replace; Comment is set with
// COMMENT ON TRIGGER.
//
// UpdateColumnNumbers carries raw attnums for an UPDATE OF (col, ...)
// trigger exactly as the catalog stores them; resolving them to names
// requires the owning table's columns, supplied to the differ/serializer
// as a TableLike capability (spec §4.2 "Trigger column resolution").
type Trigger struct {
	Schema              string
	TableName            string
	Name                 string
	Timing               string // BEFORE, AFTER, INSTEAD OF
	Events               []string // INSERT, UPDATE, DELETE, TRUNCATE
	UpdateColumnNumbers  []int    // only set when Events includes UPDATE OF
	Level                string   // ROW, STATEMENT
	WhenExpression       string
	FunctionSchema       string
	FunctionName         string
	Arguments            []string
	Comment              string
}

func (t *Trigger) Kind() ObjectKind { return KindTrigger }

func (t *Trigger) StableID() string {
	return "trigger:" + t.Schema + "." + t.TableName + "." + t.Name
}

// IdentityFields returns the values StableID is built from (spec §4.1).
func (t *Trigger) IdentityFields() []string { return []string{t.Schema, t.TableName, t.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (t *Trigger) Validate() error {
	return requireFields(KindTrigger, t,
		namedField{"schema", t.Schema}, namedField{"table_name", t.TableName}, namedField{"name", t.Name})
}

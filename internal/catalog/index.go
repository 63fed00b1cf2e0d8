package catalog

// Index represents a PostgreSQL index. Method, IsUnique, KeyColumns,
// ColumnCollations, OperatorClasses, ColumnOptions, IndexExpressions and
// Predicate are all non-alterable (spec §4.3): any difference forces a
// drop+create replace. StorageParams, per-column Statistics, and
// Tablespace are alterable in place.
//
// IsConstraintOwned mirrors Constraint.IsConstraintIndex: when true, this
// index's lifecycle is owned by a PRIMARY KEY/UNIQUE/EXCLUDE constraint
// change and the differ never emits a standalone CreateIndex/DropIndex for
// it (spec §4.2 "Index replace policy").
type Index struct {
	Schema            string
	TableName         string
	Name              string
	Method            string // btree, hash, gin, gist, brin, spgist
	IsUnique          bool
	KeyColumns        []string // ordinality-significant
	IndexExpressions  []string // parallel to KeyColumns where a key is an expression, "" otherwise
	ColumnCollations  []string // parallel to KeyColumns, "" if default
	OperatorClasses   []string // parallel to KeyColumns, "" if default
	ColumnOptions     []string // parallel to KeyColumns: "ASC"/"DESC" + NULLS FIRST/LAST
	Predicate         string   // partial index WHERE clause, "" if none
	StorageParams     []Option
	Statistics        map[string]int // per expression-column index, attnum -> target
	Tablespace        string
	IsConstraintOwned bool
	Comment           string
}

func (i *Index) Kind() ObjectKind { return KindIndex }

func (i *Index) StableID() string {
	return "index:" + i.Schema + "." + i.TableName + "." + i.Name
}

// IdentityFields returns the values StableID is built from (spec §4.1).
func (i *Index) IdentityFields() []string { return []string{i.Schema, i.TableName, i.Name} }

// Validate checks the fields StableID depends on (spec §4.1).
func (i *Index) Validate() error {
	return requireFields(KindIndex, i,
		namedField{"schema", i.Schema}, namedField{"table_name", i.TableName}, namedField{"name", i.Name})
}

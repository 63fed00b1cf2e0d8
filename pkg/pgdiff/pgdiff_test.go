package pgdiff

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/diff"
	"github.com/pgschemadiff/pgschemadiff/internal/integration"
	"github.com/pgschemadiff/pgschemadiff/internal/sort"
)

// End-to-end scenario #1 (spec §8): empty -> schema + table + pkey.
func TestEndToEnd_CreateSchemaTableWithPrimaryKey(t *testing.T) {
	c := qt.New(t)

	main := catalog.New()
	branch := catalog.New()
	branch.Schemas["schema:s"] = &catalog.Schema{Name: "s", Owner: "postgres"}
	branch.Tables["table:s.t"] = &catalog.Table{
		Schema: "s", Name: "t", Owner: "postgres",
		Columns: []*catalog.Column{
			{Name: "id", DataType: "integer", NotNull: true, TableStableID: "table:s.t"},
		},
		Constraints: []*catalog.Constraint{
			{Name: "t_pkey", Type: catalog.ConstraintPrimaryKey, Columns: []string{"id"}, TableStableID: "table:s.t"},
		},
	}

	changes, err := diff.Diff(&diff.DiffContext{}, main, branch)
	c.Assert(err, qt.IsNil)
	c.Assert(len(changes) > 0, qt.IsTrue)

	ordered, err := sort.Sort(changes, main)
	c.Assert(err, qt.IsNil)

	sql := assemble(integration.FilterAll(integration.DefaultConfig(), ordered))

	schemaPos := indexOfSubstring(sql, "CREATE SCHEMA")
	tablePos := indexOfSubstring(sql, "CREATE TABLE")
	pkeyPos := indexOfSubstring(sql, "PRIMARY KEY")
	c.Assert(schemaPos >= 0 && tablePos >= 0 && pkeyPos >= 0, qt.IsTrue)
	c.Assert(schemaPos < tablePos, qt.IsTrue)
	// the new table's primary key is emitted inline in its CREATE TABLE
	// statement, so it necessarily follows the schema it lives in.
	c.Assert(tablePos <= pkeyPos, qt.IsTrue)
}

// End-to-end scenario #2 (spec §8): adding a NOT NULL column emits a
// single ADD COLUMN statement.
func TestEndToEnd_AddColumn(t *testing.T) {
	c := qt.New(t)

	main := catalog.New()
	main.Tables["table:public.u"] = &catalog.Table{
		Schema: "public", Name: "u", Owner: "postgres",
		Columns: []*catalog.Column{{Name: "id", DataType: "integer", TableStableID: "table:public.u"}},
	}
	branch := catalog.New()
	branch.Tables["table:public.u"] = &catalog.Table{
		Schema: "public", Name: "u", Owner: "postgres",
		Columns: []*catalog.Column{
			{Name: "id", DataType: "integer", TableStableID: "table:public.u"},
			{Name: "email", DataType: "text", NotNull: true, TableStableID: "table:public.u"},
		},
	}

	changes, err := diff.Diff(&diff.DiffContext{}, main, branch)
	c.Assert(err, qt.IsNil)
	ordered, err := sort.Sort(changes, main)
	c.Assert(err, qt.IsNil)

	sql := assemble(integration.FilterAll(integration.DefaultConfig(), ordered))
	c.Assert(sql, qt.Contains, "ADD COLUMN")
	c.Assert(sql, qt.Contains, "email")
}

func TestAssemble_PrefixesCheckFunctionBodiesOffForRoutines(t *testing.T) {
	c := qt.New(t)

	main := catalog.New()
	branch := catalog.New()
	branch.Procedures["procedure:public.f()"] = &catalog.Procedure{
		Schema: "public", Name: "f", Language: "sql", Body: "select 1", Owner: "postgres",
		RoutineKind: catalog.ProcedureKindFunction,
	}

	changes, err := diff.Diff(&diff.DiffContext{}, main, branch)
	c.Assert(err, qt.IsNil)
	ordered, err := sort.Sort(changes, main)
	c.Assert(err, qt.IsNil)

	sql := assemble(integration.FilterAll(integration.DefaultConfig(), ordered))
	c.Assert(sql, qt.Matches, `(?s)^SET check_function_bodies = false;.*`)
}

func indexOfSubstring(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

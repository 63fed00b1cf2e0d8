package catalog

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

func TestSchema_Validate(t *testing.T) {
	c := qt.New(t)

	c.Assert((&Schema{Name: "s"}).Validate(), qt.IsNil)

	err := (&Schema{}).Validate()
	var verr *pgerr.ModelValidationError
	c.Assert(errors.As(err, &verr), qt.IsTrue)
	c.Assert(verr.Kind, qt.Equals, string(KindSchema))
}

func TestTable_Validate_ChecksOwnedColumnsAndConstraints(t *testing.T) {
	c := qt.New(t)

	valid := &Table{
		Schema: "s", Name: "t",
		Columns:     []*Column{{Name: "id", DataType: "integer", TableStableID: "table:s.t"}},
		Constraints: []*Constraint{{Name: "t_pkey", Type: ConstraintPrimaryKey, TableStableID: "table:s.t"}},
	}
	c.Assert(valid.Validate(), qt.IsNil)

	badColumn := &Table{
		Schema: "s", Name: "t",
		Columns: []*Column{{DataType: "integer", TableStableID: "table:s.t"}}, // missing Name
	}
	err := badColumn.Validate()
	var verr *pgerr.ModelValidationError
	c.Assert(errors.As(err, &verr), qt.IsTrue)
	c.Assert(verr.Kind, qt.Equals, string(KindColumn))
}

func TestEnum_Validate_RequiresAtLeastOneValue(t *testing.T) {
	c := qt.New(t)

	c.Assert((&Enum{Schema: "s", Name: "e", Values: []string{"a"}}).Validate(), qt.IsNil)
	c.Assert((&Enum{Schema: "s", Name: "e"}).Validate(), qt.Not(qt.IsNil))
}

func TestCatalog_Validate_CollectsEveryFailure(t *testing.T) {
	c := qt.New(t)

	cat := New()
	cat.Schemas["schema:"] = &Schema{}
	cat.Roles["role:"] = &Role{}
	cat.Schemas["schema:ok"] = &Schema{Name: "ok"}

	err := cat.Validate()
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(err.Error(), qt.Contains, "schema")
	c.Assert(err.Error(), qt.Contains, "role")
}

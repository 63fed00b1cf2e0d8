package integration

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
)

func TestFilter_PureConninfoChangeDropped(t *testing.T) {
	c := qt.New(t)

	sub := change.New(change.OpAlter, catalog.KindSubscription, change.ScopeObject, "subscription:sub1").
		WithRequires("subscription:sub1").
		WithSensitiveValue("conninfo", "host=old").
		WithSQL("ALTER SUBSCRIPTION sub1 CONNECTION 'host=old'")

	c.Assert(Filter(DefaultConfig(), sub), qt.IsTrue)
}

func TestFilter_ConninfoPlusOtherFieldKept(t *testing.T) {
	c := qt.New(t)

	sub := change.New(change.OpAlter, catalog.KindSubscription, change.ScopeObject, "subscription:sub1").
		WithRequires("subscription:sub1").
		WithSensitiveValue("conninfo", "host=old").
		WithChangedField("enabled").
		WithSQL("ALTER SUBSCRIPTION sub1 CONNECTION 'host=old' ENABLE")

	c.Assert(Filter(DefaultConfig(), sub), qt.IsFalse)

	out := Serialize(DefaultConfig(), sub)
	c.Assert(out, qt.Contains, "-- WARNING:")
	c.Assert(out, qt.Contains, "__CONNINFO__")
	c.Assert(out, qt.Not(qt.Contains), "host=old")
}

func TestFilter_CreateNeverDroppedEvenIfOnlyFieldIsPassword(t *testing.T) {
	c := qt.New(t)

	roleCreate := change.New(change.OpCreate, catalog.KindRole, change.ScopeObject, "role:app").
		WithCreates("role:app").
		WithSensitiveValue("password", "s3cret").
		WithSQL("CREATE ROLE app PASSWORD 's3cret'")

	c.Assert(Filter(DefaultConfig(), roleCreate), qt.IsFalse)
}

func TestFilter_DropSurvivesEvenWithFilterableField(t *testing.T) {
	c := qt.New(t)

	roleDrop := change.New(change.OpDrop, catalog.KindRole, change.ScopeObject, "role:app").
		WithDrops("role:app").
		WithChangedField("password").
		WithSQL("DROP ROLE app")

	c.Assert(Filter(DefaultConfig(), roleDrop), qt.IsFalse)
}

func TestSerialize_FallsBackWhenNoSensitiveValues(t *testing.T) {
	c := qt.New(t)

	plain := change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, "table:public.t").
		WithSQL("ALTER TABLE public.t OWNER TO newowner")

	c.Assert(Serialize(DefaultConfig(), plain), qt.Equals, "")
}

func TestSerialize_MasksOptionsBagByKey(t *testing.T) {
	c := qt.New(t)

	srv := change.New(change.OpAlter, catalog.KindServer, change.ScopeObject, "server:remote1").
		WithSensitiveValue("options", "placeholder").
		WithSQL(`ALTER SERVER remote1 OPTIONS (SET host 'db.internal.example.com', SET port '5432')`)

	out := Serialize(DefaultConfig(), srv)
	c.Assert(out, qt.Contains, "__OPTION_HOST__")
	c.Assert(out, qt.Contains, "__OPTION_PORT__")
	c.Assert(out, qt.Not(qt.Contains), "db.internal.example.com")
}

func TestNeedsCheckFunctionBodiesOff(t *testing.T) {
	c := qt.New(t)

	withProc := []*change.Change{
		change.New(change.OpCreate, catalog.KindProcedure, change.ScopeObject, "procedure:public.f()"),
	}
	c.Assert(NeedsCheckFunctionBodiesOff(withProc), qt.IsTrue)

	withoutProc := []*change.Change{
		change.New(change.OpCreate, catalog.KindTable, change.ScopeObject, "table:public.t"),
	}
	c.Assert(NeedsCheckFunctionBodiesOff(withoutProc), qt.IsFalse)
}

func TestApplyIgnoredExtensions(t *testing.T) {
	c := qt.New(t)

	main := catalog.New()
	main.Extensions["extension:plpgsql"] = &catalog.Extension{Name: "plpgsql"}
	main.Extensions["extension:pg_trgm"] = &catalog.Extension{Name: "pg_trgm"}
	branch := catalog.New()
	branch.Extensions["extension:plpgsql"] = &catalog.Extension{Name: "plpgsql"}

	cfg := DefaultConfig()
	ApplyIgnoredExtensions(cfg, main, branch)

	_, stillPresent := main.Extensions["extension:plpgsql"]
	c.Assert(stillPresent, qt.IsFalse)
	_, unaffected := main.Extensions["extension:pg_trgm"]
	c.Assert(unaffected, qt.IsTrue)
}

package sort

import (
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
)

// scenario #1 from spec §8: empty -> schema + table + pkey constraint.
// The sort must produce schema, then table, then the pkey constraint, in
// that order, since each requires the previous.
func TestSort_CreateSchemaTableConstraint(t *testing.T) {
	c := qt.New(t)

	schemaChange := change.New(change.OpCreate, catalog.KindSchema, change.ScopeObject, "schema:s").
		WithCreates("schema:s").WithSQL("CREATE SCHEMA s")
	tableChange := change.New(change.OpCreate, catalog.KindTable, change.ScopeObject, "table:s.t").
		WithCreates("table:s.t").WithRequires("schema:s").WithSQL("CREATE TABLE s.t (id integer)")
	pkeyChange := change.New(change.OpCreate, catalog.KindConstraint, change.ScopeObject, "constraint:s.t.t_pkey").
		WithCreates("constraint:s.t.t_pkey").WithRequires("table:s.t").
		WithSQL("ALTER TABLE s.t ADD CONSTRAINT t_pkey PRIMARY KEY (id)")

	// Feed in reverse order to prove the sort, not insertion order, decides.
	in := []*change.Change{pkeyChange, tableChange, schemaChange}
	out, err := Sort(in, catalog.New())
	c.Assert(err, qt.IsNil)
	c.Assert(len(out), qt.Equals, 3)
	c.Assert(out[0].StableID, qt.Equals, "schema:s")
	c.Assert(out[1].StableID, qt.Equals, "table:s.t")
	c.Assert(out[2].StableID, qt.Equals, "constraint:s.t.t_pkey")
}

// Order insensitivity under filter (spec §8 property 7): a random
// permutation of the pre-sort change set yields the same final ordering.
func TestSort_OrderInsensitive(t *testing.T) {
	c := qt.New(t)

	base := []*change.Change{
		change.New(change.OpCreate, catalog.KindSchema, change.ScopeObject, "schema:s").
			WithCreates("schema:s").WithSQL("CREATE SCHEMA s"),
		change.New(change.OpCreate, catalog.KindTable, change.ScopeObject, "table:s.t").
			WithCreates("table:s.t").WithRequires("schema:s").WithSQL("CREATE TABLE s.t (id integer)"),
		change.New(change.OpCreate, catalog.KindConstraint, change.ScopeObject, "constraint:s.t.t_pkey").
			WithCreates("constraint:s.t.t_pkey").WithRequires("table:s.t").
			WithSQL("ALTER TABLE s.t ADD CONSTRAINT t_pkey PRIMARY KEY (id)"),
		change.New(change.OpCreate, catalog.KindIndex, change.ScopeObject, "index:s.t.ix").
			WithCreates("index:s.t.ix").WithRequires("table:s.t").WithSQL("CREATE INDEX ix ON s.t (id)"),
	}

	want, err := Sort(append([]*change.Change{}, base...), catalog.New())
	c.Assert(err, qt.IsNil)
	wantIDs := idsOf(want)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		perm := append([]*change.Change{}, base...)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		got, err := Sort(perm, catalog.New())
		c.Assert(err, qt.IsNil)
		c.Assert(idsOf(got), qt.DeepEquals, wantIDs)
	}
}

// A requirement already satisfied by startingCatalog needs no producer
// edge (spec §4.4 rule 1): altering a table that already exists in main
// must not block on anything.
func TestSort_RequirementSatisfiedByStartingCatalog(t *testing.T) {
	c := qt.New(t)

	alterChange := change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, "table:s.t").
		WithRequires("table:s.t").WithSQL("ALTER TABLE s.t ADD COLUMN email text")

	out, err := Sort([]*change.Change{alterChange}, catalog.New())
	c.Assert(err, qt.IsNil)
	c.Assert(len(out), qt.Equals, 1)
}

// Consumer-before-dropper (spec §4.4 rule 2): a change that requires an
// index must run before the change that drops that index.
func TestSort_ConsumerBeforeDropper(t *testing.T) {
	c := qt.New(t)

	dropIndex := change.New(change.OpDrop, catalog.KindIndex, change.ScopeObject, "index:s.t.ix").
		WithDrops("index:s.t.ix").WithSQL("DROP INDEX s.t.ix")
	useIndex := change.New(change.OpAlter, catalog.KindTable, change.ScopeObject, "table:s.t").
		WithRequires("index:s.t.ix").WithSQL("ALTER TABLE s.t REPLICA IDENTITY USING INDEX ix")

	out, err := Sort([]*change.Change{dropIndex, useIndex}, catalog.New())
	c.Assert(err, qt.IsNil)
	c.Assert(out[0].StableID, qt.Equals, "table:s.t")
	c.Assert(out[1].StableID, qt.Equals, "index:s.t.ix")
}

// spec §4.4 rule 2's "or d ∈ U.drops" half: two emitted changes that both
// list the same stable_id in their drops set are mutually ordered against
// each other (each must run before the other drops the id they share), not
// just against changes that still require it. No real differ in this
// package ever emits two changes sharing a dropped id -- each drops only
// the single id for the object it owns -- so this is defensive: if it ever
// did happen, the result is an unresolvable pair, which Sort correctly
// reports as a dependency cycle rather than picking an arbitrary winner.
func TestSort_DropperBeforeDropperSharingAnID(t *testing.T) {
	c := qt.New(t)

	dropTable := change.New(change.OpDrop, catalog.KindTable, change.ScopeObject, "table:s.t").
		WithDrops("table:s.t", "index:s.t.ix").WithSQL("DROP TABLE s.t")
	dropIndexStandalone := change.New(change.OpDrop, catalog.KindIndex, change.ScopeObject, "index:s.t.ix").
		WithDrops("index:s.t.ix").WithSQL("DROP INDEX s.t.ix")

	_, err := Sort([]*change.Change{dropIndexStandalone, dropTable}, catalog.New())
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(err.Error(), qt.Contains, "dependency cycle detected")
}

func TestSort_CycleDetected(t *testing.T) {
	c := qt.New(t)

	a := change.New(change.OpCreate, catalog.KindTable, change.ScopeObject, "table:s.a").
		WithCreates("table:s.a").WithRequires("constraint:s.b.fk")
	b := change.New(change.OpCreate, catalog.KindConstraint, change.ScopeObject, "constraint:s.b.fk").
		WithCreates("constraint:s.b.fk").WithRequires("table:s.a")

	_, err := Sort([]*change.Change{a, b}, catalog.New())
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(err.Error(), qt.Contains, "dependency cycle detected")
}

func TestSort_TriggerRefinedToCreateOrReplace(t *testing.T) {
	c := qt.New(t)

	drop := change.New(change.OpDrop, catalog.KindTrigger, change.ScopeObject, "trigger:s.t.trg").
		WithDrops("trigger:s.t.trg").WithSQL("DROP TRIGGER trg ON s.t")
	create := change.New(change.OpCreate, catalog.KindTrigger, change.ScopeObject, "trigger:s.t.trg").
		WithCreates("trigger:s.t.trg").WithRequires("table:s.t").
		WithSQL("CREATE TRIGGER trg AFTER INSERT ON s.t EXECUTE FUNCTION f()")

	out, err := Sort([]*change.Change{drop, create}, catalog.New())
	c.Assert(err, qt.IsNil)
	c.Assert(len(out), qt.Equals, 1)
	c.Assert(out[0].Operation, qt.Equals, change.OpAlter)
	c.Assert(out[0].SQL, qt.Contains, "CREATE OR REPLACE TRIGGER trg")
}

func idsOf(changes []*change.Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.StableID
	}
	return out
}

package diff

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

// spec §8 universal property 1: diff(A, A) is empty.
func TestDiff_SelfDiffIsEmpty(t *testing.T) {
	c := qt.New(t)

	cat := catalog.New()
	cat.Schemas["schema:s"] = &catalog.Schema{Name: "s", Owner: "postgres"}
	cat.Tables["table:s.t"] = &catalog.Table{
		Schema: "s", Name: "t", Owner: "postgres",
		Columns: []*catalog.Column{{Name: "id", DataType: "integer", TableStableID: "table:s.t"}},
	}

	out, err := Diff(&DiffContext{}, cat, cat)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.HasLen, 0)
}

func TestDiffSchemas_CreateDropAlterOwner(t *testing.T) {
	c := qt.New(t)

	main := map[string]*catalog.Schema{
		"schema:old": {Name: "old", Owner: "postgres"},
		"schema:s":   {Name: "s", Owner: "o1"},
	}
	branch := map[string]*catalog.Schema{
		"schema:s":   {Name: "s", Owner: "o2"},
		"schema:new": {Name: "new", Owner: "postgres"},
	}

	out := diffSchemas(&DiffContext{}, main, branch)

	var creates, drops, alters int
	for _, ch := range out {
		switch ch.Operation {
		case change.OpCreate:
			creates++
			c.Assert(ch.StableID, qt.Equals, "schema:new")
		case change.OpDrop:
			drops++
			c.Assert(ch.StableID, qt.Equals, "schema:old")
		case change.OpAlter:
			alters++
			c.Assert(ch.StableID, qt.Equals, "schema:s")
			c.Assert(ch.SQL, qt.Contains, "OWNER TO o2")
		}
	}
	c.Assert(creates, qt.Equals, 1)
	c.Assert(drops, qt.Equals, 1)
	c.Assert(alters, qt.Equals, 1)
}

// Boundary property: an object differing only in comment emits exactly
// one comment change.
func TestDiffSchemas_CommentOnlyChangeEmitsOneChange(t *testing.T) {
	c := qt.New(t)

	main := map[string]*catalog.Schema{"schema:s": {Name: "s", Owner: "postgres", Comment: "old"}}
	branch := map[string]*catalog.Schema{"schema:s": {Name: "s", Owner: "postgres", Comment: "new"}}

	out := diffSchemas(&DiffContext{}, main, branch)
	c.Assert(out, qt.HasLen, 1)
	c.Assert(out[0].Scope, qt.Equals, change.ScopeComment)
	c.Assert(out[0].SQL, qt.Contains, "COMMENT ON")
}

func TestDiffPrivilegeDeltas_ThreeWayStates(t *testing.T) {
	c := qt.New(t)

	main := []catalog.Privilege{
		{Grantee: "alice", Privilege: "SELECT", Grantable: false},
		{Grantee: "bob", Privilege: "INSERT", Grantable: true},
		{Grantee: "carol", Privilege: "UPDATE", Grantable: false},
	}
	branch := []catalog.Privilege{
		{Grantee: "alice", Privilege: "SELECT", Grantable: true},  // gains grant option
		{Grantee: "bob", Privilege: "INSERT", Grantable: false},   // loses grant option only
		{Grantee: "dave", Privilege: "DELETE", Grantable: false},  // brand new grant
		// carol's UPDATE dropped entirely -> revoke
	}

	deltas := DiffPrivilegeDeltas(&DiffContext{}, "owner", main, branch)

	byGrantee := map[string]PrivilegeDelta{}
	for _, d := range deltas {
		byGrantee[d.Grantee] = d
	}

	c.Assert(byGrantee["alice"].Action, qt.Equals, PrivGrantOption)
	c.Assert(byGrantee["bob"].Action, qt.Equals, PrivRevokeGrantOption)
	c.Assert(byGrantee["carol"].Action, qt.Equals, PrivRevoke)
	c.Assert(byGrantee["dave"].Action, qt.Equals, PrivGrant)
	c.Assert(deltas, qt.HasLen, 4)
}

// spec §4.1: the owner's own implicit grant row never surfaces as a diff.
func TestDiffPrivilegeDeltas_OwnerRowFiltered(t *testing.T) {
	c := qt.New(t)

	main := []catalog.Privilege{{Grantee: "owner", Privilege: "ALL", Grantable: true}}
	branch := []catalog.Privilege{{Grantee: "owner", Privilege: "ALL", Grantable: true}}

	deltas := DiffPrivilegeDeltas(&DiffContext{}, "owner", main, branch)
	c.Assert(deltas, qt.HasLen, 0)
}

// spec §4.1: an explicit GRANT to a superuser is filtered even when that
// superuser is not the object's owner -- a distinct rule from the owner
// implicit-grant filter above.
func TestDiffPrivilegeDeltas_SuperuserGranteeFiltered(t *testing.T) {
	c := qt.New(t)

	ctx := &DiffContext{Superusers: map[string]bool{"admin": true}}
	main := []catalog.Privilege{{Grantee: "admin", Privilege: "ALL", Grantable: true}}
	branch := []catalog.Privilege{
		{Grantee: "admin", Privilege: "ALL", Grantable: true},
		{Grantee: "alice", Privilege: "SELECT", Grantable: false},
	}

	deltas := DiffPrivilegeDeltas(ctx, "owner", main, branch)
	c.Assert(deltas, qt.HasLen, 1)
	c.Assert(deltas[0].Grantee, qt.Equals, "alice")
}

func TestRevokeGrantOptionSQL_VersionSensitiveFormatting(t *testing.T) {
	c := qt.New(t)

	pre15 := revokeGrantOptionSQL(&DiffContext{PGMajorVersion: 14}, "public.t", "SELECT", "alice")
	c.Assert(pre15, qt.Not(qt.Contains), "CASCADE")

	post15 := revokeGrantOptionSQL(&DiffContext{PGMajorVersion: 15}, "public.t", "SELECT", "alice")
	c.Assert(post15, qt.Contains, "CASCADE")
}

// spec §4.2/§7: an UPDATE OF trigger whose owning table can't be found in
// the catalog is a fatal DiffInvariantError, not a silently-degraded
// unqualified UPDATE trigger.
func TestDiffTriggers_UnresolvableUpdateColumnIsFatal(t *testing.T) {
	c := qt.New(t)

	main := catalog.New()
	branch := catalog.New()
	branch.Triggers["trigger:s.t.trg"] = &catalog.Trigger{
		Schema: "s", TableName: "t", Name: "trg",
		Timing: "BEFORE", Events: []string{"UPDATE"}, UpdateColumnNumbers: []int{1},
		Level: "ROW", FunctionSchema: "s", FunctionName: "f",
	}

	_, err := diffTriggers(&DiffContext{}, main, branch)
	c.Assert(err, qt.Not(qt.IsNil))
	var invErr *pgerr.DiffInvariantError
	c.Assert(errors.As(err, &invErr), qt.IsTrue)
	c.Assert(invErr.Reason, qt.Contains, "trigger column number not resolvable")
}

func TestDiffOwnership(t *testing.T) {
	c := qt.New(t)

	c.Assert(DiffOwnership(catalog.KindTable, "table:s.t", "s.t", "o1", "o1"), qt.IsNil)

	ch := DiffOwnership(catalog.KindTable, "table:s.t", "s.t", "o1", "o2")
	c.Assert(ch, qt.Not(qt.IsNil))
	c.Assert(ch.Scope, qt.Equals, change.ScopeOwnership)
	c.Assert(ch.SQL, qt.Equals, "ALTER s.t OWNER TO o2")
	c.Assert(ch.RequiresIDs, qt.Contains, "role:o2")
}

func TestDiffComment(t *testing.T) {
	c := qt.New(t)

	c.Assert(DiffComment(catalog.KindTable, "table:s.t", "TABLE s.t", "same", "same"), qt.IsNil)

	added := DiffComment(catalog.KindTable, "table:s.t", "TABLE s.t", "", "hello")
	c.Assert(added.SQL, qt.Equals, "COMMENT ON TABLE s.t IS 'hello'")

	removed := DiffComment(catalog.KindTable, "table:s.t", "TABLE s.t", "hello", "")
	c.Assert(removed.SQL, qt.Equals, "COMMENT ON TABLE s.t IS NULL")
}

// Package diff implements the per-kind differs that turn a pair of
// catalog.Catalog snapshots into a flat, unordered slice of change.Change
// values (spec §4). internal/sort is responsible for everything about
// ordering; every diff_<kind> function here is free to emit its changes in
// whatever order is convenient.
package diff

import (
	"sort"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
)

// DiffContext threads cross-cutting state through every per-kind differ:
// the target server's major version (spec §9 Open Question 2, formatting
// of GRANT OPTION FOR revokes) and the set of superuser role names used to
// filter their implicit self-grants out of privilege diffing (spec §4.1).
type DiffContext struct {
	PGMajorVersion int
	Superusers     map[string]bool
}

// IsSuperuser reports whether role is a known superuser; a nil Superusers
// map (the zero DiffContext) means "none known".
func (c *DiffContext) IsSuperuser(role string) bool {
	return c != nil && c.Superusers[role]
}

// Diff compares main against branch and returns every Change needed to
// bring main's schema to branch's (spec §3's overall contract: Diff(main,
// branch) -> []Change). The result is unordered; callers run it through
// internal/sort before serializing. The only failure mode is a
// pgerr.DiffInvariantError from trigger column resolution (spec §4.2);
// every other differ here is total over its inputs.
func Diff(ctx *DiffContext, main, branch *catalog.Catalog) ([]*change.Change, error) {
	var out []*change.Change

	out = append(out, diffSchemas(ctx, main.Schemas, branch.Schemas)...)
	out = append(out, diffRoles(ctx, main.Roles, branch.Roles)...)
	out = append(out, diffExtensions(ctx, main.Extensions, branch.Extensions)...)
	out = append(out, diffCollations(ctx, main.Collations, branch.Collations)...)
	out = append(out, diffDomains(ctx, main.Domains, branch.Domains)...)
	out = append(out, diffEnums(ctx, main.Enums, branch.Enums)...)
	out = append(out, diffComposites(ctx, main.CompositeTypes, branch.CompositeTypes)...)
	out = append(out, diffRanges(ctx, main.Ranges, branch.Ranges)...)
	out = append(out, diffSequences(ctx, main.Sequences, branch.Sequences)...)
	out = append(out, diffTables(ctx, main.Tables, branch.Tables)...)
	out = append(out, diffIndexes(ctx, main.Indexes, branch.Indexes)...)
	out = append(out, diffViews(ctx, main.Views, branch.Views)...)
	out = append(out, diffMaterializedViews(ctx, main.MaterializedViews, branch.MaterializedViews)...)
	out = append(out, diffProcedures(ctx, main.Procedures, branch.Procedures)...)

	triggerChanges, err := diffTriggers(ctx, main, branch)
	if err != nil {
		return nil, err
	}
	out = append(out, triggerChanges...)

	out = append(out, diffPolicies(ctx, main.Policies, branch.Policies)...)
	out = append(out, diffPublications(ctx, main.Publications, branch.Publications)...)
	out = append(out, diffSubscriptions(ctx, main.Subscriptions, branch.Subscriptions)...)
	out = append(out, diffFDWs(ctx, main.ForeignDataWrappers, branch.ForeignDataWrappers)...)
	out = append(out, diffServers(ctx, main.Servers, branch.Servers)...)
	out = append(out, diffUserMappings(ctx, main.UserMappings, branch.UserMappings)...)
	out = append(out, diffForeignTables(ctx, main.ForeignTables, branch.ForeignTables)...)
	out = append(out, diffEventTriggers(ctx, main.EventTriggers, branch.EventTriggers)...)
	out = append(out, diffMemberships(ctx, main.Memberships, branch.Memberships)...)
	out = append(out, diffDefaultPrivileges(ctx, main.DefaultPrivileges, branch.DefaultPrivileges)...)

	return out, nil
}

// added, removed and common partitions two stable_id-keyed maps' key sets.
// Every per-kind differ reduces to these three buckets (spec §4.2's
// uniform "create what's only in branch, drop what's only in main, diff
// the rest" shape).
func added[T any](main, branch map[string]T) []string  { return keysOnlyIn(branch, main) }
func removed[T any](main, branch map[string]T) []string { return keysOnlyIn(main, branch) }

func keysOnlyIn[T any](have, lack map[string]T) []string {
	var out []string
	for k := range have {
		if _, ok := lack[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func common[T any](main, branch map[string]T) []string {
	var out []string
	for k := range main {
		if _, ok := branch[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

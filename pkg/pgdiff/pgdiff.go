// Package pgdiff ties the extractor, diff engine, dependency sort, and
// integration layer together into one entry point: given two live Postgres
// databases, produce the SQL script that migrates the first to match the
// second (spec §3, §5).
//
// Grounded on migration/generator/generator.go's "parse, read, diff, plan"
// shape: GenerateMigration there runs four ordered phases and returns a
// MigrationFiles result; Migrate here runs the schema-diff equivalent of
// those same four phases (extract, diff, sort, integrate) and returns a
// Script.
package pgdiff

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/diff"
	"github.com/pgschemadiff/pgschemadiff/internal/extract"
	"github.com/pgschemadiff/pgschemadiff/internal/integration"
	"github.com/pgschemadiff/pgschemadiff/internal/sort"
)

// Options configures a Migrate call. MainDSN and BranchDSN are required;
// everything else has a conventional default (spec §4.5, §4.1).
type Options struct {
	// MainDSN is the database being migrated; BranchDSN is the desired
	// target state.
	MainDSN, BranchDSN string

	// PGMajorVersion threads into diff.DiffContext for version-sensitive
	// SQL formatting (spec §9 Open Question 2: GRANT OPTION FOR revokes).
	// Zero means "assume the newest syntax."
	PGMajorVersion int

	// IgnoredExtensions overrides integration.DefaultConfig's extension
	// allowlist; nil keeps the default ("plpgsql").
	IgnoredExtensions []string

	// Logger receives Debug-level phase tracing and a Warn-level notice
	// when env-dependent changes are filtered out (spec §3.4); masking is
	// not logged. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) integrationConfig() *integration.Config {
	if o.IgnoredExtensions == nil {
		return integration.DefaultConfig()
	}
	return integration.WithIgnoredExtensions(o.IgnoredExtensions...)
}

// Script is the final output of Migrate: a dependency-ordered, integration-
// filtered change list plus the assembled SQL text (spec §6.2).
type Script struct {
	Changes []*change.Change
	SQL     string
}

// Migrate runs the full pipeline: concurrent extraction of both catalogs,
// diffing, dependency sort, and integration filtering/serialization (spec
// §5's four-phase contract). An empty Script (nil Changes, "" SQL) with a
// nil error means the two databases already match.
func Migrate(ctx context.Context, opts Options) (*Script, error) {
	log := opts.logger()

	log.DebugContext(ctx, "pgdiff: extracting catalogs", "main", opts.MainDSN, "branch", opts.BranchDSN)
	both, err := extract.ExtractBoth(ctx, opts.MainDSN, opts.BranchDSN)
	if err != nil {
		return nil, fmt.Errorf("pgdiff: extraction: %w", err)
	}

	cfg := opts.integrationConfig()
	integration.ApplyIgnoredExtensions(cfg, both.Main, both.Branch)

	superusers := map[string]bool{}
	for _, r := range both.Main.Roles {
		if r.Superuser {
			superusers[r.Name] = true
		}
	}
	for _, r := range both.Branch.Roles {
		if r.Superuser {
			superusers[r.Name] = true
		}
	}

	diffCtx := &diff.DiffContext{PGMajorVersion: opts.PGMajorVersion, Superusers: superusers}

	log.DebugContext(ctx, "pgdiff: diffing catalogs")
	changes, err := diff.Diff(diffCtx, both.Main, both.Branch)
	if err != nil {
		return nil, fmt.Errorf("pgdiff: diff: %w", err)
	}
	if len(changes) == 0 {
		return &Script{}, nil
	}

	log.DebugContext(ctx, "pgdiff: sorting changes", "count", len(changes))
	ordered, err := sort.Sort(changes, both.Main)
	if err != nil {
		return nil, fmt.Errorf("pgdiff: dependency sort: %w", err)
	}

	filtered := integration.FilterAll(cfg, ordered)
	if dropped := len(ordered) - len(filtered); dropped > 0 {
		log.WarnContext(ctx, "pgdiff: dropped env-dependent changes", "count", dropped)
	}
	if len(filtered) == 0 {
		return &Script{}, nil
	}

	sql := assemble(filtered)
	return &Script{Changes: filtered, SQL: sql}, nil
}

// assemble joins the serialized form of every change into one script,
// prefixing the routine session flag spec §4.4/§6.2 requires whenever any
// change touches a function, procedure, or aggregate.
func assemble(changes []*change.Change) string {
	var b strings.Builder
	if integration.NeedsCheckFunctionBodiesOff(changes) {
		b.WriteString("SET check_function_bodies = false;\n\n")
	}

	stmts := make([]string, 0, len(changes))
	for _, c := range changes {
		s := integration.Serialize(nil, c)
		if s == "" {
			s = c.Serialize()
		}
		// Dependency-only placeholders (e.g. a new table's columns and
		// constraints, already inlined into its CREATE TABLE statement)
		// carry no SQL of their own; they exist purely to give the sort
		// engine a stable_id to order against, so they contribute nothing
		// to the script.
		if s == "" {
			continue
		}
		stmts = append(stmts, s)
	}
	b.WriteString(strings.Join(stmts, ";\n\n"))
	b.WriteString(";\n")
	return b.String()
}

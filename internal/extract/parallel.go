package extract

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

// Both holds the two extracted snapshots spec §5 diffs against each other.
type Both struct {
	Main   *catalog.Catalog
	Branch *catalog.Catalog
}

// ExtractBoth opens and extracts mainDSN and branchDSN concurrently (spec
// §5: "the two catalog extractions run concurrently with each other"),
// tagging each extraction with a correlation id that a failure's error
// message carries, so its origin is traceable independent of which of the
// two finished first.
//
// Grounded on sourcegraph/conc's pool.ResultContextPool for the two-way
// fan-out. Within a single extraction the per-kind steps run sequentially
// against that database's *sql.DB; the one further fan-out is in
// extractTables, which runs each table's column and constraint queries
// concurrently with errgroup.
func ExtractBoth(ctx context.Context, mainDSN, branchDSN string) (*Both, error) {
	type labeled struct {
		database string
		corrID   string
		cat      *catalog.Catalog
	}

	p := pool.NewWithResults[labeled]().WithErrors().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) (labeled, error) {
		corrID := uuid.NewString()
		cat, err := extractOne(ctx, mainDSN)
		if err != nil {
			return labeled{}, fmt.Errorf("main extraction %s: %w", corrID, err)
		}
		return labeled{database: "main", corrID: corrID, cat: cat}, nil
	})
	p.Go(func(ctx context.Context) (labeled, error) {
		corrID := uuid.NewString()
		cat, err := extractOne(ctx, branchDSN)
		if err != nil {
			return labeled{}, fmt.Errorf("branch extraction %s: %w", corrID, err)
		}
		return labeled{database: "branch", corrID: corrID, cat: cat}, nil
	})

	results, err := p.Wait()
	if err != nil {
		return nil, &pgerr.ExtractionError{Database: "main+branch", Err: err}
	}

	out := &Both{}
	for _, r := range results {
		switch r.database {
		case "main":
			out.Main = r.cat
		case "branch":
			out.Branch = r.cat
		}
	}
	return out, nil
}

func extractOne(ctx context.Context, dsn string) (*catalog.Catalog, error) {
	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(db)

	return New(db).Extract(ctx)
}

func closeQuietly(db *sql.DB) {
	_ = db.Close()
}

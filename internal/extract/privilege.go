package extract

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
)

// privilegesForACL explodes a single pg_catalog ACL column (relacl,
// nspacl, proacl, typacl, fdwacl, srvacl, ...) for the row identified by
// oidExpr into catalog.Privilege rows. aclexplode does all the ACL-item
// parsing; this just shapes its output into the model's type.
func (e *Extractor) privilegesForACL(ctx context.Context, catalogTable, aclColumn, oidExpr string, oid any) ([]catalog.Privilege, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(g.rolname, 'public') AS grantee, a.privilege_type, a.is_grantable
		FROM %s t, LATERAL aclexplode(COALESCE(t.%s, acldefault('r', t.%s))) a
		LEFT JOIN pg_roles g ON g.oid = a.grantee
		WHERE t.%s = $1`, catalogTable, aclColumn, ownerColumnFor(catalogTable), oidExpr)

	rows, err := e.db.QueryContext(ctx, query, oid)
	if err != nil {
		return nil, fmt.Errorf("reading %s.%s privileges: %w", catalogTable, aclColumn, err)
	}
	defer rows.Close()
	return scanPrivileges(rows)
}

// ownerColumnFor names the owner column acldefault needs as its second
// argument to synthesize the implicit owner-only ACL when the column
// itself is NULL (the catalog's convention for "never explicitly
// GRANT/REVOKEd since creation").
func ownerColumnFor(catalogTable string) string {
	switch catalogTable {
	case "pg_class":
		return "relowner"
	case "pg_namespace":
		return "nspowner"
	case "pg_proc":
		return "proowner"
	case "pg_type":
		return "typowner"
	case "pg_foreign_data_wrapper":
		return "fdwowner"
	case "pg_foreign_server":
		return "srvowner"
	default:
		return "relowner"
	}
}

func scanPrivileges(rows *sql.Rows) ([]catalog.Privilege, error) {
	var out []catalog.Privilege
	for rows.Next() {
		var p catalog.Privilege
		if err := rows.Scan(&p.Grantee, &p.Privilege, &p.Grantable); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

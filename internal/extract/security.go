package extract

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

func (e *Extractor) extractPolicies(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT n.nspname, t.relname, pol.polname, pol.polcmd, pol.polpermissive,
		       COALESCE(pg_get_expr(pol.polqual, pol.polrelid), ''),
		       COALESCE(pg_get_expr(pol.polwithcheck, pol.polrelid), ''),
		       COALESCE(obj_description(pol.oid, 'pg_policy'), ''),
		       COALESCE((SELECT array_agg(rolname) FROM pg_roles WHERE oid = ANY(pol.polroles)), '{}')
		FROM pg_policy pol
		JOIN pg_class t ON t.oid = pol.polrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading policies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cmd string
		p := &catalog.Policy{}
		if err := rows.Scan(&p.Schema, &p.TableName, &p.Name, &cmd, &p.Permissive,
			&p.UsingExpression, &p.CheckExpression, &p.Comment, &p.Roles); err != nil {
			return err
		}
		p.Command = policyCommandWord(cmd)
		if len(p.Roles) == 0 {
			p.Roles = []string{"public"}
		}
		cat.Policies[p.StableID()] = p
	}
	return rows.Err()
}

func policyCommandWord(code string) string {
	switch code {
	case "r":
		return "SELECT"
	case "a":
		return "INSERT"
	case "w":
		return "UPDATE"
	case "d":
		return "DELETE"
	default:
		return "ALL"
	}
}

func (e *Extractor) extractMemberships(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT r.rolname, m.rolname, am.admin_option, am.inherit_option, am.set_option,
		       COALESCE(gb.rolname, '')
		FROM pg_auth_members am
		JOIN pg_roles r ON r.oid = am.roleid
		JOIN pg_roles m ON m.oid = am.member
		LEFT JOIN pg_roles gb ON gb.oid = am.grantor`)
	if err != nil {
		return fmt.Errorf("reading role memberships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ms := &catalog.Membership{}
		if err := rows.Scan(&ms.Role, &ms.Member, &ms.AdminOption, &ms.InheritOption, &ms.SetOption, &ms.GrantedBy); err != nil {
			return err
		}
		cat.Memberships[ms.StableID()] = ms
	}
	return rows.Err()
}

func (e *Extractor) extractDefaultPrivileges(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT pg_get_userbyid(d.defaclrole), COALESCE(n.nspname, ''), d.defaclobjtype, d.defaclacl
		FROM pg_default_acl d
		LEFT JOIN pg_namespace n ON n.oid = d.defacinamespace`)
	if err != nil {
		return fmt.Errorf("reading default privileges: %w", err)
	}
	defer rows.Close()

	type row struct {
		grantor, schema, objType string
		acl                      []string
	}
	var parsed []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.grantor, &r.schema, &r.objType, &r.acl); err != nil {
			return err
		}
		parsed = append(parsed, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var errs error
	for _, r := range parsed {
		byGrantee := map[string][]catalog.Privilege{}
		for _, item := range r.acl {
			grantee, priv, grantable := parseACLItem(item)
			if grantee == "" {
				errs = multierr.Append(errs, &pgerr.ModelValidationError{
					Kind: "default_privilege", Row: item,
					Err: fmt.Errorf("unparseable aclitem for role %q in schema %q", r.grantor, r.schema),
				})
				continue
			}
			byGrantee[grantee] = append(byGrantee[grantee], catalog.Privilege{Grantee: grantee, Privilege: priv, Grantable: grantable})
		}
		for grantee, privs := range byGrantee {
			dp := &catalog.DefaultPrivilege{
				Grantor:    r.grantor,
				Grantee:    grantee,
				Schema:     r.schema,
				ObjectType: r.objType,
				Privileges: privs,
			}
			cat.DefaultPrivileges[dp.StableID()] = dp
		}
	}
	// Malformed aclitem rows are collected rather than aborting the whole
	// extraction on the first one, so a single corrupt default-ACL entry
	// doesn't hide every other invariant violation in the same pass.
	return errs
}

// parseACLItem decodes a single aclitem's text form "grantee=privs/grantor"
// where each privilege letter may be followed by "*" marking WITH GRANT
// OPTION. This is used only for pg_default_acl.defaclacl, which arrives as
// text[] rather than via aclexplode (that function only accepts the
// relation/object ACL types, not the default-ACL aggregate column).
func parseACLItem(item string) (grantee, privilege string, grantable bool) {
	eq := indexByte(item, '=')
	slash := lastIndexByte(item, '/')
	if eq < 0 || slash < 0 || slash < eq {
		return "", "", false
	}
	grantee = item[:eq]
	if grantee == "" {
		grantee = "public"
	}
	privChars := item[eq+1 : slash]
	if len(privChars) == 0 {
		return grantee, "", false
	}
	code := privChars[0]
	grantable = len(privChars) > 1 && privChars[1] == '*'
	return grantee, aclCodeToPrivilege(code), grantable
}

func aclCodeToPrivilege(code byte) string {
	switch code {
	case 'r':
		return "SELECT"
	case 'w':
		return "UPDATE"
	case 'a':
		return "INSERT"
	case 'd':
		return "DELETE"
	case 'D':
		return "TRUNCATE"
	case 'x':
		return "REFERENCES"
	case 't':
		return "TRIGGER"
	case 'X':
		return "EXECUTE"
	case 'U':
		return "USAGE"
	case 'C':
		return "CREATE"
	case 'c':
		return "CONNECT"
	case 'T':
		return "TEMPORARY"
	default:
		return string(code)
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

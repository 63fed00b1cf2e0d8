package extract

import (
	"context"
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
)

func (e *Extractor) extractForeignDataWrappers(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT w.oid, w.fdwname,
		       COALESCE(h.proname, ''), COALESCE(v.proname, ''), w.fdwoptions,
		       pg_get_userbyid(w.fdwowner), COALESCE(obj_description(w.oid, 'pg_foreign_data_wrapper'), '')
		FROM pg_foreign_data_wrapper w
		LEFT JOIN pg_proc h ON h.oid = w.fdwhandler
		LEFT JOIN pg_proc v ON v.oid = w.fdwvalidator`)
	if err != nil {
		return fmt.Errorf("reading foreign data wrappers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid int64
		var rawOptions []string
		f := &catalog.ForeignDataWrapper{}
		if err := rows.Scan(&oid, &f.Name, &f.Handler, &f.Validator, &rawOptions, &f.Owner, &f.Comment); err != nil {
			return err
		}
		f.Options = parseOptionList(rawOptions)
		cat.ForeignDataWrappers[f.StableID()] = f
	}
	return rows.Err()
}

func (e *Extractor) extractServers(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT s.oid, s.srvname, w.fdwname, COALESCE(s.srvtype, ''), COALESCE(s.srvversion, ''),
		       s.srvoptions, pg_get_userbyid(s.srvowner), COALESCE(obj_description(s.oid, 'pg_foreign_server'), '')
		FROM pg_foreign_server s
		JOIN pg_foreign_data_wrapper w ON w.oid = s.srvfdw`)
	if err != nil {
		return fmt.Errorf("reading foreign servers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid int64
		var rawOptions []string
		s := &catalog.Server{}
		if err := rows.Scan(&oid, &s.Name, &s.ForeignDataWrapper, &s.ServerType, &s.ServerVersion,
			&rawOptions, &s.Owner, &s.Comment); err != nil {
			return err
		}
		s.Options = parseOptionList(rawOptions)

		privs, err := e.privilegesForACL(ctx, "pg_foreign_server", "srvacl", "oid", oid)
		if err != nil {
			return err
		}
		s.Privileges = privs
		cat.Servers[s.StableID()] = s
	}
	return rows.Err()
}

func (e *Extractor) extractUserMappings(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT s.srvname,
		       CASE WHEN u.umuser = 0 THEN 'public' ELSE pg_get_userbyid(u.umuser) END,
		       u.umoptions
		FROM pg_user_mapping u
		JOIN pg_foreign_server s ON s.oid = u.umserver`)
	if err != nil {
		return fmt.Errorf("reading user mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rawOptions []string
		u := &catalog.UserMapping{}
		if err := rows.Scan(&u.ServerName, &u.UserName, &rawOptions); err != nil {
			return err
		}
		u.Options = parseOptionList(rawOptions)
		cat.UserMappings[u.StableID()] = u
	}
	return rows.Err()
}

func (e *Extractor) extractForeignTables(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT c.oid, n.nspname, c.relname, s.srvname, ft.ftoptions,
		       pg_get_userbyid(c.relowner), COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_foreign_table ft
		JOIN pg_class c ON c.oid = ft.ftrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_foreign_server s ON s.oid = ft.ftserver
		WHERE `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading foreign tables: %w", err)
	}
	defer rows.Close()

	var oids []int64
	byOID := map[int64]*catalog.ForeignTable{}
	for rows.Next() {
		var oid int64
		var rawOptions []string
		ft := &catalog.ForeignTable{}
		if err := rows.Scan(&oid, &ft.Schema, &ft.Name, &ft.ServerName, &rawOptions, &ft.Owner, &ft.Comment); err != nil {
			return err
		}
		ft.Options = parseOptionList(rawOptions)
		byOID[oid] = ft
		oids = append(oids, oid)
		cat.ForeignTables[ft.StableID()] = ft
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, oid := range oids {
		ft := byOID[oid]
		cols, err := e.extractColumns(ctx, oid, ft.StableID())
		if err != nil {
			return err
		}
		ft.Columns = cols

		privs, err := e.privilegesForACL(ctx, "pg_class", "relacl", "oid", oid)
		if err != nil {
			return err
		}
		ft.Privileges = privs
	}
	return nil
}

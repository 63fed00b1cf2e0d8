package extract

import (
	"context"
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
)

func (e *Extractor) extractPublications(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT p.oid, p.pubname, p.puballtables, p.pubinsert, p.pubupdate, p.pubdelete,
		       p.pubtruncate, p.pubviaroot, pg_get_userbyid(p.pubowner),
		       COALESCE(obj_description(p.oid, 'pg_publication'), '')
		FROM pg_publication p`)
	if err != nil {
		return fmt.Errorf("reading publications: %w", err)
	}
	defer rows.Close()

	var oids []int64
	byOID := map[int64]*catalog.Publication{}
	for rows.Next() {
		var oid int64
		p := &catalog.Publication{}
		if err := rows.Scan(&oid, &p.Name, &p.ForAllTables, &p.PublishInsert, &p.PublishUpdate,
			&p.PublishDelete, &p.PublishTruncate, &p.PublishViaRoot, &p.Owner, &p.Comment); err != nil {
			return err
		}
		byOID[oid] = p
		oids = append(oids, oid)
		cat.Publications[p.StableID()] = p
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, oid := range oids {
		p := byOID[oid]
		tRows, err := e.db.QueryContext(ctx, `
			SELECT n.nspname || '.' || c.relname
			FROM pg_publication_rel pr
			JOIN pg_class c ON c.oid = pr.prrelid
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE pr.prpubid = $1`, oid)
		if err != nil {
			return fmt.Errorf("reading publication tables: %w", err)
		}
		for tRows.Next() {
			var t string
			if err := tRows.Scan(&t); err != nil {
				tRows.Close()
				return err
			}
			p.Tables = append(p.Tables, t)
		}
		if err := tRows.Err(); err != nil {
			tRows.Close()
			return err
		}
		tRows.Close()

		sRows, err := e.db.QueryContext(ctx, `
			SELECT n.nspname FROM pg_publication_namespace pn
			JOIN pg_namespace n ON n.oid = pn.pnnspid
			WHERE pn.pnpubid = $1`, oid)
		if err != nil {
			return fmt.Errorf("reading publication schemas: %w", err)
		}
		for sRows.Next() {
			var s string
			if err := sRows.Scan(&s); err != nil {
				sRows.Close()
				return err
			}
			p.Schemas = append(p.Schemas, s)
		}
		if err := sRows.Err(); err != nil {
			sRows.Close()
			return err
		}
		sRows.Close()
	}
	return nil
}

func (e *Extractor) extractSubscriptions(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT s.subname, s.subconninfo, s.subpublications, s.subenabled,
		       s.subslotname, s.subsynccommit, pg_get_userbyid(s.subowner),
		       COALESCE(shobj_description(s.oid, 'pg_subscription'), '')
		FROM pg_subscription s`)
	if err != nil {
		return fmt.Errorf("reading subscriptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &catalog.Subscription{}
		if err := rows.Scan(&s.Name, &s.ConnectionInfo, &s.Publications, &s.Enabled,
			&s.SlotName, &s.SyncCommit, &s.Owner, &s.Comment); err != nil {
			return err
		}
		cat.Subscriptions[s.StableID()] = s
	}
	return rows.Err()
}

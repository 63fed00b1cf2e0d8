package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
)

func (e *Extractor) extractProcedures(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT p.oid, n.nspname, p.proname,
		       pg_get_function_identity_arguments(p.oid), format_type(p.prorettype, NULL),
		       l.lanname, COALESCE(p.prosrc, ''), p.provolatile, p.proparallel, p.prosecdef,
		       p.prokind, pg_get_userbyid(p.proowner), COALESCE(obj_description(p.oid, 'pg_proc'), '')
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		JOIN pg_language l ON l.oid = p.prolang
		WHERE `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading procedures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid int64
		var volatility, parallel, kind string
		var secdef bool
		p := &catalog.Procedure{}
		if err := rows.Scan(&oid, &p.Schema, &p.Name, &p.Signature, &p.ReturnType, &p.Language, &p.Body,
			&volatility, &parallel, &secdef, &kind, &p.Owner, &p.Comment); err != nil {
			return err
		}
		p.Volatility = volatilityWord(volatility)
		p.Parallel = parallelWord(parallel)
		p.Security = "INVOKER"
		if secdef {
			p.Security = "DEFINER"
		}
		p.RoutineKind = routineKind(kind)
		p.Signature = normalizeSignature(p.Signature)

		privs, err := e.privilegesForACL(ctx, "pg_proc", "proacl", "oid", oid)
		if err != nil {
			return err
		}
		p.Privileges = privs
		cat.Procedures[p.StableID()] = p
	}
	return rows.Err()
}

func normalizeSignature(args string) string {
	parts := strings.Split(args, ", ")
	if len(parts) == 1 && parts[0] == "" {
		return ""
	}
	return strings.Join(parts, ",")
}

func volatilityWord(code string) string {
	switch code {
	case "i":
		return "IMMUTABLE"
	case "s":
		return "STABLE"
	default:
		return "VOLATILE"
	}
}

func parallelWord(code string) string {
	switch code {
	case "s":
		return "SAFE"
	case "r":
		return "RESTRICTED"
	default:
		return "UNSAFE"
	}
}

func routineKind(code string) catalog.ProcedureKind {
	switch code {
	case "p":
		return catalog.ProcedureKindProcedure
	case "a":
		return catalog.ProcedureKindAggregate
	default:
		return catalog.ProcedureKindFunction
	}
}

func (e *Extractor) extractTriggers(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT n.nspname, t.relname, tg.tgname, tg.tgtype,
		       COALESCE(pg_get_expr(tg.tgqual, tg.tgrelid), ''),
		       fn.nspname, fp.proname,
		       COALESCE(obj_description(tg.oid, 'pg_trigger'), ''), tg.tgattr
		FROM pg_trigger tg
		JOIN pg_class t ON t.oid = tg.tgrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_proc fp ON fp.oid = tg.tgfoid
		JOIN pg_namespace fn ON fn.oid = fp.pronamespace
		WHERE NOT tg.tgisinternal AND `+systemSchemaFilter)
	if err != nil {
		return fmt.Errorf("reading triggers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tgtype int
		var attrs []int16
		tr := &catalog.Trigger{}
		if err := rows.Scan(&tr.Schema, &tr.TableName, &tr.Name, &tgtype, &tr.WhenExpression,
			&tr.FunctionSchema, &tr.FunctionName, &tr.Comment, &attrs); err != nil {
			return err
		}
		tr.Timing, tr.Level = triggerTimingAndLevel(tgtype)
		tr.Events = triggerEvents(tgtype)
		for _, a := range attrs {
			tr.UpdateColumnNumbers = append(tr.UpdateColumnNumbers, int(a))
		}
		cat.Triggers[tr.StableID()] = tr
	}
	return rows.Err()
}

// Trigger type bitmask constants as defined by PostgreSQL's
// src/include/catalog/pg_trigger.h (TRIGGER_TYPE_*).
const (
	triggerTypeRow      = 1 << 0
	triggerTypeBefore   = 1 << 1
	triggerTypeInsert   = 1 << 2
	triggerTypeDelete   = 1 << 3
	triggerTypeUpdate   = 1 << 4
	triggerTypeTruncate = 1 << 5
	triggerTypeInstead  = 1 << 6
)

func triggerTimingAndLevel(tgtype int) (timing, level string) {
	level = "STATEMENT"
	if tgtype&triggerTypeRow != 0 {
		level = "ROW"
	}
	switch {
	case tgtype&triggerTypeInstead != 0:
		timing = "INSTEAD OF"
	case tgtype&triggerTypeBefore != 0:
		timing = "BEFORE"
	default:
		timing = "AFTER"
	}
	return timing, level
}

func triggerEvents(tgtype int) []string {
	var events []string
	if tgtype&triggerTypeInsert != 0 {
		events = append(events, "INSERT")
	}
	if tgtype&triggerTypeUpdate != 0 {
		events = append(events, "UPDATE")
	}
	if tgtype&triggerTypeDelete != 0 {
		events = append(events, "DELETE")
	}
	if tgtype&triggerTypeTruncate != 0 {
		events = append(events, "TRUNCATE")
	}
	return events
}

func (e *Extractor) extractEventTriggers(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := e.db.QueryContext(ctx, `
		SELECT et.evtname, et.evtevent, et.evtenabled, et.evttags,
		       n.nspname, p.proname, pg_get_userbyid(et.evtowner),
		       COALESCE(obj_description(et.oid, 'pg_event_trigger'), '')
		FROM pg_event_trigger et
		JOIN pg_proc p ON p.oid = et.evtfoid
		JOIN pg_namespace n ON n.oid = p.pronamespace`)
	if err != nil {
		return fmt.Errorf("reading event triggers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tags []string
		et := &catalog.EventTrigger{}
		if err := rows.Scan(&et.Name, &et.Event, &et.Enabled, &tags, &et.FunctionSchema, &et.FunctionName,
			&et.Owner, &et.Comment); err != nil {
			return err
		}
		et.Tags = tags
		cat.EventTriggers[et.StableID()] = et
	}
	return rows.Err()
}

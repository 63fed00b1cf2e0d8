package integration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgquote"
)

// fieldWarning describes the operator-facing message for a masked field.
var fieldWarning = map[string]string{
	"password": "contains an environment-specific password",
	"conninfo": "contains an environment-specific connection string",
	"options":  "contains environment-specific option values",
}

var optionPairPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s+'((?:[^']|'')*)'`)

// Serialize renders change for the final script, masking any field listed
// in SensitiveValues and prefixing a warning comment (spec §4.5). It
// returns "" when the change carries no sensitive values at all, signaling
// the caller to fall back to change.Serialize().
func Serialize(_ *Config, c *change.Change) string {
	if len(c.SensitiveValues) == 0 {
		return ""
	}

	sql := c.SQL
	var warnings []string
	for field, literal := range c.SensitiveValues {
		if field == "options" {
			sql = maskOptionsClause(sql)
		} else {
			placeholder := "'__" + strings.ToUpper(field) + "__'"
			sql = strings.ReplaceAll(sql, pgquote.Literal(literal), placeholder)
		}
		msg, ok := fieldWarning[field]
		if !ok {
			msg = fmt.Sprintf("contains an environment-specific %s value", field)
		}
		warnings = append(warnings, fmt.Sprintf("-- WARNING: %s %s; set the real value before applying.", field, msg))
	}

	return strings.Join(warnings, "\n") + "\n" + sql
}

// maskOptionsClause replaces every quoted option value in an OPTIONS(...)
// clause with a per-key placeholder __OPTION_<KEY>__, keeping key names
// visible so an operator knows which settings need real values filled in.
func maskOptionsClause(sql string) string {
	return optionPairPattern.ReplaceAllStringFunc(sql, func(m string) string {
		parts := optionPairPattern.FindStringSubmatch(m)
		key := parts[1]
		return fmt.Sprintf("%s '__OPTION_%s__'", key, strings.ToUpper(key))
	})
}

// NeedsCheckFunctionBodiesOff reports whether the script must be prefixed
// with SET check_function_bodies = false: any routine (function,
// procedure, or aggregate; all modeled as catalog.KindProcedure) is
// touched (spec §4.4 "Routine session flag", §6.2).
func NeedsCheckFunctionBodiesOff(changes []*change.Change) bool {
	for _, c := range changes {
		if c.ObjectType == catalog.KindProcedure {
			return true
		}
	}
	return false
}

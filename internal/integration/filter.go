package integration

import "github.com/pgschemadiff/pgschemadiff/internal/change"

// filterOnlyFields lists the logical fields that, when they are a change's
// *entire* observable effect, make that change uninteresting across
// environments: the value legitimately differs between main and branch and
// carries no schema information worth migrating (spec §4.5: role.password,
// subscription.conninfo).
var filterOnlyFields = map[string]bool{
	"password": true,
	"conninfo": true,
}

// Filter reports whether change should be dropped from the emitted script.
// A change is dropped only when every one of its ChangedFields is
// recognized as env-dependent-and-filterable and the change does not
// create or drop the object outright (creation/deletion is never silently
// skipped, even when the only listed field happens to be one of these).
func Filter(_ *Config, c *change.Change) bool {
	if len(c.ChangedFields) == 0 {
		return false
	}
	if len(c.CreatesIDs) > 0 || len(c.DropsIDs) > 0 {
		return false
	}
	for _, f := range c.ChangedFields {
		if !filterOnlyFields[f] {
			return false
		}
	}
	return true
}

// FilterAll applies Filter across a change list, returning only the
// changes that survive.
func FilterAll(cfg *Config, changes []*change.Change) []*change.Change {
	out := make([]*change.Change, 0, len(changes))
	for _, c := range changes {
		if !Filter(cfg, c) {
			out = append(out, c)
		}
	}
	return out
}

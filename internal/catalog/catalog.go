package catalog

import "go.uber.org/multierr"

// Catalog is an aggregate snapshot of one database's schema-level objects,
// grouped by kind (spec §3.1). Every map is keyed by the member's stable_id,
// which is unique within a catalog (spec §3.2) and deterministic from
// identity_fields alone.
//
// A Catalog is immutable once built (spec §3.3): nothing in this package
// mutates one after New returns it.
type Catalog struct {
	Schemas             map[string]*Schema
	Roles               map[string]*Role
	Extensions          map[string]*Extension
	Collations          map[string]*Collation
	Domains             map[string]*Domain
	Enums               map[string]*Enum
	CompositeTypes      map[string]*CompositeType
	Ranges              map[string]*RangeType
	Sequences           map[string]*Sequence
	Tables              map[string]*Table
	Indexes             map[string]*Index
	MaterializedViews   map[string]*MaterializedView
	Views               map[string]*View
	Procedures          map[string]*Procedure
	Triggers            map[string]*Trigger
	Policies            map[string]*Policy
	Publications        map[string]*Publication
	Subscriptions       map[string]*Subscription
	ForeignDataWrappers map[string]*ForeignDataWrapper
	Servers             map[string]*Server
	UserMappings        map[string]*UserMapping
	ForeignTables       map[string]*ForeignTable
	EventTriggers       map[string]*EventTrigger
	Memberships         map[string]*Membership
	DefaultPrivileges   map[string]*DefaultPrivilege
}

// New returns an empty Catalog with every collection initialized, so
// differs never need a nil check before ranging over a map.
func New() *Catalog {
	return &Catalog{
		Schemas:             map[string]*Schema{},
		Roles:               map[string]*Role{},
		Extensions:          map[string]*Extension{},
		Collations:          map[string]*Collation{},
		Domains:             map[string]*Domain{},
		Enums:               map[string]*Enum{},
		CompositeTypes:      map[string]*CompositeType{},
		Ranges:              map[string]*RangeType{},
		Sequences:           map[string]*Sequence{},
		Tables:              map[string]*Table{},
		Indexes:             map[string]*Index{},
		MaterializedViews:   map[string]*MaterializedView{},
		Views:               map[string]*View{},
		Procedures:          map[string]*Procedure{},
		Triggers:            map[string]*Trigger{},
		Policies:            map[string]*Policy{},
		Publications:        map[string]*Publication{},
		Subscriptions:       map[string]*Subscription{},
		ForeignDataWrappers: map[string]*ForeignDataWrapper{},
		Servers:             map[string]*Server{},
		UserMappings:        map[string]*UserMapping{},
		ForeignTables:       map[string]*ForeignTable{},
		EventTriggers:       map[string]*EventTrigger{},
		Memberships:         map[string]*Membership{},
		DefaultPrivileges:   map[string]*DefaultPrivilege{},
	}
}

// Validate runs every member object's Validate method and collects every
// failure (spec §4.1's per-kind validating constructor requirement), so an
// extractor or test fixture surfaces every malformed row at once rather
// than stopping at the first one.
func (c *Catalog) Validate() error {
	var errs error
	for _, o := range c.Schemas {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Roles {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Extensions {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Collations {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Domains {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Enums {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.CompositeTypes {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Ranges {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Sequences {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Tables {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Indexes {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.MaterializedViews {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Views {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Procedures {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Triggers {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Policies {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Publications {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Subscriptions {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.ForeignDataWrappers {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Servers {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.UserMappings {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.ForeignTables {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.EventTriggers {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.Memberships {
		errs = multierr.Append(errs, o.Validate())
	}
	for _, o := range c.DefaultPrivileges {
		errs = multierr.Append(errs, o.Validate())
	}
	return errs
}

// Contains reports whether stableID names any object in the catalog,
// regardless of kind. The dependency sort engine does not call it: Sort
// adds no edge for a requirement that no change in the diff creates.
func (c *Catalog) Contains(stableID string) bool {
	_, ok := c.AllObjects()[stableID]
	return ok
}

// AllObjects flattens every collection into a single stable_id-keyed map.
// Used by Contains; not on any hot path large enough to warrant caching.
func (c *Catalog) AllObjects() map[string]Object {
	out := map[string]Object{}
	for _, o := range c.Schemas {
		out[o.StableID()] = o
	}
	for _, o := range c.Roles {
		out[o.StableID()] = o
	}
	for _, o := range c.Extensions {
		out[o.StableID()] = o
	}
	for _, o := range c.Collations {
		out[o.StableID()] = o
	}
	for _, o := range c.Domains {
		out[o.StableID()] = o
	}
	for _, o := range c.Enums {
		out[o.StableID()] = o
	}
	for _, o := range c.CompositeTypes {
		out[o.StableID()] = o
	}
	for _, o := range c.Ranges {
		out[o.StableID()] = o
	}
	for _, o := range c.Sequences {
		out[o.StableID()] = o
	}
	for _, o := range c.Tables {
		out[o.StableID()] = o
		for _, col := range o.Columns {
			out[col.StableID()] = col
		}
	}
	for _, o := range c.Indexes {
		out[o.StableID()] = o
	}
	for _, o := range c.MaterializedViews {
		out[o.StableID()] = o
	}
	for _, o := range c.Views {
		out[o.StableID()] = o
	}
	for _, o := range c.Procedures {
		out[o.StableID()] = o
	}
	for _, o := range c.Triggers {
		out[o.StableID()] = o
	}
	for _, o := range c.Policies {
		out[o.StableID()] = o
	}
	for _, o := range c.Publications {
		out[o.StableID()] = o
	}
	for _, o := range c.Subscriptions {
		out[o.StableID()] = o
	}
	for _, o := range c.ForeignDataWrappers {
		out[o.StableID()] = o
	}
	for _, o := range c.Servers {
		out[o.StableID()] = o
	}
	for _, o := range c.UserMappings {
		out[o.StableID()] = o
	}
	for _, o := range c.ForeignTables {
		out[o.StableID()] = o
	}
	for _, o := range c.EventTriggers {
		out[o.StableID()] = o
	}
	for _, o := range c.Memberships {
		out[o.StableID()] = o
	}
	for _, o := range c.DefaultPrivileges {
		out[o.StableID()] = o
	}
	return out
}

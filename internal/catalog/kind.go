// Package catalog implements the typed in-memory model of a PostgreSQL
// database's logical schema (spec §3, §4.1): the Catalog aggregate, one
// struct per object kind, and the stable_id / identity_fields / data_fields
// derivations the diff engine routes every decision through.
//
// Objects in this package are immutable snapshots (spec §3.3): nothing here
// mutates a Catalog or an Object after construction.
package catalog

import (
	"fmt"

	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

// ObjectKind tags which taxonomy bucket an Object belongs to. It is the
// first component of every stable_id.
type ObjectKind string

const (
	KindSchema             ObjectKind = "schema"
	KindRole               ObjectKind = "role"
	KindExtension          ObjectKind = "extension"
	KindCollation          ObjectKind = "collation"
	KindDomain             ObjectKind = "domain"
	KindEnum               ObjectKind = "enum"
	KindComposite          ObjectKind = "composite"
	KindRange              ObjectKind = "range"
	KindSequence           ObjectKind = "sequence"
	KindTable              ObjectKind = "table"
	KindColumn             ObjectKind = "column"
	KindConstraint         ObjectKind = "constraint"
	KindIndex              ObjectKind = "index"
	KindView               ObjectKind = "view"
	KindMaterializedView   ObjectKind = "materialized_view"
	KindProcedure          ObjectKind = "procedure"
	KindTrigger            ObjectKind = "trigger"
	KindPolicy             ObjectKind = "policy"
	KindPublication        ObjectKind = "publication"
	KindSubscription       ObjectKind = "subscription"
	KindForeignDataWrapper ObjectKind = "fdw"
	KindServer             ObjectKind = "server"
	KindUserMapping        ObjectKind = "user_mapping"
	KindForeignTable       ObjectKind = "foreign_table"
	KindEventTrigger       ObjectKind = "event_trigger"
	KindMembership         ObjectKind = "membership"
	KindDefaultPrivilege   ObjectKind = "default_privilege"
	KindComment            ObjectKind = "comment"
	KindACL                ObjectKind = "acl"
)

// kindRank gives the fixed per-kind precedence used as a tie-break by the
// dependency sort engine (spec §4.4, rule 4). Lower ranks sort first.
var kindRank = map[ObjectKind]int{
	KindSchema:             0,
	KindExtension:          1,
	KindRole:               2,
	KindCollation:          3,
	KindDomain:             4,
	KindEnum:               5,
	KindComposite:          6,
	KindRange:              7,
	KindSequence:           8,
	KindTable:              9,
	KindColumn:             10,
	KindConstraint:         10,
	KindIndex:              11,
	KindView:               12,
	KindMaterializedView:   13,
	KindProcedure:          14,
	KindTrigger:            15,
	KindPolicy:             16,
	KindPublication:        17,
	KindSubscription:       18,
	KindForeignDataWrapper: 19,
	KindServer:             20,
	KindUserMapping:        21,
	KindForeignTable:       22,
	KindEventTrigger:       23,
	KindMembership:         24,
	KindDefaultPrivilege:   25,
	KindComment:            26,
	KindACL:                27,
}

// KindRank returns the fixed precedence for kind, used only for
// deterministic tie-breaking, never for building the dependency DAG itself.
func KindRank(kind ObjectKind) int {
	if r, ok := kindRank[kind]; ok {
		return r
	}
	return len(kindRank)
}

// Object is implemented by every catalog object snapshot. StableID is
// deterministic from IdentityFields alone (spec §3.2: no OIDs, no
// timestamps). The interface has no equality method; data fields are
// compared with the helpers in equal.go.
type Object interface {
	Kind() ObjectKind
	StableID() string
}

// Validatable is implemented by every catalog object kind (spec §4.1:
// "the model exposes: a constructor validating the extracted row"). Once
// every row is stored, the extractor calls Catalog.Validate, which runs
// Validate on each row, so a malformed row raises an error instead of
// flowing unchecked into diff/sort/serialize.
type Validatable interface {
	Validate() error
}

// requireField reports a *pgerr.ModelValidationError when value is empty,
// the shape every per-kind Validate method uses for its required
// identity_fields (spec §4.1).
func requireField(kind ObjectKind, row any, field, value string) error {
	if value != "" {
		return nil
	}
	return &pgerr.ModelValidationError{
		Kind: string(kind), Row: row,
		Err: fmt.Errorf("%s is required", field),
	}
}

// namedField pairs a field's label with its value for requireFields.
type namedField struct {
	name, value string
}

// requireFields runs requireField over each pair in order, returning the
// first failure.
func requireFields(kind ObjectKind, row any, fields ...namedField) error {
	for _, f := range fields {
		if err := requireField(kind, row, f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Privilege is the inner grant record every privilege-bearing object
// carries (spec §4.1). Grantable marks WITH GRANT OPTION.
type Privilege struct {
	Grantee   string
	Privilege string
	Grantable bool
}

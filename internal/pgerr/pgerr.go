// Package pgerr defines the typed error taxonomy the diff pipeline
// raises (spec §7). Every error is fatal by design: the pipeline has no
// automatic recovery path, so these types exist purely to let a caller
// `errors.As` into the offending stable_id(s) or row, not to signal a
// retryable condition.
package pgerr

import "fmt"

// ExtractionError wraps a failure from the catalog extractor, propagated
// verbatim from whatever the extractor's underlying driver returned.
type ExtractionError struct {
	Database string // the failing Extract step (e.g. "schemas"), or "main+branch" from ExtractBoth
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Database, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ModelValidationError reports that an extracted catalog row did not
// satisfy the invariants its constructor validates (§4.1).
type ModelValidationError struct {
	Kind string
	Row  any
	Err  error
}

func (e *ModelValidationError) Error() string {
	return fmt.Sprintf("invalid %s row: %v (row=%+v)", e.Kind, e.Err, e.Row)
}

func (e *ModelValidationError) Unwrap() error { return e.Err }

// DiffInvariantError reports a differ precondition violation: a
// constraint referencing a missing table, an unresolved trigger column
// position, a privilege row naming an unknown grantee, and similar.
type DiffInvariantError struct {
	StableIDs []string
	Reason    string
}

func (e *DiffInvariantError) Error() string {
	return fmt.Sprintf("diff invariant violated (%s): %v", e.Reason, e.StableIDs)
}

// DependencyCycleError reports a strong-edge cycle found while building
// the dependency DAG (§4.4). Path is the cycle expressed in stable_id
// terms, starting and ending at the same id.
type DependencyCycleError struct {
	Path []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %v", e.Path)
}

// SerializationError reports that a per-kind serializer refused its
// inputs, e.g. a grant list mixing grantable and non-grantable flags for
// the same (grantee, privilege) pair.
type SerializationError struct {
	StableID string
	Reason   string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize %s: %s", e.StableID, e.Reason)
}

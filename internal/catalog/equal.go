package catalog

import (
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// DeepEqual implements the canonical deep-equality function data_fields
// comparisons route through (spec §3.1, §3.2: "equals(a, b) ⇔ a.stable_id =
// b.stable_id ∧ deep_equal(a.data_fields, b.data_fields)").
//
// cmp.Equal is called without options, so it panics on a struct with
// unexported fields; objects in this package export every field. NaN is never
// produced by catalog data so the default float comparison is fine.
func DeepEqual(a, b any) bool {
	return cmp.Equal(a, b)
}

// multisetSort returns a copy of items sorted by key, used to compare
// slices whose order is not semantically meaningful (privileges, options,
// role memberships) as multisets rather than ordered sequences (spec §4.1:
// "Arrays compared element-wise in order when order is semantically
// meaningful ... otherwise compared as multisets").
func multisetSort[T any](items []T, key func(T) string) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}

// EqualPrivilegeSets compares two privilege lists as multisets keyed on
// (grantee, privilege), ignoring input order.
func EqualPrivilegeSets(a, b []Privilege) bool {
	ak := multisetSort(a, func(p Privilege) string { return p.Grantee + "\x00" + p.Privilege })
	bk := multisetSort(b, func(p Privilege) string { return p.Grantee + "\x00" + p.Privilege })
	return cmp.Equal(ak, bk)
}

// EqualStringSets compares two string slices as multisets (order-insensitive).
func EqualStringSets(a, b []string) bool {
	return cmp.Equal(sortedCopy(a), sortedCopy(b))
}

// EqualStringSlices compares two string slices in order (order-sensitive,
// for key columns, partition bounds, and similar ordinality-significant
// sequences).
func EqualStringSlices(a, b []string) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

func sortedCopy(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}

// Option is a single key=value entry of an options bag (storage_params,
// FDW/server/user-mapping options, publication options) after parsing
// (spec §4.2 "Options-bag diffing").
type Option struct {
	Key   string
	Value string
}

// OptionsToMap converts a parsed options list into a map for diffing.
func OptionsToMap(opts []Option) map[string]string {
	m := make(map[string]string, len(opts))
	for _, o := range opts {
		m[o.Key] = o.Value
	}
	return m
}

// EqualOptions compares two options bags as maps (key order is never
// semantically meaningful).
func EqualOptions(a, b []Option) bool {
	return cmp.Equal(OptionsToMap(a), OptionsToMap(b))
}

// Package entry converts values to and from the string form kept in a storage medium.
//
// A stored entry is a JSON object with the value and an optional absolute deadline:
//
//	{"value":{"name":"alice"},"expire":1700000060000}
//
// The deadline is in Unix milliseconds, the unit of Clock. Entries without an
// expire field never expire. The package is pure: it knows nothing about
// namespaces, registries or mediums.
package entry

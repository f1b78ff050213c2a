// Package types defines the storage interfaces, entity types, and standard
// error types for the profiles image store.
//
// Two representations of image payloads coexist: inline data URLs embedded in
// a record, and blob ids pointing into the Blob Repository. A record carries a
// StorageMode discriminant that says which of the two its payloads are.
package types

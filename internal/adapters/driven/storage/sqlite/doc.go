// Package sqlite provides a SQLite-backed document store.
//
// The store owns a single database file, runs embedded schema
// migrations on open, and uses WAL mode so reads stay concurrent with
// writes. Segments cascade on document deletion at the schema level;
// deletion listeners fire after the delete commits.
package sqlite

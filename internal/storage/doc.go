// Package storage provides the persistence collaborators behind the task
// store: a flat-file backend writing one pipe-delimited record per task, and
// a SQLite backend for the same whole-state load/save contract.
//
// Backends are only ever invoked with the store lock held, so they do not
// need to coordinate concurrent writers themselves.
package storage

// Package memory provides in-process implementations of the persistence ports.
//
// The service falls back to them when no database is configured, and tests use them
// to exercise transactional behavior without a container. Semantics match the
// postgres adapters: staged writes land on Commit or not at all, and order updates
// are compare-and-set on the version.
package memory

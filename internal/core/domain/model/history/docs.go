// Package history models the append-only audit trail of order status changes.
// Records are created once per executed transition and never modified.
package history

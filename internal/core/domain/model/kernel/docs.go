// Package kernel holds the shared value objects of the order workflow domain.
//
// The package includes:
//   - UUID: identifier value object used by orders, users and audit records
//   - Clock: injectable time source for command handlers
//
// The zero value of every type here is either invalid (UUID) or has a documented
// fallback (Clock), so callers never need to guard against partially built values.
package kernel

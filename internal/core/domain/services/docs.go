// Package services holds the domain services of the order workflow:
//   - TransitionValidator: pure legality check of a status change against a Registry
//   - AuthorizationGate: role and department scoped access decisions
//
// Neither service performs I/O. Capabilities reach the gate through the
// CapabilityResolver interface, implemented by the policy adapter.
package services

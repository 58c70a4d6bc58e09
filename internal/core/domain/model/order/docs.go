// Package order contains the Order aggregate and the status state machine that governs it.
//
// Status is a closed enumeration; Registry is the immutable graph of allowed transitions
// with display metadata (name, color, progress). The aggregate never decides on its own
// whether a transition is legal: ChangeStatus delegates to a TransitionPolicy, which in
// production is services.TransitionValidator backed by a Registry.
package order

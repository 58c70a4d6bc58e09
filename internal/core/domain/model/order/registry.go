package order

import (
	"errors"
	"fmt"
	"slices"

	"orderflow/internal/pkg/errs"
)

// StatusDefinition is the static description of one status: how it is shown,
// where it may go next and how far along the order is.
type StatusDefinition struct {
	Value              Status
	Display            string
	Description        string
	Color              string
	AllowedNext        []Status
	ProgressPercentage int
}

// Registry is the state graph of the order workflow together with its presentation
// metadata. It is built once by NewRegistry or DefaultRegistry and never changes
// afterwards; every accessor returns copies, so a Registry is safe for concurrent use.
type Registry struct {
	order       []Status
	definitions map[Status]StatusDefinition
}

// NewRegistry builds a Registry from the given definitions, in the given order.
//
// The constructor enforces:
//   - at least one definition
//   - every Value is a valid Status and appears once
//   - Display is not empty
//   - ProgressPercentage is within 0..100
//   - every AllowedNext entry is itself defined (referential closure)
//   - no status lists itself as a next status
//
// All violations are reported together.
func NewRegistry(defs ...StatusDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errs.NewValueIsRequiredError("status definitions")
	}

	r := &Registry{
		order:       make([]Status, 0, len(defs)),
		definitions: make(map[Status]StatusDefinition, len(defs)),
	}

	var problems []error
	for _, def := range defs {
		if err := def.Value.Validate(); err != nil {
			problems = append(problems, err)
			continue
		}
		if _, dup := r.definitions[def.Value]; dup {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"status definition", fmt.Errorf("%s is defined twice", def.Value)))
			continue
		}
		if def.Display == "" {
			problems = append(problems, errs.NewValueIsRequiredError(def.Value.String()+" display"))
		}
		if def.ProgressPercentage < 0 || def.ProgressPercentage > 100 {
			problems = append(problems, errs.NewValueIsOutOfRangeError(
				def.Value.String()+" progress", def.ProgressPercentage, 0, 100))
		}

		def.AllowedNext = slices.Clone(def.AllowedNext)
		r.definitions[def.Value] = def
		r.order = append(r.order, def.Value)
	}

	for _, s := range r.order {
		for _, next := range r.definitions[s].AllowedNext {
			if next == s {
				problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
					"allowed next", fmt.Errorf("%s lists itself", s)))
				continue
			}
			if _, ok := r.definitions[next]; !ok {
				problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
					"allowed next", fmt.Errorf("%s refers to undefined status %s", s, next)))
			}
		}
	}

	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultRegistry returns the agency order workflow.
//
//	status              progress  allowed next
//	pending                    0  approved
//	approved                   5  estimation_sent, in_progress
//	estimation_sent           10  in_progress, pending
//	in_progress               20  25_done
//	25_done                   25  50_done, in_progress
//	50_done                   50  75_done, 25_done
//	75_done                   75  ready_for_delivery, 50_done
//	ready_for_delivery        90  delivered, 75_done
//	delivered                 95  payment_pending, ready_for_delivery
//	payment_pending           97  payment_done, delivered
//	payment_done              99  closed
//	closed                   100  (terminal)
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		StatusDefinition{Value: Pending, Display: "Pending", Color: "gray", ProgressPercentage: 0,
			Description: "Order received and waiting for review",
			AllowedNext: []Status{Approved}},
		StatusDefinition{Value: Approved, Display: "Approved", Color: "blue", ProgressPercentage: 5,
			Description: "Order approved by the agency",
			AllowedNext: []Status{EstimationSent, InProgress}},
		StatusDefinition{Value: EstimationSent, Display: "Estimation Sent", Color: "indigo", ProgressPercentage: 10,
			Description: "Cost estimation sent to the client",
			AllowedNext: []Status{InProgress, Pending}},
		StatusDefinition{Value: InProgress, Display: "In Progress", Color: "yellow", ProgressPercentage: 20,
			Description: "Work on the order has started",
			AllowedNext: []Status{Done25}},
		StatusDefinition{Value: Done25, Display: "25% Done", Color: "orange", ProgressPercentage: 25,
			Description: "A quarter of the work is complete",
			AllowedNext: []Status{Done50, InProgress}},
		StatusDefinition{Value: Done50, Display: "50% Done", Color: "amber", ProgressPercentage: 50,
			Description: "Half of the work is complete",
			AllowedNext: []Status{Done75, Done25}},
		StatusDefinition{Value: Done75, Display: "75% Done", Color: "lime", ProgressPercentage: 75,
			Description: "Three quarters of the work are complete",
			AllowedNext: []Status{ReadyForDelivery, Done50}},
		StatusDefinition{Value: ReadyForDelivery, Display: "Ready for Delivery", Color: "teal", ProgressPercentage: 90,
			Description: "Deliverables are ready to hand over",
			AllowedNext: []Status{Delivered, Done75}},
		StatusDefinition{Value: Delivered, Display: "Delivered", Color: "green", ProgressPercentage: 95,
			Description: "Deliverables handed over to the client",
			AllowedNext: []Status{PaymentPending, ReadyForDelivery}},
		StatusDefinition{Value: PaymentPending, Display: "Payment Pending", Color: "purple", ProgressPercentage: 97,
			Description: "Waiting for the client's payment",
			AllowedNext: []Status{PaymentDone, Delivered}},
		StatusDefinition{Value: PaymentDone, Display: "Payment Done", Color: "emerald", ProgressPercentage: 99,
			Description: "Payment received",
			AllowedNext: []Status{Closed}},
		StatusDefinition{Value: Closed, Display: "Closed", Color: "slate", ProgressPercentage: 100,
			Description: "Order completed and archived"},
	)
	if err != nil {
		panic(fmt.Sprintf("default status registry is inconsistent: %v", err))
	}
	return r
}

// Describe returns the definition of s, or an error wrapping ErrUnknownStatus.
func (r *Registry) Describe(s Status) (StatusDefinition, error) {
	def, ok := r.definitions[s]
	if !ok {
		return StatusDefinition{}, fmt.Errorf("%w: %s", ErrUnknownStatus, s)
	}
	def.AllowedNext = slices.Clone(def.AllowedNext)
	return def, nil
}

// Contains reports whether s is part of this registry's vocabulary.
func (r *Registry) Contains(s Status) bool {
	_, ok := r.definitions[s]
	return ok
}

// AllowedNext returns the statuses reachable from s in declaration order.
// It is empty for terminal and unknown statuses.
func (r *Registry) AllowedNext(s Status) []Status {
	return slices.Clone(r.definitions[s].AllowedNext)
}

// IsAllowed reports whether next is directly reachable from current.
func (r *Registry) IsAllowed(current, next Status) bool {
	return slices.Contains(r.definitions[current].AllowedNext, next)
}

// IsTerminal reports whether s is known and has no outgoing transitions.
func (r *Registry) IsTerminal(s Status) bool {
	def, ok := r.definitions[s]
	return ok && len(def.AllowedNext) == 0
}

// ProgressOf returns the completion percentage of s, 0 for unknown statuses.
func (r *Registry) ProgressOf(s Status) int {
	return r.definitions[s].ProgressPercentage
}

// DisplayOf returns the human-readable name of s, or its token for unknown statuses.
func (r *Registry) DisplayOf(s Status) string {
	if def, ok := r.definitions[s]; ok {
		return def.Display
	}
	return s.String()
}

// Statuses returns every status in declaration order.
func (r *Registry) Statuses() []Status {
	return slices.Clone(r.order)
}

// Initial returns the first declared status, where new orders start.
func (r *Registry) Initial() Status {
	return r.order[0]
}

// HappyPath walks the primary forward route from the initial status: at each step it
// takes the first allowed next status that does not lower progress and has not been
// visited yet, and stops at a terminal status.
func (r *Registry) HappyPath() []Status {
	current := r.Initial()
	path := []Status{current}
	visited := map[Status]bool{current: true}

	for !r.IsTerminal(current) {
		next, ok := r.forwardStep(current, visited)
		if !ok {
			break
		}
		path = append(path, next)
		visited[next] = true
		current = next
	}
	return path
}

func (r *Registry) forwardStep(from Status, visited map[Status]bool) (Status, bool) {
	progress := r.ProgressOf(from)
	for _, candidate := range r.definitions[from].AllowedNext {
		if !visited[candidate] && r.ProgressOf(candidate) >= progress {
			return candidate, true
		}
	}
	return Unknown, false
}

package actor

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// Actor is the authenticated principal behind a request.
// DepartmentID is set for principals that manage a department.
type Actor struct {
	ID           kernel.UUID
	Role         Role
	DepartmentID *kernel.UUID
}

// NewActor validates the principal data supplied by the identity provider.
// Department heads must name the department they manage.
func NewActor(id kernel.UUID, role Role, departmentID *kernel.UUID) (Actor, error) {
	var problems []error
	if err := id.Validate(); err != nil {
		problems = append(problems, errs.NewValueIsRequiredErrorWithCause("actor id", err))
	}
	if err := role.Validate(); err != nil {
		problems = append(problems, err)
	}
	if departmentID != nil {
		if err := departmentID.Validate(); err != nil {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("department id", err))
		}
	} else if role == RoleDepartmentHead {
		problems = append(problems, errs.NewValueIsRequiredError("department id"))
	}
	if err := errors.Join(problems...); err != nil {
		return Actor{}, err
	}

	a := Actor{ID: id, Role: role}
	if departmentID != nil {
		dep := *departmentID
		a.DepartmentID = &dep
	}
	return a, nil
}

// Manages reports whether the actor manages departmentID.
func (a Actor) Manages(departmentID kernel.UUID) bool {
	return a.DepartmentID != nil && a.DepartmentID.IsEqual(departmentID)
}

package order_test

import (
	"errors"
	"testing"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type policyFunc func(current, proposed order.Status) error

func (f policyFunc) Validate(current, proposed order.Status) error {
	return f(current, proposed)
}

var allowAll = policyFunc(func(order.Status, order.Status) error { return nil })

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "Brand book", time.Unix(1700000000, 0).UTC())
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	id, clientID, departmentID := kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()
	createdAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("should start pending at version 1", func(t *testing.T) {
		o, err := order.NewOrder(id, clientID, departmentID, "  Logo refresh ", createdAt)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.True(t, o.ID().IsEqual(id))
		assert.True(t, o.ClientID().IsEqual(clientID))
		assert.True(t, o.DepartmentID().IsEqual(departmentID))
		assert.Equal(t, "Logo refresh", o.Title())
		assert.Equal(t, order.Pending, o.Status())
		assert.Equal(t, createdAt, o.StatusUpdatedAt())
		assert.Equal(t, createdAt, o.CreatedAt())
		assert.Nil(t, o.StatusUpdatedBy())
		assert.EqualValues(t, 1, o.Version())
	})

	t.Run("should report every invalid field", func(t *testing.T) {
		o, err := order.NewOrder(kernel.UUID{}, kernel.UUID{}, departmentID, " ", createdAt)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "id")
		assert.Contains(t, err.Error(), "clientID")
		assert.Contains(t, err.Error(), "title")
		assert.NotContains(t, err.Error(), "departmentID")
	})
}

func TestRestoreOrder(t *testing.T) {
	id, clientID, departmentID := kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()
	actor := kernel.NewUUID()
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("should restore persisted state", func(t *testing.T) {
		o, err := order.RestoreOrder(id, clientID, departmentID, "Site", order.Done50, at, &actor, 7, at.Add(-time.Hour))

		require.NoError(t, err)
		assert.Equal(t, order.Done50, o.Status())
		assert.EqualValues(t, 7, o.Version())
		require.NotNil(t, o.StatusUpdatedBy())
		assert.True(t, o.StatusUpdatedBy().IsEqual(actor))
	})

	t.Run("should reject unknown status and bad version", func(t *testing.T) {
		o, err := order.RestoreOrder(id, clientID, departmentID, "Site", order.Unknown, at, nil, 0, at)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.ErrorIs(t, err, order.ErrUnknownStatus)
		assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestOrder_Validate(t *testing.T) {
	var zero order.Order
	var nilOrder *order.Order

	assert.ErrorIs(t, zero.Validate(), order.ErrOrderIsNotConstructed)
	assert.ErrorIs(t, nilOrder.Validate(), order.ErrOrderIsNotConstructed)
}

func TestOrder_ChangeStatus(t *testing.T) {
	at := time.Date(2024, 7, 1, 8, 30, 0, 0, time.UTC)

	t.Run("should apply an allowed change", func(t *testing.T) {
		o := newTestOrder(t)
		actor := kernel.NewUUID()

		previous, err := o.ChangeStatus(allowAll, order.Approved, &actor, at)

		require.NoError(t, err)
		assert.Equal(t, order.Pending, previous)
		assert.Equal(t, order.Approved, o.Status())
		assert.Equal(t, at, o.StatusUpdatedAt())
		assert.True(t, o.StatusUpdatedBy().IsEqual(actor))
		assert.EqualValues(t, 1, o.Version())
	})

	t.Run("should record system changes without actor", func(t *testing.T) {
		o := newTestOrder(t)
		actor := kernel.NewUUID()
		_, err := o.ChangeStatus(allowAll, order.Approved, &actor, at)
		require.NoError(t, err)

		_, err = o.ChangeStatus(allowAll, order.InProgress, nil, at.Add(time.Minute))

		require.NoError(t, err)
		assert.Nil(t, o.StatusUpdatedBy())
	})

	t.Run("should pass current and proposed to the policy and leave order untouched on refusal", func(t *testing.T) {
		o := newTestOrder(t)
		refusal := errors.New("refused")
		var seen [2]order.Status

		policy := policyFunc(func(current, proposed order.Status) error {
			seen = [2]order.Status{current, proposed}
			return refusal
		})
		previous, err := o.ChangeStatus(policy, order.Closed, nil, at)

		require.ErrorIs(t, err, refusal)
		assert.Equal(t, [2]order.Status{order.Pending, order.Closed}, seen)
		assert.Equal(t, order.Pending, previous)
		assert.Equal(t, order.Pending, o.Status())
		assert.NotEqual(t, at, o.StatusUpdatedAt())
	})
}

func TestOrder_Ownership(t *testing.T) {
	o := newTestOrder(t)

	ownership := o.Ownership()

	assert.True(t, ownership.OrderID.IsEqual(o.ID()))
	assert.True(t, ownership.ClientID.IsEqual(o.ClientID()))
	assert.True(t, ownership.DepartmentID.IsEqual(o.DepartmentID()))
}

func TestIllegalTransitionError(t *testing.T) {
	err := order.NewIllegalTransitionError(order.Closed, order.PaymentDone, nil)

	assert.ErrorIs(t, err, order.ErrIllegalTransition)
	assert.Contains(t, err.Error(), "closed is terminal")

	allowed := []order.Status{order.Done50, order.InProgress}
	err = order.NewIllegalTransitionError(order.Done25, order.Closed, allowed)
	allowed[0] = order.Pending

	assert.Equal(t, []order.Status{order.Done50, order.InProgress}, err.Allowed)
	assert.Equal(t, "illegal status transition: 25_done -> closed (allowed: 50_done, in_progress)", err.Error())
}

package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wms-system/internal/database/models"
)

func TestPurchaseOrderTransitions(t *testing.T) {
	next, err := transitionPO(models.POStatusDraft, poEventSubmit)
	require.NoError(t, err)
	assert.Equal(t, models.POStatusSubmitted, next)

	next, err = transitionPO(models.POStatusSubmitted, poEventApprove)
	require.NoError(t, err)
	assert.Equal(t, models.POStatusApproved, next)

	next, err = transitionPO(models.POStatusApproved, poEventShip)
	require.NoError(t, err)
	assert.Equal(t, models.POStatusShipped, next)
}

func TestPurchaseOrderApproveRequiresSubmitted(t *testing.T) {
	_, err := transitionPO(models.POStatusDraft, poEventApprove)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.Contains(t, err.Error(), "SUBMITTED")
	assert.Contains(t, err.Error(), "DRAFT")
}

func TestPurchaseOrderReceiveKeepsStatus(t *testing.T) {
	next, err := transitionPO(models.POStatusApproved, poEventReceive)
	require.NoError(t, err)
	assert.Equal(t, models.POStatusApproved, next)

	next, err = transitionPO(models.POStatusShipped, poEventReceive)
	require.NoError(t, err)
	assert.Equal(t, models.POStatusShipped, next)

	_, err = transitionPO(models.POStatusDraft, poEventReceive)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestPurchaseOrderTerminalStates(t *testing.T) {
	for _, event := range []poEvent{poEventSubmit, poEventApprove, poEventShip, poEventReceive, poEventCancel} {
		_, err := transitionPO(models.POStatusReceived, event)
		assert.ErrorIs(t, err, ErrStatusConflict, "event %s from RECEIVED", event)

		_, err = transitionPO(models.POStatusCancelled, event)
		assert.ErrorIs(t, err, ErrStatusConflict, "event %s from CANCELLED", event)
	}
}

func TestSalesOrderTransitions(t *testing.T) {
	next, err := transitionSO(models.SOStatusDraft, soEventSubmit)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusSubmitted, next)

	next, err = transitionSO(models.SOStatusSubmitted, soEventProcess)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusProcessing, next)

	next, err = transitionSO(models.SOStatusProcessing, soEventPick)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusPicking, next)

	next, err = transitionSO(models.SOStatusPicking, soEventFulfill)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusPacked, next)

	next, err = transitionSO(models.SOStatusPacked, soEventShip)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusShipped, next)

	next, err = transitionSO(models.SOStatusShipped, soEventDeliver)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusDelivered, next)
}

func TestSalesOrderFulfillWithoutPicking(t *testing.T) {
	next, err := transitionSO(models.SOStatusProcessing, soEventFulfill)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusPacked, next)

	_, err = transitionSO(models.SOStatusSubmitted, soEventFulfill)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestSalesOrderReturn(t *testing.T) {
	next, err := transitionSO(models.SOStatusShipped, soEventReturn)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusReturned, next)

	next, err = transitionSO(models.SOStatusDelivered, soEventReturn)
	require.NoError(t, err)
	assert.Equal(t, models.SOStatusReturned, next)

	_, err = transitionSO(models.SOStatusDraft, soEventReturn)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestSalesOrderCancelNotAllowedAfterShipping(t *testing.T) {
	_, err := transitionSO(models.SOStatusShipped, soEventCancel)
	assert.ErrorIs(t, err, ErrStatusConflict)

	_, err = transitionSO(models.SOStatusDelivered, soEventCancel)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestConflictMessageListsRequiredStates(t *testing.T) {
	_, err := transitionSO(models.SOStatusDraft, soEventShip)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ship requires status PACKED")
	assert.Contains(t, err.Error(), "order is DRAFT")
}

func TestEditableStates(t *testing.T) {
	assert.True(t, poEditable(models.POStatusDraft))
	assert.True(t, poEditable(models.POStatusSubmitted))
	assert.False(t, poEditable(models.POStatusApproved))
	assert.False(t, poEditable(models.POStatusCancelled))

	assert.True(t, soEditable(models.SOStatusDraft))
	assert.True(t, soEditable(models.SOStatusSubmitted))
	assert.False(t, soEditable(models.SOStatusProcessing))
	assert.False(t, soEditable(models.SOStatusShipped))
}

package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplyApplyDecision(t *testing.T) {
	approver := uuid.New()
	now := time.Now()

	t.Run("approves a pending request", func(t *testing.T) {
		supply := &Supply{Status: ApprovalPending}

		require.NoError(t, supply.ApplyDecision(approver, ApprovalApproved, now))
		assert.Equal(t, ApprovalApproved, supply.Status)
		assert.Equal(t, &approver, supply.ApproverID)
		assert.Equal(t, &now, supply.ApprovedAt)
	})

	t.Run("rejects a pending request", func(t *testing.T) {
		supply := &Supply{Status: ApprovalPending}

		require.NoError(t, supply.ApplyDecision(approver, ApprovalRejected, now))
		assert.Equal(t, ApprovalRejected, supply.Status)
	})

	t.Run("second decision fails", func(t *testing.T) {
		supply := &Supply{Status: ApprovalPending}
		require.NoError(t, supply.ApplyDecision(approver, ApprovalApproved, now))

		other := uuid.New()
		err := supply.ApplyDecision(other, ApprovalApproved, now.Add(time.Minute))
		assert.ErrorIs(t, err, ErrSupplyNotPending)
		assert.Equal(t, &approver, supply.ApproverID)
	})

	t.Run("deciding back to pending is not a verdict", func(t *testing.T) {
		supply := &Supply{Status: ApprovalPending}

		err := supply.ApplyDecision(approver, ApprovalPending, now)
		assert.Error(t, err)
		assert.Equal(t, ApprovalPending, supply.Status)
		assert.Nil(t, supply.ApproverID)
	})
}

package fees

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEntryType(t *testing.T) {
	t.Run("IsValid returns true for valid types", func(t *testing.T) {
		for _, et := range []LedgerEntryType{
			LedgerEntryTypeCreditAdded,
			LedgerEntryTypeCreditUsed,
			LedgerEntryTypeCreditRefund,
			LedgerEntryTypeCreditAdjustment,
		} {
			assert.True(t, et.IsValid(), "expected %s to be valid", et)
		}
	})

	t.Run("IsValid returns false for invalid type", func(t *testing.T) {
		assert.False(t, LedgerEntryType("BOGUS").IsValid())
	})

	t.Run("direction per type", func(t *testing.T) {
		assert.True(t, LedgerEntryTypeCreditAdded.IsIncrease())
		assert.True(t, LedgerEntryTypeCreditAdjustment.IsIncrease())
		assert.False(t, LedgerEntryTypeCreditUsed.IsIncrease())
		assert.False(t, LedgerEntryTypeCreditRefund.IsIncrease())
	})
}

func TestLedgerEntryConstructors(t *testing.T) {
	studentID := uuid.New()

	t.Run("credit added increases balance", func(t *testing.T) {
		e, err := NewCreditAdded(studentID, decimal.NewFromInt(3000), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, e.BalanceAfter.Equal(decimal.NewFromInt(3000)))
		assert.True(t, e.SignedAmount().Equal(decimal.NewFromInt(3000)))
	})

	t.Run("credit used decreases balance", func(t *testing.T) {
		e, err := NewCreditUsed(studentID, decimal.NewFromInt(2000), decimal.NewFromInt(3000))
		require.NoError(t, err)
		assert.True(t, e.BalanceAfter.Equal(decimal.NewFromInt(1000)))
		assert.True(t, e.SignedAmount().Equal(decimal.NewFromInt(-2000)))
	})

	t.Run("credit used cannot exceed balance", func(t *testing.T) {
		_, err := NewCreditUsed(studentID, decimal.NewFromInt(5000), decimal.NewFromInt(3000))
		assert.Error(t, err)
	})

	t.Run("refund cannot exceed balance", func(t *testing.T) {
		_, err := NewCreditRefund(studentID, decimal.NewFromInt(100), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("adjustment increases balance", func(t *testing.T) {
		e, err := NewCreditAdjustment(studentID, decimal.NewFromInt(500), decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.True(t, e.BalanceAfter.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewCreditAdded(studentID, decimal.Zero, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects nil student", func(t *testing.T) {
		_, err := NewCreditAdded(uuid.Nil, decimal.NewFromInt(100), decimal.Zero)
		assert.Error(t, err)
	})
}

func TestLedgerSignedAmountsSumToBalance(t *testing.T) {
	studentID := uuid.New()

	added, err := NewCreditAdded(studentID, decimal.NewFromInt(3000), decimal.Zero)
	require.NoError(t, err)
	used, err := NewCreditUsed(studentID, decimal.NewFromInt(2000), added.BalanceAfter)
	require.NoError(t, err)
	adjusted, err := NewCreditAdjustment(studentID, decimal.NewFromInt(500), used.BalanceAfter)
	require.NoError(t, err)

	sum := added.SignedAmount().Add(used.SignedAmount()).Add(adjusted.SignedAmount())
	assert.True(t, sum.Equal(adjusted.BalanceAfter))
	assert.True(t, adjusted.BalanceAfter.Equal(decimal.NewFromInt(1500)))
}

func TestLedgerEntryChaining(t *testing.T) {
	studentID := uuid.New()
	obligationID := uuid.New()
	actorID := uuid.New()

	e, err := NewCreditUsed(studentID, decimal.NewFromInt(100), decimal.NewFromInt(100))
	require.NoError(t, err)
	e.WithObligation(obligationID).WithProcessedBy(actorID).WithRemark("applied to 2025-02")

	require.NotNil(t, e.ObligationID)
	assert.Equal(t, obligationID, *e.ObligationID)
	require.NotNil(t, e.ProcessedBy)
	assert.Equal(t, actorID, *e.ProcessedBy)
	assert.Equal(t, "applied to 2025-02", e.Remark)
}

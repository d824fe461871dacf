package receipt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveStatusQualityPrecedence(t *testing.T) {
	order := []OrderLine{{SKU: "A", QuantityExpected: 10}}

	t.Run("all rejected wins over everything", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", Ordered: intPtr(10), QuantityReceived: 4, QuantityRejected: 4, RejectionReason: RejectionDamaged},
		}
		require.Equal(t, StatusRejected, ResolveStatus(cart, order, map[string]int{}))
	})

	t.Run("zero-activity lines do not block all-rejected", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", Ordered: intPtr(10), QuantityReceived: 4, QuantityRejected: 4, RejectionReason: RejectionOther},
			{SKU: "B", Ordered: intPtr(5)},
		}
		require.Equal(t, StatusRejected, ResolveStatus(cart, nil, nil))
	})

	t.Run("nothing received falls through to quantity rules", func(t *testing.T) {
		cart := []Line{{SKU: "A", Ordered: intPtr(10)}}
		require.Equal(t, StatusPartialDelivery, ResolveStatus(cart, order, map[string]int{}))
	})

	t.Run("damage and wrong together", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", QuantityReceived: 5, QuantityRejected: 1, QuantityAccepted: 4, RejectionReason: RejectionDamaged},
			{SKU: "B", QuantityReceived: 5, QuantityRejected: 1, QuantityAccepted: 4, RejectionReason: RejectionWrong},
		}
		require.Equal(t, StatusDamagedAndWrong, ResolveStatus(cart, nil, nil))
	})

	t.Run("damage alone", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", QuantityReceived: 5, QuantityRejected: 1, QuantityAccepted: 4, RejectionReason: RejectionDamaged},
		}
		require.Equal(t, StatusDamaged, ResolveStatus(cart, nil, nil))
	})

	t.Run("wrong alone", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", QuantityReceived: 5, QuantityRejected: 2, QuantityAccepted: 3, RejectionReason: RejectionWrong},
		}
		require.Equal(t, StatusWrongDelivery, ResolveStatus(cart, nil, nil))
	})

	t.Run("reason without rejected quantity is ignored", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", Ordered: intPtr(10), QuantityReceived: 10, QuantityAccepted: 10, RejectionReason: RejectionDamaged},
		}
		require.Equal(t, StatusBooked, ResolveStatus(cart, order, map[string]int{}))
	})
}

func TestResolveStatusCumulative(t *testing.T) {
	order := []OrderLine{
		{SKU: "A", QuantityExpected: 10},
		{SKU: "B", QuantityExpected: 5},
	}

	t.Run("booked when every order line is satisfied", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", Ordered: intPtr(10), QuantityReceived: 4, QuantityAccepted: 4},
			{SKU: "B", Ordered: intPtr(5), QuantityReceived: 5, QuantityAccepted: 5},
		}
		history := map[string]int{"A": 6}
		require.Equal(t, StatusBooked, ResolveStatus(cart, order, history))
	})

	t.Run("overage beats shortfall across lines", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", Ordered: intPtr(10), QuantityReceived: 12, QuantityAccepted: 12},
			{SKU: "B", Ordered: intPtr(5), QuantityReceived: 1, QuantityAccepted: 1},
		}
		require.Equal(t, StatusOverage, ResolveStatus(cart, order, map[string]int{}))
	})

	t.Run("partial when under-delivered", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", Ordered: intPtr(10), QuantityReceived: 4, QuantityAccepted: 4},
			{SKU: "B", Ordered: intPtr(5), QuantityReceived: 5, QuantityAccepted: 5},
		}
		require.Equal(t, StatusPartialDelivery, ResolveStatus(cart, order, map[string]int{}))
	})

	t.Run("order line missing from cart counts history only", func(t *testing.T) {
		cart := []Line{
			{SKU: "A", Ordered: intPtr(10), QuantityReceived: 10, QuantityAccepted: 10},
		}
		history := map[string]int{"B": 5}
		require.Equal(t, StatusBooked, ResolveStatus(cart, order, history))
	})

	t.Run("satisfied totals with a partial rejection stay partial", func(t *testing.T) {
		// 10 received, 2 rejected: totals say 8 of 10, under-delivered, but the
		// rejection alone would also force partial on an otherwise exact match.
		cart := []Line{
			{SKU: "A", Ordered: intPtr(10), QuantityReceived: 10, QuantityRejected: 2, QuantityAccepted: 8, RejectionReason: RejectionOverdelivery},
			{SKU: "B", Ordered: intPtr(5), QuantityReceived: 5, QuantityAccepted: 5},
		}
		history := map[string]int{"A": 2}
		require.Equal(t, StatusPartialDelivery, ResolveStatus(cart, order, history))
	})
}

func TestResolveStatusFreeReceipt(t *testing.T) {
	t.Run("booked without order", func(t *testing.T) {
		cart := []Line{{SKU: "X", QuantityReceived: 3, QuantityAccepted: 3}}
		require.Equal(t, StatusBooked, ResolveStatus(cart, nil, nil))
	})

	t.Run("partial on any rejection without order", func(t *testing.T) {
		cart := []Line{
			{SKU: "X", QuantityReceived: 3, QuantityRejected: 1, QuantityAccepted: 2, RejectionReason: RejectionOverdelivery},
		}
		require.Equal(t, StatusPartialDelivery, ResolveStatus(cart, nil, nil))
	})
}

func TestDisplayStatus(t *testing.T) {
	require.Equal(t, StatusPartialDelivery, DisplayStatus(StatusPartialDelivery, false))
	require.Equal(t, StatusClosed, DisplayStatus(StatusPartialDelivery, true))
	require.Equal(t, StatusClosed, DisplayStatus(StatusOverage, true))
}

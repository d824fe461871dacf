package receipt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLegacyStatus(t *testing.T) {
	cases := []struct {
		raw    string
		want   Status
		mapped bool
	}{
		{"Offen", StatusOpen, true},
		{"Wartet auf Prüfung", StatusAwaitingReview, true},
		{"in prüfung", StatusInReview, true},
		{"Teillieferung", StatusPartialDelivery, true},
		{"teilweise geliefert", StatusPartialDelivery, true},
		{"Gebucht", StatusBooked, true},
		{"Abgeschlossen", StatusClosed, true},
		{"Schaden", StatusDamaged, true},
		{"Ware beschädigt", StatusDamaged, true},
		{"Schaden + Falsch", StatusDamagedAndWrong, true},
		{"schaden und falsch geliefert", StatusDamagedAndWrong, true},
		{"Falsch geliefert", StatusWrongDelivery, true},
		{"Abgelehnt", StatusRejected, true},
		{"Übermenge", StatusOverage, true},
		{"zu viel", StatusOverage, true},
		{"in bearbeitung", StatusBooked, true},
		{"Rücksendung", StatusClosed, true},
		{"  gebucht  ", StatusBooked, true},
		{"", "", false},
		{"völlig unbekannt", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseLegacyStatus(tc.raw)
		require.Equal(t, tc.mapped, ok, "input %q", tc.raw)
		require.Equal(t, tc.want, got, "input %q", tc.raw)
	}
}

func TestStockMovements(t *testing.T) {
	cart := []Line{
		{SKU: "A", Name: "Lager", QuantityAccepted: 5},
		{SKU: "B", Name: "Ring", QuantityAccepted: 0},
		{SKU: "C", Name: "Dichtung", QuantityAccepted: -2},
	}
	moves := StockMovements(cart, "LS-123", ContextProject)
	require.Len(t, moves, 2)
	require.Equal(t, "A", moves[0].SKU)
	require.Equal(t, 5, moves[0].Quantity)
	require.Equal(t, "Wareneingang LS-123", moves[0].Source)
	require.Equal(t, ContextProject, moves[0].Context)
	require.Equal(t, -2, moves[1].Quantity)
}

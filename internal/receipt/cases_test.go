package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func allCases() CaseConfig {
	return CaseConfig{Damage: true, Wrong: true, Rejected: true, Missing: true, Extra: true}
}

func TestGenerateCasesQuality(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	cart := []Line{
		{
			SKU: "SKU-1", Name: "Kugellager", Ordered: intPtr(10),
			QuantityReceived: 10, QuantityRejected: 2, QuantityAccepted: 8,
			RejectionReason: RejectionDamaged, RejectionNotes: "Verpackung aufgerissen",
		},
		{
			SKU: "SKU-2", Name: "Dichtring", Ordered: intPtr(5),
			QuantityReceived: 5, QuantityRejected: 1, QuantityAccepted: 4,
			RejectionReason: RejectionWrong,
		},
	}
	cases := GenerateCases(CaseInput{
		BatchID: "b-1", OrderID: "PO-77", Config: allCases(), Cart: cart, Now: now,
	})
	require.Len(t, cases, 2) // quality plus partial (rejections leave both lines short)

	quality := cases[0]
	require.Equal(t, PriorityHigh, quality.Priority)
	require.Equal(t, CaseOpen, quality.Status)
	require.Equal(t, "b-1", quality.ReceiptBatchID)
	require.Equal(t, "Qualitätsproblem: Beschädigung, Falschlieferung – PO-77", quality.Subject)
	require.Len(t, quality.Messages, 1)
	require.Equal(t, MessageSystem, quality.Messages[0].Kind)
	require.Contains(t, quality.Messages[0].Text, "Kugellager (SKU-1): 2x Abgelehnt (Beschädigt) - Verpackung aufgerissen")
	require.Contains(t, quality.Messages[0].Text, "Dichtring (SKU-2): 1x Abgelehnt (Falsch) - Keine Details")

	partial := cases[1]
	require.Equal(t, PriorityNormal, partial.Priority)
	require.True(t, strings.HasPrefix(partial.Subject, "Teillieferung – PO-77 – Offen: 3 Stück"))
}

func TestGenerateCasesPartial(t *testing.T) {
	cart := []Line{
		{SKU: "SKU-1", Name: "Schraube", Ordered: intPtr(100), QuantityReceived: 60, QuantityAccepted: 60},
	}
	cases := GenerateCases(CaseInput{
		BatchID: "b-2", OrderID: "PO-12", Config: allCases(), Cart: cart, Now: time.Now(),
	})
	require.Len(t, cases, 1)
	require.Equal(t, "Teillieferung – PO-12 – Offen: 40 Stück", cases[0].Subject)
	require.Equal(t, PriorityNormal, cases[0].Priority)
	require.Contains(t, cases[0].Messages[0].Text, "Schraube (SKU-1): Bestellt 100, Geliefert 60, Offen 40")
	require.Contains(t, cases[0].Messages[0].Text, "Gesamt offen: 40 Stück")
}

func TestGenerateCasesPartialRequiresOrder(t *testing.T) {
	cart := []Line{
		{SKU: "SKU-1", Name: "Schraube", Ordered: intPtr(100), QuantityReceived: 60, QuantityAccepted: 60},
	}
	cases := GenerateCases(CaseInput{
		BatchID: "b-2", DeliveryNote: "LS-9", Config: allCases(), Cart: cart, Now: time.Now(),
	})
	require.Empty(t, cases)
}

func TestGenerateCasesOverage(t *testing.T) {
	now := time.Now()
	cart := []Line{
		{
			SKU: "SKU-1", Name: "Lager", Ordered: intPtr(10), PreviouslyReceived: 8,
			QuantityReceived: 5, QuantityAccepted: 5,
		},
		{
			SKU: "SKU-2", Name: "Ring", Ordered: intPtr(5),
			QuantityReceived: 7, QuantityRejected: 2, QuantityAccepted: 5,
			RejectionReason: RejectionOverdelivery, RejectionNotes: "zurück an Lieferant",
			ReturnCarrier: "DHL", ReturnTrackingID: "JD014600003",
		},
	}
	cases := GenerateCases(CaseInput{
		BatchID: "b-3", OrderID: "PO-9", Config: allCases(), Cart: cart, Now: now,
	})
	require.Len(t, cases, 1)

	overage := cases[0]
	require.Equal(t, "Übermenge – PO-9 – Zu viel: 3 Stück", overage.Subject)
	require.Len(t, overage.Messages, 2)
	require.Contains(t, overage.Messages[0].Text, "Ring (SKU-2): 2x zurückgesendet (Übermenge) - zurück an Lieferant")
	require.Contains(t, overage.Messages[0].Text, "Lager (SKU-1): Bestellt 10, Gesamt geliefert 13, Zu viel 3")
	require.Contains(t, overage.Messages[0].Text, "Gesamt zu viel: 3 Stück")

	returnMsg := overage.Messages[1]
	require.Contains(t, returnMsg.Text, "Rücksendung erfasst:")
	require.Contains(t, returnMsg.Text, "Versandart: DHL")
	require.Contains(t, returnMsg.Text, "Tracking: JD014600003")
	require.Contains(t, returnMsg.Text, "Grund: zurück an Lieferant")
	require.True(t, returnMsg.Timestamp.After(overage.Messages[0].Timestamp))
}

func TestGenerateCasesReturnModeSuppressed(t *testing.T) {
	cart := []Line{
		{SKU: "SKU-1", Name: "Lager", QuantityReceived: 2, QuantityRejected: 2, RejectionReason: RejectionDamaged},
	}
	cases := GenerateCases(CaseInput{
		BatchID: "b-4", OrderID: "PO-1", Mode: ModeReturn, Config: allCases(), Cart: cart, Now: time.Now(),
	})
	require.Nil(t, cases)
}

func TestGenerateCasesConfigFlags(t *testing.T) {
	cart := []Line{
		{
			SKU: "SKU-1", Name: "Lager", Ordered: intPtr(10),
			QuantityReceived: 4, QuantityRejected: 1, QuantityAccepted: 3,
			RejectionReason: RejectionDamaged,
		},
	}

	t.Run("damage flag off drops quality case", func(t *testing.T) {
		cfg := allCases()
		cfg.Damage = false
		cases := GenerateCases(CaseInput{BatchID: "b", OrderID: "PO-1", Config: cfg, Cart: cart, Now: time.Now()})
		require.Len(t, cases, 1)
		require.Contains(t, cases[0].Subject, "Teillieferung")
	})

	t.Run("missing flag off drops partial case", func(t *testing.T) {
		cfg := allCases()
		cfg.Missing = false
		cases := GenerateCases(CaseInput{BatchID: "b", OrderID: "PO-1", Config: cfg, Cart: cart, Now: time.Now()})
		require.Len(t, cases, 1)
		require.Contains(t, cases[0].Subject, "Qualitätsproblem")
	})

	t.Run("all flags off yields nothing", func(t *testing.T) {
		cases := GenerateCases(CaseInput{BatchID: "b", OrderID: "PO-1", Config: CaseConfig{}, Cart: cart, Now: time.Now()})
		require.Empty(t, cases)
	})
}

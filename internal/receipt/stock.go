package receipt

import "fmt"

// MovementContext tags a stock movement with its operational origin.
type MovementContext string

const (
	ContextNormal  MovementContext = "NORMAL"
	ContextProject MovementContext = "PROJECT"
	ContextManual  MovementContext = "MANUAL"
)

// StockMovement is one signed quantity change handed to the inventory
// ledger. Positive quantities add stock, negative quantities remove it
// (correction receipts). This core only computes movements; applying them
// is the ledger's job.
type StockMovement struct {
	SKU      string
	Name     string
	Quantity int
	Source   string
	Context  MovementContext
}

// StockMovements projects the finalized cart into ledger movements, one per
// line with a nonzero accepted delta.
func StockMovements(cart []Line, deliveryNote string, movementCtx MovementContext) []StockMovement {
	var moves []StockMovement
	source := fmt.Sprintf("Wareneingang %s", deliveryNote)
	for _, line := range cart {
		if line.QuantityAccepted == 0 {
			continue
		}
		moves = append(moves, StockMovement{
			SKU:      line.SKU,
			Name:     line.Name,
			Quantity: line.QuantityAccepted,
			Source:   source,
			Context:  movementCtx,
		})
	}
	return moves
}

// Package lowstock evaluates whether a stocked item has fallen to its alert
// threshold. It holds no state; callers re-evaluate on every read.
package lowstock

// Stocked is anything whose quantity the ledger manages.
type Stocked interface {
	StockLevel() (quantity, threshold int)
}

// IsLow reports quantity <= threshold. A threshold of 0 only flags an item
// that is out of stock.
func IsLow(e Stocked) bool {
	q, threshold := e.StockLevel()
	return q <= threshold
}

// Level is a bare quantity/threshold pair.
type Level struct {
	Quantity  int
	Threshold int
}

func (l Level) StockLevel() (int, int) { return l.Quantity, l.Threshold }

package portfolio

import (
	"fmt"
	"sort"

	"github.com/username/finanzfolio/backend/src/models"
)

// Ledger aggregates parsed buy transactions into positions, applying
// quantity-weighted average cost accounting on repeated purchases of the same
// asset identity. A Ledger is an explicit value threaded through ingestion
// and valuation calls; it does no locking and assumes exclusive access during
// a Merge or snapshot.
type Ledger struct {
	positions map[string]*models.AssetPosition
}

func NewLedger() *Ledger {
	return &Ledger{positions: make(map[string]*models.AssetPosition)}
}

// Load rebuilds a ledger from previously persisted positions.
func Load(positions []models.AssetPosition) *Ledger {
	l := NewLedger()
	for i := range positions {
		p := positions[i]
		l.positions[p.Key] = &p
	}
	return l
}

// Merge folds one transaction into the ledger. First transaction for a key
// creates the position with the current price initialized to the purchase
// price; later transactions for the same key increase the quantity and
// re-weight the average cost. Identity fields (symbol, type, currency,
// purchase date) are first-write-wins and never re-derived on merge.
//
// A non-positive quantity should have been rejected by the extractor; seeing
// one here is an internal consistency error and fails just this merge, never
// producing a NaN average cost.
func (l *Ledger) Merge(tx models.ParsedTransaction) error {
	if tx.Quantity <= 0 {
		return fmt.Errorf("ledger: non-positive quantity %v for %q reached merge", tx.Quantity, tx.AssetName)
	}

	key := models.PositionKey(tx.AssetName, tx.Symbol)
	existing, ok := l.positions[key]
	if !ok {
		l.positions[key] = &models.AssetPosition{
			Key:          key,
			AssetName:    tx.AssetName,
			Symbol:       tx.Symbol,
			AssetType:    tx.AssetType,
			Quantity:     tx.Quantity,
			AverageCost:  tx.UnitPrice,
			Currency:     tx.Currency,
			PurchaseDate: tx.PurchaseDate,
			CurrentPrice: tx.UnitPrice,
		}
		return nil
	}

	totalQuantity := existing.Quantity + tx.Quantity
	if totalQuantity <= 0 {
		return fmt.Errorf("ledger: zero total quantity for %q", key)
	}
	oldValue := existing.Quantity * existing.AverageCost
	newValue := tx.Quantity * tx.UnitPrice
	existing.AverageCost = (oldValue + newValue) / totalQuantity
	existing.Quantity = totalQuantity
	return nil
}

// Get returns a copy of the position for key.
func (l *Ledger) Get(key string) (models.AssetPosition, bool) {
	p, ok := l.positions[key]
	if !ok {
		return models.AssetPosition{}, false
	}
	return *p, true
}

// Len returns the number of positions.
func (l *Ledger) Len() int {
	return len(l.positions)
}

// Positions returns copies of all positions, sorted by key for stable output.
func (l *Ledger) Positions() []models.AssetPosition {
	out := make([]models.AssetPosition, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Remove deletes a position. Removal is a management-layer operation, not
// part of ingestion; the ledger tolerates a position disappearing between
// ingestion calls.
func (l *Ledger) Remove(key string) bool {
	if _, ok := l.positions[key]; !ok {
		return false
	}
	delete(l.positions, key)
	return true
}

// RefreshPrices updates stored current prices from a price lookup. Positions
// whose symbol the lookup cannot price keep their previous current price.
// It returns the number of positions updated.
func (l *Ledger) RefreshPrices(lookup PriceLookup) int {
	if lookup == nil {
		return 0
	}
	updated := 0
	for _, p := range l.positions {
		if price, ok := lookup(p.Symbol, p.AssetType); ok && price > 0 {
			p.CurrentPrice = price
			updated++
		}
	}
	return updated
}

package portfolio

import (
	"sort"

	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/utils"
)

// PriceLookup supplies a current price for a symbol. The second return value
// is false when no price is available; the valuation then treats the
// position as flat, never as an error.
type PriceLookup func(symbol string, assetType models.AssetType) (float64, bool)

// Snapshot computes a point-in-time valuation of the ledger. Per position:
// invested value, market value, absolute and percent gain; plus portfolio
// totals and a per-asset-type breakdown. A zero-cost position reports 0%
// gain rather than dividing by zero. Snapshot never mutates the ledger.
func Snapshot(l *Ledger, lookup PriceLookup) models.PortfolioSnapshot {
	snapshot := models.PortfolioSnapshot{Positions: []models.PositionValue{}, ByType: []models.TypeSummary{}}
	byType := make(map[models.AssetType]*models.TypeSummary)

	for _, p := range l.Positions() {
		invested := p.Quantity * p.AverageCost

		price := p.CurrentPrice
		if lookup != nil {
			if current, ok := lookup(p.Symbol, p.AssetType); ok && current > 0 {
				price = current
			}
		}
		marketValue := invested
		if price > 0 {
			marketValue = p.Quantity * price
		}

		gain := marketValue - invested
		snapshot.Positions = append(snapshot.Positions, models.PositionValue{
			Key:          p.Key,
			AssetName:    p.AssetName,
			Symbol:       p.Symbol,
			AssetType:    p.AssetType,
			Currency:     p.Currency,
			PurchaseDate: p.PurchaseDate,
			Quantity:     p.Quantity,
			AverageCost:  p.AverageCost,
			CurrentPrice: price,
			Invested:     invested,
			MarketValue:  marketValue,
			Gain:         gain,
			GainPercent:  gainPercent(gain, invested),
		})

		summary, ok := byType[p.AssetType]
		if !ok {
			summary = &models.TypeSummary{AssetType: p.AssetType}
			byType[p.AssetType] = summary
		}
		summary.Invested += invested
		summary.MarketValue += marketValue
		summary.Gain += gain

		snapshot.TotalInvested += invested
		snapshot.TotalMarketValue += marketValue
	}

	snapshot.TotalGain = snapshot.TotalMarketValue - snapshot.TotalInvested
	snapshot.TotalGainPercent = gainPercent(snapshot.TotalGain, snapshot.TotalInvested)

	for _, summary := range byType {
		summary.GainPercent = gainPercent(summary.Gain, summary.Invested)
		snapshot.ByType = append(snapshot.ByType, *summary)
	}
	sort.Slice(snapshot.ByType, func(i, j int) bool {
		return snapshot.ByType[i].AssetType < snapshot.ByType[j].AssetType
	})

	return snapshot
}

// TopPerformers returns the n positions with the largest absolute gain.
func TopPerformers(snapshot models.PortfolioSnapshot, n int) []models.PositionValue {
	positions := make([]models.PositionValue, len(snapshot.Positions))
	copy(positions, snapshot.Positions)
	sort.Slice(positions, func(i, j int) bool { return positions[i].Gain > positions[j].Gain })
	if len(positions) > n {
		positions = positions[:n]
	}
	return positions
}

func gainPercent(gain, invested float64) float64 {
	if invested <= 0 {
		return 0
	}
	return utils.RoundFloat(gain/invested*100, 4)
}

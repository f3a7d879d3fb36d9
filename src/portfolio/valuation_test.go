package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzfolio/backend/src/models"
)

func TestSnapshotEmptyLedger(t *testing.T) {
	snapshot := Snapshot(NewLedger(), nil)
	assert.Empty(t, snapshot.Positions)
	assert.Empty(t, snapshot.ByType)
	assert.Equal(t, 0.0, snapshot.TotalInvested)
	assert.Equal(t, 0.0, snapshot.TotalMarketValue)
	assert.Equal(t, 0.0, snapshot.TotalGain)
	assert.Equal(t, 0.0, snapshot.TotalGainPercent)
}

func TestSnapshotWithLivePrices(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Merge(buyTx("Apple Inc.", "AAPL", 10, 100)))

	lookup := func(symbol string, _ models.AssetType) (float64, bool) {
		return 120.0, true
	}
	snapshot := Snapshot(l, lookup)

	require.Len(t, snapshot.Positions, 1)
	p := snapshot.Positions[0]
	assert.Equal(t, 1000.0, p.Invested)
	assert.Equal(t, 1200.0, p.MarketValue)
	assert.Equal(t, 200.0, p.Gain)
	assert.InDelta(t, 20.0, p.GainPercent, 1e-9)
	assert.Equal(t, 120.0, p.CurrentPrice)

	assert.Equal(t, 1000.0, snapshot.TotalInvested)
	assert.Equal(t, 1200.0, snapshot.TotalMarketValue)
	assert.InDelta(t, 20.0, snapshot.TotalGainPercent, 1e-9)
}

func TestSnapshotUnknownPriceIsFlat(t *testing.T) {
	l := NewLedger()
	tx := buyTx("Unlisted AG", "UNL", 5, 50)
	require.NoError(t, l.Merge(tx))
	// Simulate a position persisted without any price.
	p, _ := l.Get("Unlisted AG (UNL)")
	p.CurrentPrice = 0
	l = Load([]models.AssetPosition{p})

	lookup := func(string, models.AssetType) (float64, bool) { return 0, false }
	snapshot := Snapshot(l, lookup)

	require.Len(t, snapshot.Positions, 1)
	pos := snapshot.Positions[0]
	assert.Equal(t, 250.0, pos.Invested)
	assert.Equal(t, 250.0, pos.MarketValue)
	assert.Equal(t, 0.0, pos.Gain)
	assert.Equal(t, 0.0, pos.GainPercent)
}

func TestSnapshotZeroCostPositionReportsZeroPercent(t *testing.T) {
	l := Load([]models.AssetPosition{{
		Key:       "Airdrop Token (ADT)",
		AssetName: "Airdrop Token",
		Symbol:    "ADT",
		AssetType: models.AssetTypeCrypto,
		Quantity:  100,
	}})
	lookup := func(string, models.AssetType) (float64, bool) { return 2.0, true }
	snapshot := Snapshot(l, lookup)

	require.Len(t, snapshot.Positions, 1)
	p := snapshot.Positions[0]
	assert.Equal(t, 0.0, p.Invested)
	assert.Equal(t, 200.0, p.MarketValue)
	assert.Equal(t, 200.0, p.Gain)
	assert.Equal(t, 0.0, p.GainPercent)
}

func TestSnapshotByTypeBreakdown(t *testing.T) {
	l := NewLedger()
	stock := buyTx("Apple Inc.", "AAPL", 10, 100)
	require.NoError(t, l.Merge(stock))
	etf := buyTx("Vanguard FTSE All-World", "VWRL", 20, 90)
	etf.AssetType = models.AssetTypeETF
	require.NoError(t, l.Merge(etf))
	etf2 := buyTx("iShares Core MSCI World", "IWDA", 10, 80)
	etf2.AssetType = models.AssetTypeETF
	require.NoError(t, l.Merge(etf2))

	snapshot := Snapshot(l, nil)

	require.Len(t, snapshot.ByType, 2)
	byType := make(map[models.AssetType]models.TypeSummary)
	for _, s := range snapshot.ByType {
		byType[s.AssetType] = s
	}
	assert.Equal(t, 1000.0, byType[models.AssetTypeStock].Invested)
	assert.Equal(t, 2600.0, byType[models.AssetTypeETF].Invested)
	assert.Equal(t, 3600.0, snapshot.TotalInvested)
}

func TestSnapshotDoesNotMutateLedger(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Merge(buyTx("Apple Inc.", "AAPL", 10, 100)))

	lookup := func(string, models.AssetType) (float64, bool) { return 500.0, true }
	Snapshot(l, lookup)

	p, _ := l.Get("Apple Inc. (AAPL)")
	assert.Equal(t, 100.0, p.CurrentPrice)
	assert.Equal(t, 100.0, p.AverageCost)
}

func TestTopPerformers(t *testing.T) {
	snapshot := models.PortfolioSnapshot{Positions: []models.PositionValue{
		{Key: "A", Gain: 10},
		{Key: "B", Gain: 300},
		{Key: "C", Gain: -50},
		{Key: "D", Gain: 120},
	}}

	top := TopPerformers(snapshot, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Key)
	assert.Equal(t, "D", top[1].Key)

	// n larger than the position count returns everything.
	assert.Len(t, TopPerformers(snapshot, 10), 4)
	// Input ordering is preserved.
	assert.Equal(t, "A", snapshot.Positions[0].Key)
}

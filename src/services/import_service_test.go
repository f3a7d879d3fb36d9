package services

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzfolio/backend/src/logger"
	"github.com/username/finanzfolio/backend/src/models"
	_ "modernc.org/sqlite"
)

func init() {
	logger.InitLogger("error")
}

const testSchema = `
CREATE TABLE portfolios (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE positions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    portfolio_id INTEGER NOT NULL,
    position_key TEXT NOT NULL,
    asset_name TEXT NOT NULL,
    symbol TEXT NOT NULL,
    asset_type TEXT NOT NULL,
    quantity REAL NOT NULL,
    average_cost REAL NOT NULL,
    currency TEXT NOT NULL,
    purchase_date TEXT NOT NULL,
    current_price REAL NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (portfolio_id, position_key)
);
CREATE TABLE uploads_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    portfolio_id INTEGER NOT NULL,
    batch_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    file_size INTEGER NOT NULL,
    schema TEXT NOT NULL,
    imported INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
INSERT INTO portfolios (name) VALUES ('Main Portfolio');
`

func newTestService(t *testing.T) (ImportService, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	reportCache := cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	return NewImportService(db, nil, reportCache), db
}

func TestProcessUploadBrokerExport(t *testing.T) {
	svc, _ := newTestService(t)

	csvData := strings.Join([]string{
		"DATE;ACTIVITY TYPE;ACTIVITY NAME;ASSET;PRICE PER UNIT;DEBIT CURRENCY",
		"2024-03-01;TOP_UP;Deposit;;;CHF",
		"2024-03-02;INVEST_ORDER_EXECUTED;2x Vanguard FTSE All-World;VWRL;100.00;CHF",
		"2024-03-03;INVEST_ORDER_EXECUTED;1x Vanguard FTSE All-World;VWRL;130.00;CHF",
		"2024-03-04;INVEST_ORDER_EXECUTED;0.5x Bitcoin;XBT;40000;",
	}, "\n")

	result, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "yuh_export.csv", int64(len(csvData)))
	require.NoError(t, err)

	assert.Equal(t, "broker_export", result.Schema)
	assert.Equal(t, 3, result.TransactionsImported)
	assert.Equal(t, 0, result.RowsSkipped)
	assert.Equal(t, 2, result.AssetsAdded)
	assert.Equal(t, 1, result.AssetsMerged)
	assert.NotEmpty(t, result.BatchID)

	positions, err := svc.GetPositions(1)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	var vwrl models.AssetPosition
	for _, p := range positions {
		if p.Symbol == "VWRL" {
			vwrl = p
		}
	}
	assert.Equal(t, 3.0, vwrl.Quantity)
	assert.InDelta(t, 110.0, vwrl.AverageCost, 1e-9)
	assert.Equal(t, "CHF", vwrl.Currency)
	assert.Equal(t, models.AssetTypeETF, vwrl.AssetType)
}

func TestProcessUploadMergesAcrossUploads(t *testing.T) {
	svc, _ := newTestService(t)

	first := "Symbol,Quantity,Price,Name\nAAPL,10,100,Apple Inc.\n"
	_, err := svc.ProcessUpload(strings.NewReader(first), 1, "a.csv", int64(len(first)))
	require.NoError(t, err)

	second := "Symbol,Quantity,Price,Name\nAAPL,5,130,Apple Inc.\n"
	result, err := svc.ProcessUpload(strings.NewReader(second), 1, "b.csv", int64(len(second)))
	require.NoError(t, err)
	assert.Equal(t, 0, result.AssetsAdded)
	assert.Equal(t, 1, result.AssetsMerged)

	positions, err := svc.GetPositions(1)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 15.0, positions[0].Quantity)
	assert.InDelta(t, 110.0, positions[0].AverageCost, 1e-9)
}

func TestProcessUploadUnknownPortfolio(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ProcessUpload(strings.NewReader("Symbol,Quantity,Price\nAAPL,1,1\n"), 42, "x.csv", 10)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestProcessUploadEmptyFile(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ProcessUpload(strings.NewReader(""), 1, "empty.csv", 0)
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestProcessUploadRecordsHistory(t *testing.T) {
	svc, _ := newTestService(t)

	csvData := "Symbol,Quantity,Price\nAAPL,10,150\nVWRL,bad,105\n"
	result, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "mixed.csv", int64(len(csvData)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.TransactionsImported)
	assert.Equal(t, 1, result.RowsSkipped)
	assert.Len(t, result.Warnings, 1)

	history, err := svc.GetUploadHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "mixed.csv", history[0].Filename)
	assert.Equal(t, 1, history[0].Imported)
	assert.Equal(t, 1, history[0].Skipped)
	assert.Equal(t, result.BatchID, history[0].BatchID)
}

func TestAddManualTransaction(t *testing.T) {
	svc, _ := newTestService(t)

	position, err := svc.AddManualTransaction(1, models.ParsedTransaction{
		AssetName: "iShares Core MSCI World",
		Quantity:  4,
		UnitPrice: 80,
	})
	require.NoError(t, err)

	assert.Equal(t, "iShares Core MSCI World", position.Symbol) // defaults to name
	assert.Equal(t, models.AssetTypeETF, position.AssetType)
	assert.Equal(t, "USD", position.Currency)
	assert.NotEmpty(t, position.PurchaseDate)

	_, err = svc.AddManualTransaction(1, models.ParsedTransaction{AssetName: "", Quantity: 1, UnitPrice: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddManualTransaction(1, models.ParsedTransaction{AssetName: "X", Quantity: 0, UnitPrice: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddManualTransaction(1, models.ParsedTransaction{AssetName: "X", Quantity: 1, UnitPrice: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetSnapshotAndCacheInvalidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddManualTransaction(1, models.ParsedTransaction{
		AssetName: "Apple Inc.", Symbol: "AAPL", Quantity: 10, UnitPrice: 100,
	})
	require.NoError(t, err)

	snapshot, err := svc.GetSnapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, snapshot.TotalInvested)
	assert.Equal(t, 1000.0, snapshot.TotalMarketValue)
	assert.Equal(t, 0.0, snapshot.TotalGainPercent)

	// A later write must invalidate the cached snapshot.
	_, err = svc.AddManualTransaction(1, models.ParsedTransaction{
		AssetName: "Apple Inc.", Symbol: "AAPL", Quantity: 10, UnitPrice: 100,
	})
	require.NoError(t, err)

	snapshot, err = svc.GetSnapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, snapshot.TotalInvested)
}

func TestUpdateAndDeletePosition(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.AddManualTransaction(1, models.ParsedTransaction{
		AssetName: "Apple Inc.", Symbol: "AAPL", Quantity: 10, UnitPrice: 100,
	})
	require.NoError(t, err)

	var positionID int64
	require.NoError(t, db.QueryRow(`SELECT id FROM positions WHERE symbol = 'AAPL'`).Scan(&positionID))

	updated, err := svc.UpdatePosition(1, positionID, PositionUpdate{
		AssetName: "Apple", Quantity: 12, UnitPrice: 110,
	})
	require.NoError(t, err)
	assert.Equal(t, "Apple", updated.AssetName)
	assert.Equal(t, "Apple (AAPL)", updated.Key)
	assert.Equal(t, 12.0, updated.Quantity)
	assert.Equal(t, 110.0, updated.AverageCost)

	_, err = svc.UpdatePosition(1, positionID, PositionUpdate{Quantity: 0, UnitPrice: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdatePosition(1, 9999, PositionUpdate{Quantity: 1, UnitPrice: 1})
	assert.ErrorIs(t, err, ErrPositionNotFound)

	require.NoError(t, svc.DeletePosition(1, positionID))
	assert.ErrorIs(t, svc.DeletePosition(1, positionID), ErrPositionNotFound)

	positions, err := svc.GetPositions(1)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestRefreshPrices(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	prices := NewStaticPriceService(map[string]float64{"AAPL": 180})
	svc := NewImportService(db, prices, cache.New(DefaultCacheExpiration, CacheCleanupInterval))

	_, err = svc.AddManualTransaction(1, models.ParsedTransaction{
		AssetName: "Apple Inc.", Symbol: "AAPL", Quantity: 10, UnitPrice: 100,
	})
	require.NoError(t, err)
	_, err = svc.AddManualTransaction(1, models.ParsedTransaction{
		AssetName: "Unlisted AG", Symbol: "UNL", Quantity: 5, UnitPrice: 50,
	})
	require.NoError(t, err)

	updated, err := svc.RefreshPrices(1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	snapshot, err := svc.GetSnapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 1250.0, snapshot.TotalInvested)
	assert.Equal(t, 1800.0+250.0, snapshot.TotalMarketValue)
}

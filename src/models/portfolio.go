package models

import "fmt"

// PositionKey derives the unique identity of a holding. Two transactions with
// the same key are the same holding regardless of which export format they
// came from.
func PositionKey(assetName, symbol string) string {
	return fmt.Sprintf("%s (%s)", assetName, symbol)
}

// AssetPosition is an aggregated ledger entry for one asset identity.
// Quantity and AverageCost are the only fields mutated when further buys
// merge in; Symbol, AssetType, Currency and PurchaseDate are fixed at first
// insertion.
type AssetPosition struct {
	ID           int64     `json:"id,omitempty"` // Database primary key, 0 for unsaved positions
	Key          string    `json:"key"`
	AssetName    string    `json:"asset_name"`
	Symbol       string    `json:"symbol"`
	AssetType    AssetType `json:"asset_type"`
	Quantity     float64   `json:"quantity"`
	AverageCost  float64   `json:"average_cost"`
	Currency     string    `json:"currency"`
	PurchaseDate string    `json:"purchase_date"`
	CurrentPrice float64   `json:"current_price"`
}

// PositionValue is the per-position valuation row of a snapshot.
type PositionValue struct {
	Key          string    `json:"key"`
	AssetName    string    `json:"asset_name"`
	Symbol       string    `json:"symbol"`
	AssetType    AssetType `json:"asset_type"`
	Currency     string    `json:"currency"`
	PurchaseDate string    `json:"purchase_date"`
	Quantity     float64   `json:"quantity"`
	AverageCost  float64   `json:"average_cost"`
	CurrentPrice float64   `json:"current_price"`
	Invested     float64   `json:"invested"`
	MarketValue  float64   `json:"market_value"`
	Gain         float64   `json:"gain"`
	GainPercent  float64   `json:"gain_percent"`
}

// TypeSummary aggregates invested/market value per asset type.
type TypeSummary struct {
	AssetType   AssetType `json:"asset_type"`
	Invested    float64   `json:"invested"`
	MarketValue float64   `json:"market_value"`
	Gain        float64   `json:"gain"`
	GainPercent float64   `json:"gain_percent"`
}

// PortfolioSnapshot is a point-in-time valuation projection over a ledger.
// It is computed on demand and never persisted.
type PortfolioSnapshot struct {
	Positions        []PositionValue `json:"positions"`
	ByType           []TypeSummary   `json:"by_type"`
	TotalInvested    float64         `json:"total_invested"`
	TotalMarketValue float64         `json:"total_market_value"`
	TotalGain        float64         `json:"total_gain"`
	TotalGainPercent float64         `json:"total_gain_percent"`
}

// Portfolio is a named container scoping positions and uploads.
type Portfolio struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UploadRecord describes one completed import for the upload history.
type UploadRecord struct {
	ID          int64  `json:"id"`
	PortfolioID int64  `json:"portfolio_id"`
	BatchID     string `json:"batch_id"`
	Filename    string `json:"filename"`
	FileSize    int64  `json:"file_size"`
	Schema      string `json:"schema"`
	Imported    int    `json:"imported"`
	Skipped     int    `json:"skipped"`
	CreatedAt   string `json:"created_at,omitempty"`
}

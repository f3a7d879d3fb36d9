// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"
	"time"

	"github.com/username/finanzfolio/backend/src/models"
)

const (
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// Define common service errors
var (
	ErrParsingFailed     = errors.New("csv parsing failed")
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrPositionNotFound  = errors.New("position not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// ImportResult summarizes one upload: how many rows became transactions, how
// many were skipped (with their warnings), and how the ledger changed.
// Row-level failures are aggregated here, never surfaced as errors.
type ImportResult struct {
	BatchID              string   `json:"batch_id"`
	Schema               string   `json:"schema"`
	TransactionsImported int      `json:"transactions_imported"`
	RowsSkipped          int      `json:"rows_skipped"`
	AssetsAdded          int      `json:"assets_added"`
	AssetsMerged         int      `json:"assets_merged"`
	Warnings             []string `json:"warnings"`
}

// PositionUpdate carries the editable fields of a position.
type PositionUpdate struct {
	AssetName string  `json:"asset_name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// ImportService is the core ingestion and reconciliation surface. All methods
// operate on the persisted ledger of one portfolio; access to a portfolio's
// ledger is serialized by the service.
type ImportService interface {
	ProcessUpload(fileReader io.Reader, portfolioID int64, filename string, filesize int64) (*ImportResult, error)
	AddManualTransaction(portfolioID int64, tx models.ParsedTransaction) (models.AssetPosition, error)
	GetPositions(portfolioID int64) ([]models.AssetPosition, error)
	GetSnapshot(portfolioID int64) (models.PortfolioSnapshot, error)
	UpdatePosition(portfolioID, positionID int64, update PositionUpdate) (models.AssetPosition, error)
	DeletePosition(portfolioID, positionID int64) error
	RefreshPrices(portfolioID int64) (int, error)
	GetUploadHistory(portfolioID int64) ([]models.UploadRecord, error)
	InvalidateCache(portfolioID int64)
}

// PriceService supplies current prices for symbols. The boolean is false when
// no price is available; callers fall back to treating the position as flat.
type PriceService interface {
	GetCurrentPrice(symbol string, assetType models.AssetType) (float64, bool)
}

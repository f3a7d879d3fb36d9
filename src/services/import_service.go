// backend/src/services/import_service.go
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/finanzfolio/backend/src/logger"
	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/parsers"
	"github.com/username/finanzfolio/backend/src/portfolio"
	"github.com/username/finanzfolio/backend/src/processors"
)

const ckSnapshot = "snapshot_pf_%d"

type importServiceImpl struct {
	db           *sql.DB
	priceService PriceService
	reportCache  *cache.Cache

	// Serializes ledger access per service instance. The ledger core defines
	// no locking and assumes exclusive access during a merge or snapshot.
	mu sync.Mutex
}

func NewImportService(db *sql.DB, priceService PriceService, reportCache *cache.Cache) ImportService {
	return &importServiceImpl{
		db:           db,
		priceService: priceService,
		reportCache:  reportCache,
	}
}

// ProcessUpload runs the full ingestion pipeline for one export file: read
// table, detect schema, extract rows, merge into the portfolio's ledger, and
// persist the updated positions. Row-level failures are aggregated into the
// result; only a whole-batch failure (unreadable table, unknown portfolio)
// returns an error.
func (s *importServiceImpl) ProcessUpload(fileReader io.Reader, portfolioID int64, filename string, filesize int64) (*ImportResult, error) {
	startTime := time.Now()
	logger.L.Info("ProcessUpload START", "portfolioID", portfolioID, "filename", filename)

	if err := s.ensurePortfolio(portfolioID); err != nil {
		return nil, err
	}

	table, err := parsers.ReadTable(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	schema := parsers.DetectSchema(table)
	extractor, err := parsers.ExtractorFor(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	extracted := extractor.Extract(table)
	for _, warning := range extracted.Warnings {
		logger.L.Warn("Skipped row during extraction", "portfolioID", portfolioID, "schema", schema, "reason", warning)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.loadLedger(portfolioID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		BatchID:     uuid.NewString(),
		Schema:      string(schema),
		RowsSkipped: extracted.Skipped,
		Warnings:    extracted.Warnings,
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}

	before := ledger.Len()
	touched := make(map[string]bool)
	for _, tx := range extracted.Transactions {
		// Each row's merge is independently committed; a bad row never rolls
		// back rows already merged.
		if err := ledger.Merge(tx); err != nil {
			logger.L.Error("Ledger rejected transaction", "portfolioID", portfolioID, "asset", tx.AssetName, "error", err)
			result.RowsSkipped++
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		result.TransactionsImported++
		touched[models.PositionKey(tx.AssetName, tx.Symbol)] = true
	}
	result.AssetsAdded = ledger.Len() - before
	result.AssetsMerged = len(touched) - result.AssetsAdded

	if result.TransactionsImported > 0 {
		if err := s.savePositions(portfolioID, ledger, touched); err != nil {
			return nil, err
		}
		if err := s.recordUpload(portfolioID, result, filename, filesize); err != nil {
			return nil, err
		}
	}
	s.invalidateLocked(portfolioID)

	logger.L.Info("ProcessUpload END", "portfolioID", portfolioID, "schema", schema,
		"imported", result.TransactionsImported, "skipped", result.RowsSkipped, "duration", time.Since(startTime))
	return result, nil
}

// AddManualTransaction merges a single user-entered buy into the portfolio's
// ledger, classifying the asset when no explicit type was given.
func (s *importServiceImpl) AddManualTransaction(portfolioID int64, tx models.ParsedTransaction) (models.AssetPosition, error) {
	tx.AssetName = strings.TrimSpace(tx.AssetName)
	tx.Symbol = strings.TrimSpace(tx.Symbol)
	if tx.AssetName == "" {
		return models.AssetPosition{}, fmt.Errorf("%w: asset name is required", ErrInvalidInput)
	}
	if tx.Quantity <= 0 {
		return models.AssetPosition{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if tx.UnitPrice < 0 {
		return models.AssetPosition{}, fmt.Errorf("%w: unit price must not be negative", ErrInvalidInput)
	}
	if tx.Symbol == "" {
		tx.Symbol = tx.AssetName
	}
	if tx.AssetType == "" {
		tx.AssetType = processors.Classify(tx.AssetName, tx.Symbol)
	}
	if tx.Currency == "" {
		tx.Currency = "USD"
	}
	if tx.PurchaseDate == "" {
		tx.PurchaseDate = time.Now().Format("2006-01-02")
	}

	if err := s.ensurePortfolio(portfolioID); err != nil {
		return models.AssetPosition{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.loadLedger(portfolioID)
	if err != nil {
		return models.AssetPosition{}, err
	}
	if err := ledger.Merge(tx); err != nil {
		return models.AssetPosition{}, err
	}
	key := models.PositionKey(tx.AssetName, tx.Symbol)
	if err := s.savePositions(portfolioID, ledger, map[string]bool{key: true}); err != nil {
		return models.AssetPosition{}, err
	}
	s.invalidateLocked(portfolioID)

	position, _ := ledger.Get(key)
	return position, nil
}

func (s *importServiceImpl) GetPositions(portfolioID int64) ([]models.AssetPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, err := s.loadLedger(portfolioID)
	if err != nil {
		return nil, err
	}
	return ledger.Positions(), nil
}

// GetSnapshot computes (or returns the cached) valuation snapshot for a
// portfolio, consulting the price service for current prices. Symbols the
// price service cannot price fall back to their stored current price.
func (s *importServiceImpl) GetSnapshot(portfolioID int64) (models.PortfolioSnapshot, error) {
	cacheKey := fmt.Sprintf(ckSnapshot, portfolioID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(models.PortfolioSnapshot), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.loadLedger(portfolioID)
	if err != nil {
		return models.PortfolioSnapshot{}, err
	}

	snapshot := portfolio.Snapshot(ledger, s.priceLookup())
	s.reportCache.Set(cacheKey, snapshot, DefaultCacheExpiration)
	return snapshot, nil
}

// UpdatePosition applies a management-layer edit: rename, requantify or
// re-price a position. The position's value is restated from the new
// quantity and price; the current price follows the new purchase price until
// the next price refresh.
func (s *importServiceImpl) UpdatePosition(portfolioID, positionID int64, update PositionUpdate) (models.AssetPosition, error) {
	if update.Quantity <= 0 {
		return models.AssetPosition{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if update.UnitPrice < 0 {
		return models.AssetPosition{}, fmt.Errorf("%w: unit price must not be negative", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	position, err := s.getPositionByID(portfolioID, positionID)
	if err != nil {
		return models.AssetPosition{}, err
	}

	if name := strings.TrimSpace(update.AssetName); name != "" {
		position.AssetName = name
	}
	position.Quantity = update.Quantity
	position.AverageCost = update.UnitPrice
	position.CurrentPrice = update.UnitPrice
	position.Key = models.PositionKey(position.AssetName, position.Symbol)

	_, err = s.db.Exec(`
		UPDATE positions
		SET position_key = ?, asset_name = ?, quantity = ?, average_cost = ?, current_price = ?
		WHERE id = ? AND portfolio_id = ?`,
		position.Key, position.AssetName, position.Quantity, position.AverageCost, position.CurrentPrice,
		positionID, portfolioID,
	)
	if err != nil {
		return models.AssetPosition{}, fmt.Errorf("error updating position %d: %w", positionID, err)
	}
	s.invalidateLocked(portfolioID)
	return position, nil
}

func (s *importServiceImpl) DeletePosition(portfolioID, positionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM positions WHERE id = ? AND portfolio_id = ?`, positionID, portfolioID)
	if err != nil {
		return fmt.Errorf("error deleting position %d: %w", positionID, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrPositionNotFound
	}
	s.invalidateLocked(portfolioID)
	logger.L.Info("Position deleted", "portfolioID", portfolioID, "positionID", positionID)
	return nil
}

// RefreshPrices fetches current prices for every position of the portfolio
// and persists the updated values. It returns the number of positions whose
// price changed.
func (s *importServiceImpl) RefreshPrices(portfolioID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.loadLedger(portfolioID)
	if err != nil {
		return 0, err
	}

	updated := ledger.RefreshPrices(s.priceLookup())
	if updated > 0 {
		if err := s.savePositions(portfolioID, ledger, nil); err != nil {
			return 0, err
		}
	}
	s.invalidateLocked(portfolioID)
	logger.L.Info("Prices refreshed", "portfolioID", portfolioID, "updated", updated)
	return updated, nil
}

func (s *importServiceImpl) GetUploadHistory(portfolioID int64) ([]models.UploadRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, portfolio_id, batch_id, filename, file_size, schema, imported, skipped, created_at
		FROM uploads_history
		WHERE portfolio_id = ?
		ORDER BY id DESC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error querying upload history for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	var records []models.UploadRecord
	for rows.Next() {
		var r models.UploadRecord
		if err := rows.Scan(&r.ID, &r.PortfolioID, &r.BatchID, &r.Filename, &r.FileSize, &r.Schema, &r.Imported, &r.Skipped, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning upload history row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *importServiceImpl) InvalidateCache(portfolioID int64) {
	s.invalidateLocked(portfolioID)
}

func (s *importServiceImpl) invalidateLocked(portfolioID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckSnapshot, portfolioID))
}

// priceLookup adapts the configured PriceService to the valuation engine's
// lookup signature. A nil price service means prices are never refreshed and
// valuations stay flat against the stored current price.
func (s *importServiceImpl) priceLookup() portfolio.PriceLookup {
	if s.priceService == nil {
		return nil
	}
	return s.priceService.GetCurrentPrice
}

func (s *importServiceImpl) ensurePortfolio(portfolioID int64) error {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM portfolios WHERE id = ?`, portfolioID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPortfolioNotFound
	}
	if err != nil {
		return fmt.Errorf("error checking portfolio %d: %w", portfolioID, err)
	}
	return nil
}

// loadLedger rebuilds the in-memory ledger from the persisted positions of
// one portfolio.
func (s *importServiceImpl) loadLedger(portfolioID int64) (*portfolio.Ledger, error) {
	rows, err := s.db.Query(`
		SELECT id, position_key, asset_name, symbol, asset_type, quantity, average_cost, currency, purchase_date, current_price
		FROM positions
		WHERE portfolio_id = ?
		ORDER BY position_key ASC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error querying positions for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	var positions []models.AssetPosition
	for rows.Next() {
		var p models.AssetPosition
		if err := rows.Scan(&p.ID, &p.Key, &p.AssetName, &p.Symbol, &p.AssetType, &p.Quantity, &p.AverageCost, &p.Currency, &p.PurchaseDate, &p.CurrentPrice); err != nil {
			return nil, fmt.Errorf("error scanning position row: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}
	return portfolio.Load(positions), nil
}

// savePositions upserts ledger positions. When touched is non-nil only those
// keys are written; otherwise every position is.
func (s *importServiceImpl) savePositions(portfolioID int64, ledger *portfolio.Ledger, touched map[string]bool) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
		INSERT INTO positions
			(portfolio_id, position_key, asset_name, symbol, asset_type, quantity, average_cost, currency, purchase_date, current_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, position_key) DO UPDATE SET
			quantity = excluded.quantity,
			average_cost = excluded.average_cost,
			current_price = excluded.current_price`)
	if err != nil {
		return fmt.Errorf("error preparing position upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range ledger.Positions() {
		if touched != nil && !touched[p.Key] {
			continue
		}
		if _, err := stmt.Exec(portfolioID, p.Key, p.AssetName, p.Symbol, string(p.AssetType),
			p.Quantity, p.AverageCost, p.Currency, p.PurchaseDate, p.CurrentPrice); err != nil {
			return fmt.Errorf("error upserting position %q: %w", p.Key, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing positions: %w", err)
	}
	return nil
}

func (s *importServiceImpl) recordUpload(portfolioID int64, result *ImportResult, filename string, filesize int64) error {
	_, err := s.db.Exec(`
		INSERT INTO uploads_history (portfolio_id, batch_id, filename, file_size, schema, imported, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		portfolioID, result.BatchID, filename, filesize, result.Schema, result.TransactionsImported, result.RowsSkipped,
	)
	if err != nil {
		return fmt.Errorf("failed to record upload in history: %w", err)
	}
	return nil
}

func (s *importServiceImpl) getPositionByID(portfolioID, positionID int64) (models.AssetPosition, error) {
	var p models.AssetPosition
	err := s.db.QueryRow(`
		SELECT id, position_key, asset_name, symbol, asset_type, quantity, average_cost, currency, purchase_date, current_price
		FROM positions
		WHERE id = ? AND portfolio_id = ?`, positionID, portfolioID).
		Scan(&p.ID, &p.Key, &p.AssetName, &p.Symbol, &p.AssetType, &p.Quantity, &p.AverageCost, &p.Currency, &p.PurchaseDate, &p.CurrentPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AssetPosition{}, ErrPositionNotFound
	}
	if err != nil {
		return models.AssetPosition{}, fmt.Errorf("error loading position %d: %w", positionID, err)
	}
	return p, nil
}

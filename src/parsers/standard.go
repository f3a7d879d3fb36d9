package parsers

import (
	"time"

	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/processors"
)

// Optional column vocabularies for the standard layout.
var (
	nameHeaders     = []string{"name", "asset name", "description", "bezeichnung"}
	typeHeaders     = []string{"type", "typ", "asset type"}
	currencyHeaders = []string{"currency", "währung", "waehrung"}
	dateHeaders     = []string{"date", "datum", "purchase date", "kaufdatum"}
)

// StandardExtractor reads tables whose headers name a symbol, quantity and
// price column directly. Missing optional columns substitute fixed defaults.
type StandardExtractor struct{}

func NewStandardExtractor() *StandardExtractor {
	return &StandardExtractor{}
}

func (e *StandardExtractor) Extract(table *models.Table) *ExtractResult {
	result := &ExtractResult{}

	nameCol := findHeader(table, nameHeaders)
	symbolCol := findHeader(table, symbolHeaders)
	quantityCol := findHeader(table, quantityHeaders)
	priceCol := findHeader(table, priceHeaders)
	typeCol := findHeader(table, typeHeaders)
	currencyCol := findHeader(table, currencyHeaders)
	dateCol := findHeader(table, dateHeaders)

	today := time.Now().Format("2006-01-02")

	for i, row := range table.Rows {
		symbol := table.Cell(row, symbolCol)
		name := table.Cell(row, nameCol)
		if name == "" {
			name = symbol
		}
		if name == "" {
			result.skip("row %d: missing asset name and symbol", i+1)
			continue
		}
		if symbol == "" {
			symbol = name
		}

		quantity, err := parseDecimal(table.Cell(row, quantityCol))
		if err != nil || quantity <= 0 {
			result.skip("row %d: invalid quantity %q", i+1, table.Cell(row, quantityCol))
			continue
		}
		price, err := parseDecimal(table.Cell(row, priceCol))
		if err != nil || price < 0 {
			result.skip("row %d: invalid price %q", i+1, table.Cell(row, priceCol))
			continue
		}

		assetType, ok := models.ParseAssetType(table.Cell(row, typeCol))
		if !ok {
			assetType = processors.Classify(name, symbol)
		}

		currency := table.Cell(row, currencyCol)
		if currency == "" {
			currency = "USD"
		}
		date := table.Cell(row, dateCol)
		if date == "" {
			date = today
		}

		result.Transactions = append(result.Transactions, models.ParsedTransaction{
			AssetName:    name,
			Symbol:       symbol,
			Quantity:     quantity,
			UnitPrice:    price,
			Currency:     currency,
			PurchaseDate: date,
			AssetType:    assetType,
		})
	}

	return result
}

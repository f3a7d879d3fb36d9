package parsers

import (
	"time"

	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/processors"
)

// Column positions for the fallback layout.
const (
	posName = iota
	posSymbol
	posQuantity
	posPrice
	posType
	posCurrency
	posDate
)

// PositionalExtractor reads cells by index when no named schema matched.
// Columns beyond the available row length substitute fixed defaults: the
// symbol falls back to the asset name, the type to "Aktie", the currency to
// "USD" and the date to the ingestion day.
type PositionalExtractor struct{}

func NewPositionalExtractor() *PositionalExtractor {
	return &PositionalExtractor{}
}

func (e *PositionalExtractor) Extract(table *models.Table) *ExtractResult {
	result := &ExtractResult{}
	today := time.Now().Format("2006-01-02")

	for i, row := range table.Rows {
		name := table.Cell(row, posName)
		if name == "" {
			result.skip("row %d: missing asset name", i+1)
			continue
		}
		symbol := table.Cell(row, posSymbol)
		if symbol == "" {
			symbol = name
		}

		quantity, err := parseDecimal(table.Cell(row, posQuantity))
		if err != nil || quantity <= 0 {
			result.skip("row %d: invalid quantity %q", i+1, table.Cell(row, posQuantity))
			continue
		}

		price := 0.0
		if cell := table.Cell(row, posPrice); cell != "" {
			price, err = parseDecimal(cell)
			if err != nil || price < 0 {
				result.skip("row %d: invalid price %q", i+1, cell)
				continue
			}
		}

		assetType, ok := models.ParseAssetType(table.Cell(row, posType))
		if !ok {
			assetType = processors.Classify(name, symbol)
		}

		currency := table.Cell(row, posCurrency)
		if currency == "" {
			currency = "USD"
		}
		date := table.Cell(row, posDate)
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

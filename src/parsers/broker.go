package parsers

import (
	"regexp"
	"strings"

	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/processors"
)

// Broker activity exports embed both quantity and asset name in a single
// free-text field, e.g. "2.5x Vanguard FTSE All-World". Two independent
// patterns keep the quantity/name boundary unambiguous: grouping separators
// inside the quantity token must not corrupt the name capture.
var (
	activityQuantityRe = regexp.MustCompile(`^\s*([\d.,']+)\s*x`)
	activityNameRe     = regexp.MustCompile(`x\s+(.+)$`)
)

const (
	brokerPriceHeader    = "PRICE PER UNIT"
	brokerSymbolHeader   = "ASSET"
	brokerDateHeader     = "DATE"
	brokerCurrencyHeader = "DEBIT CURRENCY"

	// brokerDefaultCurrency applies when the debit-currency column is absent
	// or empty for a row. These exports come from a Swiss broker.
	brokerDefaultCurrency = "CHF"
)

// BrokerExportExtractor reads broker activity exports. Only rows whose
// activity type is the execution marker are buys; other activity rows
// (deposits, card payments, interest) are filtered out entirely and do not
// count as skips.
type BrokerExportExtractor struct{}

func NewBrokerExportExtractor() *BrokerExportExtractor {
	return &BrokerExportExtractor{}
}

func (e *BrokerExportExtractor) Extract(table *models.Table) *ExtractResult {
	result := &ExtractResult{}

	activityTypeCol := table.ColumnIndex(activityTypeHeader)
	activityNameCol := table.ColumnIndex(activityNameHeader)
	priceCol := table.ColumnIndex(brokerPriceHeader)
	symbolCol := table.ColumnIndex(brokerSymbolHeader)
	dateCol := table.ColumnIndex(brokerDateHeader)
	currencyCol := table.ColumnIndex(brokerCurrencyHeader)

	for i, row := range table.Rows {
		if !strings.EqualFold(table.Cell(row, activityTypeCol), executionMarker) {
			continue
		}

		activity := table.Cell(row, activityNameCol)

		quantityMatch := activityQuantityRe.FindStringSubmatch(activity)
		if quantityMatch == nil {
			result.skip("row %d: activity %q has no leading quantity token", i+1, activity)
			continue
		}
		quantity, err := parseDecimal(quantityMatch[1])
		if err != nil || quantity <= 0 {
			result.skip("row %d: unparsable quantity %q in activity %q", i+1, quantityMatch[1], activity)
			continue
		}

		nameMatch := activityNameRe.FindStringSubmatch(activity)
		if nameMatch == nil {
			result.skip("row %d: activity %q has no asset name after quantity", i+1, activity)
			continue
		}
		name := strings.TrimSpace(nameMatch[1])
		if name == "" {
			result.skip("row %d: empty asset name in activity %q", i+1, activity)
			continue
		}

		price, err := parseDecimal(table.Cell(row, priceCol))
		if err != nil || price < 0 {
			result.skip("row %d: invalid unit price %q", i+1, table.Cell(row, priceCol))
			continue
		}

		symbol := table.Cell(row, symbolCol)
		if symbol == "" {
			symbol = name
		}

		currency := table.Cell(row, currencyCol)
		if currency == "" {
			currency = brokerDefaultCurrency
		}

		result.Transactions = append(result.Transactions, models.ParsedTransaction{
			AssetName:    name,
			Symbol:       symbol,
			Quantity:     quantity,
			UnitPrice:    price,
			Currency:     strings.ToUpper(currency),
			PurchaseDate: table.Cell(row, dateCol),
			AssetType:    processors.Classify(name, symbol),
		})
	}

	return result
}

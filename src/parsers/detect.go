package parsers

import (
	"strings"

	"github.com/username/finanzfolio/backend/src/models"
)

// Schema identifies which of the known export layouts a table matches.
type Schema string

const (
	SchemaStandard     Schema = "standard"
	SchemaBrokerExport Schema = "broker_export"
	SchemaPositional   Schema = "positional"
)

// Recognized header vocabularies. Detection matches exactly against these,
// case-insensitive; they are configuration constants, not computed.
var (
	symbolHeaders   = []string{"symbol", "ticker", "asset"}
	quantityHeaders = []string{"quantity", "qty", "menge", "shares"}
	priceHeaders    = []string{"price", "preis", "unit price", "price per unit", "kaufpreis"}
)

const (
	activityTypeHeader = "ACTIVITY TYPE"
	activityNameHeader = "ACTIVITY NAME"

	// executionMarker is the activity value identifying a completed buy order
	// in broker activity exports.
	executionMarker = "INVEST_ORDER_EXECUTED"
)

// DetectSchema decides which extraction schema applies to a table. The check
// is ordered and first-match-wins, so a table is never interpreted as a
// hybrid of two layouts:
//
//  1. SchemaStandard when the headers carry a symbol, a quantity and a price
//     column under recognized names.
//  2. SchemaBrokerExport when an activity-type column exists and at least one
//     row carries the execution marker.
//  3. SchemaPositional otherwise; fields are read by column position.
func DetectSchema(table *models.Table) Schema {
	if hasHeader(table, symbolHeaders) && hasHeader(table, quantityHeaders) && hasHeader(table, priceHeaders) {
		return SchemaStandard
	}

	if col := table.ColumnIndex(activityTypeHeader); col >= 0 {
		for _, row := range table.Rows {
			if strings.EqualFold(table.Cell(row, col), executionMarker) {
				return SchemaBrokerExport
			}
		}
	}

	return SchemaPositional
}

func hasHeader(table *models.Table, names []string) bool {
	for _, name := range names {
		if table.ColumnIndex(name) >= 0 {
			return true
		}
	}
	return false
}

// findHeader returns the column index of the first recognized header name
// present in the table, or -1.
func findHeader(table *models.Table, names []string) int {
	for _, name := range names {
		if col := table.ColumnIndex(name); col >= 0 {
			return col
		}
	}
	return -1
}

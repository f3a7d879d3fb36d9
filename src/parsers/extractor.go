package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/username/finanzfolio/backend/src/models"
)

// ExtractResult carries the outcome of one extraction pass over a table.
// Skipped counts rows that could not produce a valid transaction; rows that a
// schema filters out by design (e.g. non-buy activity rows) are not counted.
type ExtractResult struct {
	Transactions []models.ParsedTransaction
	Skipped      int
	Warnings     []string
}

func (r *ExtractResult) skip(format string, args ...any) {
	r.Skipped++
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Extractor converts the rows of a detected table into canonical
// transactions. A row-level failure never aborts the rest of the batch.
type Extractor interface {
	Extract(table *models.Table) *ExtractResult
}

// ExtractorFor returns the extraction strategy for a detected schema.
func ExtractorFor(schema Schema) (Extractor, error) {
	switch schema {
	case SchemaStandard:
		return NewStandardExtractor(), nil
	case SchemaBrokerExport:
		return NewBrokerExportExtractor(), nil
	case SchemaPositional:
		return NewPositionalExtractor(), nil
	default:
		return nil, fmt.Errorf("no extractor available for schema: %s", schema)
	}
}

// parseDecimal converts a cell value to a float64. Grouping separators used
// by broker exports (comma and apostrophe) are stripped; the decimal point is
// a period.
func parseDecimal(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "\"")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "'", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(cleaned, 64)
}

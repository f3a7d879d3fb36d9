package models

import "strings"

// AssetType is the category a holding belongs to.
type AssetType string

const (
	AssetTypeStock     AssetType = "Stock"
	AssetTypeETF       AssetType = "ETF"
	AssetTypeCrypto    AssetType = "Crypto"
	AssetTypeCommodity AssetType = "Commodity"
)

// ParseAssetType maps a raw type cell from an export file (German or English)
// to an AssetType. The second return value is false when the cell does not
// name a known type and the caller should fall back to classification.
func ParseAssetType(raw string) (AssetType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "aktie", "aktien", "stock", "share":
		return AssetTypeStock, true
	case "etf", "fonds", "fund":
		return AssetTypeETF, true
	case "krypto", "crypto", "cryptocurrency":
		return AssetTypeCrypto, true
	case "rohstoff", "rohstoffe", "commodity":
		return AssetTypeCommodity, true
	default:
		return "", false
	}
}

// ParsedTransaction is the canonical extraction result for a single buy row.
// Each extractor is responsible for populating every field, including the
// asset type, before the transaction reaches the ledger.
type ParsedTransaction struct {
	AssetName    string    `json:"asset_name"`
	Symbol       string    `json:"symbol"`
	Quantity     float64   `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	Currency     string    `json:"currency"`
	PurchaseDate string    `json:"purchase_date"`
	AssetType    AssetType `json:"asset_type"`
}

// Table is a parsed tabular input: a header row plus data rows. Cells are kept
// as strings; extractors own all numeric conversion.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ColumnIndex returns the index of the first header matching name
// (case-insensitive, trimmed), or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Cell returns row[col] or "" when the row is shorter than col+1.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

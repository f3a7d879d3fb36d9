package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAssetType(t *testing.T) {
	tests := []struct {
		raw    string
		want   AssetType
		wantOk bool
	}{
		{"Aktie", AssetTypeStock, true},
		{"aktien", AssetTypeStock, true},
		{"Stock", AssetTypeStock, true},
		{"ETF", AssetTypeETF, true},
		{" etf ", AssetTypeETF, true},
		{"Fonds", AssetTypeETF, true},
		{"Krypto", AssetTypeCrypto, true},
		{"crypto", AssetTypeCrypto, true},
		{"Rohstoffe", AssetTypeCommodity, true},
		{"commodity", AssetTypeCommodity, true},
		{"", "", false},
		{"Immobilien", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAssetType(tt.raw)
		assert.Equal(t, tt.wantOk, ok, "input %q", tt.raw)
		assert.Equal(t, tt.want, got, "input %q", tt.raw)
	}
}

func TestPositionKey(t *testing.T) {
	assert.Equal(t, "Apple Inc. (AAPL)", PositionKey("Apple Inc.", "AAPL"))
	assert.NotEqual(t, PositionKey("Apple Inc.", "AAPL"), PositionKey("Apple Inc.", "APC"))
}

func TestTableColumnIndex(t *testing.T) {
	table := &Table{Headers: []string{" Symbol ", "Quantity", "PRICE"}}
	assert.Equal(t, 0, table.ColumnIndex("symbol"))
	assert.Equal(t, 2, table.ColumnIndex("price"))
	assert.Equal(t, -1, table.ColumnIndex("missing"))
}

func TestTableCell(t *testing.T) {
	table := &Table{}
	row := []string{"AAPL", " 10 "}
	assert.Equal(t, "AAPL", table.Cell(row, 0))
	assert.Equal(t, "10", table.Cell(row, 1))
	assert.Equal(t, "", table.Cell(row, 2))
	assert.Equal(t, "", table.Cell(row, -1))
}

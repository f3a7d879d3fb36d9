package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/finanzfolio/backend/src/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		assetName string
		symbol    string
		want      models.AssetType
	}{
		{"vanguard fund is ETF", "Vanguard FTSE All-World", "VWRL", models.AssetTypeETF},
		{"ishares is ETF", "iShares Core MSCI World", "IWDA", models.AssetTypeETF},
		{"ucits keyword is ETF", "Some Global UCITS Fund", "SGF", models.AssetTypeETF},
		{"bitcoin by name", "Bitcoin", "BTC", models.AssetTypeCrypto},
		{"crypto by symbol only", "Digital Asset Holding", "btc", models.AssetTypeCrypto},
		{"xbt legacy ticker", "Bitcoin Tracker", "XBT", models.AssetTypeCrypto},
		{"gold is commodity", "Gold Bullion Securities", "GBS", models.AssetTypeCommodity},
		{"silver german spelling", "ZKB Silber", "ZSIL", models.AssetTypeCommodity},
		{"plain stock default", "Apple Inc.", "AAPL", models.AssetTypeStock},
		{"empty inputs default to stock", "", "", models.AssetTypeStock},
		{"tether does not match eth", "Tether Holdings", "TETH", models.AssetTypeStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.assetName, tt.symbol))
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// An ETF tracking bitcoin must classify as ETF, not crypto.
	assert.Equal(t, models.AssetTypeETF, Classify("iShares Bitcoin Trust ETF", "IBIT"))
	// A gold-themed crypto classifies as crypto before commodity.
	assert.Equal(t, models.AssetTypeCrypto, Classify("Gold Backed Crypto Token", "GBC"))
}

func TestClassifyIsPure(t *testing.T) {
	first := Classify("Vanguard S&P 500", "VUSA")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify("Vanguard S&P 500", "VUSA"))
	}
}

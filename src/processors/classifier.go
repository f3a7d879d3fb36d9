package processors

import (
	"strings"

	"github.com/username/finanzfolio/backend/src/models"
)

// Fixed classification vocabularies. Matching is case-insensitive substring
// matching; these are configuration constants, not computed.
var (
	// Fund families and fund markers checked against the asset name.
	etfKeywords = []string{"vanguard", "ishares", "xtrackers", "amundi", "invesco", "spdr", "etf", "ucits", "index fund"}

	// Checked against both name and symbol. XBT is the legacy Bitcoin ticker
	// used by Swiss exchanges.
	cryptoKeywords = []string{"bitcoin", "btc", "xbt", "ethereum", "solana", "ripple", "xrp", "cardano", "dogecoin", "crypto"}

	// Precious metals, checked against the asset name.
	commodityKeywords = []string{"gold", "silber", "silver", "platin", "platinum", "palladium"}
)

// Classify derives the asset category from its display name and symbol.
// The check order is significant and first-match-wins: a crypto-themed fund
// ("VanEck Crypto ETF") classifies as ETF because the ETF rule runs first.
// Classification is pure; calling it twice always returns the same result.
func Classify(assetName, symbol string) models.AssetType {
	name := strings.ToLower(assetName)
	sym := strings.ToLower(symbol)

	for _, kw := range etfKeywords {
		if strings.Contains(name, kw) {
			return models.AssetTypeETF
		}
	}
	for _, kw := range cryptoKeywords {
		if strings.Contains(name, kw) || strings.Contains(sym, kw) {
			return models.AssetTypeCrypto
		}
	}
	for _, kw := range commodityKeywords {
		if strings.Contains(name, kw) {
			return models.AssetTypeCommodity
		}
	}
	return models.AssetTypeStock
}

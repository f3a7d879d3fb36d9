// backend/src/services/price_service.go
package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/finanzfolio/backend/src/logger"
	"github.com/username/finanzfolio/backend/src/models"
	"golang.org/x/net/publicsuffix"
)

const quoteUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

type yahooPriceService struct {
	httpClient http.Client
	priceCache *cache.Cache
	cacheTTL   time.Duration
}

// NewYahooPriceService returns a PriceService backed by the Yahoo Finance
// chart endpoint. Quotes are cached; any failure degrades to "price
// unavailable" so valuations fall back to flat rather than erroring.
func NewYahooPriceService(timeout, cacheTTL time.Duration) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &yahooPriceService{
		httpClient: http.Client{Jar: jar, Timeout: timeout},
		priceCache: cache.New(cacheTTL, 2*cacheTTL),
		cacheTTL:   cacheTTL,
	}
}

func (s *yahooPriceService) GetCurrentPrice(symbol string, assetType models.AssetType) (float64, bool) {
	if symbol == "" {
		return 0, false
	}

	ticker := quoteTicker(symbol, assetType)
	if cached, found := s.priceCache.Get(ticker); found {
		price := cached.(float64)
		return price, price > 0
	}

	price, err := s.fetchQuote(ticker)
	if err != nil {
		logger.L.Warn("Price lookup failed", "symbol", symbol, "ticker", ticker, "error", err)
		// Negative-cache the failure so one dead symbol does not stall every
		// snapshot until the TTL expires.
		s.priceCache.Set(ticker, 0.0, s.cacheTTL)
		return 0, false
	}

	s.priceCache.Set(ticker, price, s.cacheTTL)
	return price, price > 0
}

// quoteTicker maps a ledger symbol to the provider's ticker convention.
// Crypto assets quote against USD pairs; XBT is the Swiss alias for BTC.
func quoteTicker(symbol string, assetType models.AssetType) string {
	if assetType != models.AssetTypeCrypto {
		return symbol
	}
	if symbol == "XBT" {
		symbol = "BTC"
	}
	return symbol + "-USD"
}

func (s *yahooPriceService) fetchQuote(ticker string) (float64, error) {
	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=1d", ticker)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", quoteUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote endpoint returned status %s", resp.Status)
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return 0, fmt.Errorf("failed to decode quote response: %w", err)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, fmt.Errorf("no quote result for ticker %s", ticker)
	}

	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("no market price for ticker %s", ticker)
	}
	return price, nil
}

// staticPriceService serves prices from a fixed map. It backs the "static"
// provider setting and test doubles.
type staticPriceService struct {
	prices map[string]float64
}

func NewStaticPriceService(prices map[string]float64) PriceService {
	if prices == nil {
		prices = map[string]float64{}
	}
	return &staticPriceService{prices: prices}
}

func (s *staticPriceService) GetCurrentPrice(symbol string, _ models.AssetType) (float64, bool) {
	price, ok := s.prices[symbol]
	return price, ok && price > 0
}

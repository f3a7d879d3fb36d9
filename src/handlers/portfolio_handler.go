// backend/src/handlers/portfolio_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/finanzfolio/backend/src/logger"
	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/portfolio"
	"github.com/username/finanzfolio/backend/src/services"
	"github.com/username/finanzfolio/backend/src/utils"
)

type PortfolioHandler struct {
	importService services.ImportService
}

func NewPortfolioHandler(importService services.ImportService) *PortfolioHandler {
	return &PortfolioHandler{
		importService: importService,
	}
}

// HandleGetHoldings returns the raw ledger positions of a portfolio.
func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	positions, err := h.importService.GetPositions(portfolioID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving holdings: %v", err), http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []models.AssetPosition{}
	}
	utils.SendJSON(w, positions, http.StatusOK)
}

// HandleGetSnapshot returns the computed valuation snapshot, with ETag
// support so an unchanged portfolio answers 304.
func (h *PortfolioHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := h.importService.GetSnapshot(portfolioID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to compute snapshot", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to compute portfolio snapshot", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	if etag, etagErr := utils.GenerateETag(snapshot); etagErr == nil && etag != "" {
		quotedETag := fmt.Sprintf("%q", etag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	utils.SendJSON(w, snapshot, http.StatusOK)
}

// HandleGetTopPerformers returns the n positions with the largest gain.
func (h *PortfolioHandler) HandleGetTopPerformers(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := 5
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, convErr := strconv.Atoi(limitStr); convErr == nil && n > 0 {
			limit = n
		}
	}

	snapshot, err := h.importService.GetSnapshot(portfolioID)
	if err != nil {
		utils.SendJSONError(w, "Failed to compute portfolio snapshot", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, portfolio.TopPerformers(snapshot, limit), http.StatusOK)
}

// HandleRefreshPrices fetches current prices for all positions and persists
// them.
func (h *PortfolioHandler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.importService.RefreshPrices(portfolioID)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioNotFound) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to refresh prices", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to refresh prices", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]interface{}{"updated": updated}, http.StatusOK)
}

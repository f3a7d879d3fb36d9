// backend/src/handlers/position_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/finanzfolio/backend/src/logger"
	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/security/validation"
	"github.com/username/finanzfolio/backend/src/services"
	"github.com/username/finanzfolio/backend/src/utils"
)

// PositionHandler covers the management-layer operations on positions:
// manual entry, edit and removal. These sit outside the ingestion core,
// which only ever creates or grows positions.
type PositionHandler struct {
	importService services.ImportService
}

func NewPositionHandler(importService services.ImportService) *PositionHandler {
	return &PositionHandler{
		importService: importService,
	}
}

type manualPositionRequest struct {
	AssetName    string  `json:"asset_name"`
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	AssetType    string  `json:"asset_type"`
	Currency     string  `json:"currency"`
	PurchaseDate string  `json:"purchase_date"`
}

// HandleAddManualPosition merges a single user-entered buy transaction into
// the portfolio.
func (h *PositionHandler) HandleAddManualPosition(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req manualPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}

	assetType, _ := models.ParseAssetType(req.AssetType)
	tx := models.ParsedTransaction{
		AssetName:    validation.SanitizeText(req.AssetName),
		Symbol:       validation.SanitizeText(req.Symbol),
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		Currency:     validation.SanitizeText(req.Currency),
		PurchaseDate: validation.SanitizeText(req.PurchaseDate),
		AssetType:    assetType,
	}

	position, err := h.importService.AddManualTransaction(portfolioID, tx)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrPortfolioNotFound):
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		default:
			logger.FromContext(r.Context()).Error("Failed to add manual position", "portfolioID", portfolioID, "error", err)
			utils.SendJSONError(w, "Failed to add position", http.StatusInternalServerError)
		}
		return
	}
	utils.SendJSON(w, position, http.StatusCreated)
}

// HandleUpdatePosition restates a position's name, quantity and price.
func (h *PositionHandler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	positionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}

	var update services.PositionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	update.AssetName = validation.SanitizeText(update.AssetName)

	position, err := h.importService.UpdatePosition(portfolioID, positionID, update)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrPositionNotFound):
			utils.SendJSONError(w, "Position not found", http.StatusNotFound)
		default:
			logger.FromContext(r.Context()).Error("Failed to update position", "portfolioID", portfolioID, "positionID", positionID, "error", err)
			utils.SendJSONError(w, "Failed to update position", http.StatusInternalServerError)
		}
		return
	}
	utils.SendJSON(w, position, http.StatusOK)
}

// HandleDeletePosition removes a position from the portfolio.
func (h *PositionHandler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	positionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}

	if err := h.importService.DeletePosition(portfolioID, positionID); err != nil {
		if errors.Is(err, services.ErrPositionNotFound) {
			utils.SendJSONError(w, "Position not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to delete position", "portfolioID", portfolioID, "positionID", positionID, "error", err)
		utils.SendJSONError(w, "Failed to delete position", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

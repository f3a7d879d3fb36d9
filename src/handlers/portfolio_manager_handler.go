// backend/src/handlers/portfolio_manager_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/finanzfolio/backend/src/logger"
	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/security/validation"
	"github.com/username/finanzfolio/backend/src/services"
	"github.com/username/finanzfolio/backend/src/utils"
)

const MaxPortfolios = 10

// PortfolioManagerHandler manages the portfolio registry itself.
type PortfolioManagerHandler struct {
	db            *sql.DB
	importService services.ImportService
}

func NewPortfolioManagerHandler(db *sql.DB, importService services.ImportService) *PortfolioManagerHandler {
	return &PortfolioManagerHandler{db: db, importService: importService}
}

func (h *PortfolioManagerHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query("SELECT id, name, created_at FROM portfolios ORDER BY id ASC")
	if err != nil {
		logger.L.Error("Failed to list portfolios", "error", err)
		utils.SendJSONError(w, "Failed to retrieve portfolios", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			logger.L.Error("Row scan error", "error", err)
			continue
		}
		portfolios = append(portfolios, p)
	}
	if portfolios == nil {
		portfolios = []models.Portfolio{}
	}
	utils.SendJSON(w, portfolios, http.StatusOK)
}

func (h *PortfolioManagerHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		utils.SendJSONError(w, "Portfolio name is required", http.StatusBadRequest)
		return
	}

	var currentCount int
	if err := h.db.QueryRow("SELECT COUNT(*) FROM portfolios").Scan(&currentCount); err != nil {
		logger.L.Error("Failed to count existing portfolios", "error", err)
		utils.SendJSONError(w, "Failed to check portfolio limit", http.StatusInternalServerError)
		return
	}
	if currentCount >= MaxPortfolios {
		utils.SendJSONError(w, "Maximum number of portfolios reached ("+strconv.Itoa(MaxPortfolios)+")", http.StatusForbidden)
		return
	}

	res, err := h.db.Exec("INSERT INTO portfolios (name) VALUES (?)", req.Name)
	if err != nil {
		logger.L.Error("Failed to create portfolio", "error", err)
		utils.SendJSONError(w, "Failed to create portfolio", http.StatusInternalServerError)
		return
	}
	id, _ := res.LastInsertId()
	utils.SendJSON(w, map[string]interface{}{"id": id, "message": "Portfolio created"}, http.StatusCreated)
}

func (h *PortfolioManagerHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid portfolio ID", http.StatusBadRequest)
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		utils.SendJSONError(w, "DB Error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	// Explicitly delete children (safety measure alongside ON DELETE CASCADE)
	_, _ = tx.Exec("DELETE FROM positions WHERE portfolio_id = ?", portfolioID)
	_, _ = tx.Exec("DELETE FROM uploads_history WHERE portfolio_id = ?", portfolioID)

	res, err := tx.Exec("DELETE FROM portfolios WHERE id = ?", portfolioID)
	if err != nil {
		utils.SendJSONError(w, "Failed to delete portfolio", http.StatusInternalServerError)
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}
	if err := tx.Commit(); err != nil {
		utils.SendJSONError(w, "Commit failed", http.StatusInternalServerError)
		return
	}

	h.importService.InvalidateCache(portfolioID)
	w.WriteHeader(http.StatusNoContent)
}

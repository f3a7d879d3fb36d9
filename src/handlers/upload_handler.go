// backend/src/handlers/upload_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/finanzfolio/backend/src/config"
	"github.com/username/finanzfolio/backend/src/logger"
	"github.com/username/finanzfolio/backend/src/models"
	"github.com/username/finanzfolio/backend/src/security/validation"
	"github.com/username/finanzfolio/backend/src/services"
	"github.com/username/finanzfolio/backend/src/utils"
)

type UploadHandler struct {
	importService services.ImportService
}

func NewUploadHandler(service services.ImportService) *UploadHandler {
	return &UploadHandler{
		importService: service,
	}
}

// getPortfolioID extracts the portfolio scope from query or form parameters.
func getPortfolioID(r *http.Request) (int64, error) {
	pidStr := r.URL.Query().Get("portfolio_id")
	if pidStr == "" {
		pidStr = r.FormValue("portfolio_id")
	}
	if pidStr == "" {
		return 0, fmt.Errorf("portfolio_id is required")
	}
	return strconv.ParseInt(pidStr, 10, 64)
}

// HandleUpload accepts a multipart CSV export and runs it through the
// ingestion pipeline. A whole-batch failure reports zero added assets with a
// diagnostic; row-level failures come back as a skipped count plus warnings.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("failed to parse upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		utils.SendJSONError(w, fmt.Sprintf("file too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := validation.ValidateFileContent(file); err != nil {
		ctxLogger.Warn("File content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctxLogger.Info("Processing upload request", "portfolioID", portfolioID, "filename", fileHeader.Filename)

	result, err := h.importService.ProcessUpload(file, portfolioID, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPortfolioNotFound):
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		case errors.Is(err, services.ErrParsingFailed):
			ctxLogger.Warn("Upload could not be parsed", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("file could not be parsed: %v", err), http.StatusBadRequest)
		default:
			ctxLogger.Error("Upload processing failed", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "Failed to process upload", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}

// HandleGetUploadHistory lists past imports for a portfolio.
func (h *UploadHandler) HandleGetUploadHistory(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := getPortfolioID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.importService.GetUploadHistory(portfolioID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving upload history: %v", err), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.UploadRecord{}
	}
	utils.SendJSON(w, records, http.StatusOK)
}

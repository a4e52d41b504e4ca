package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/errors"
	"github.com/worktime/worktime-backend/pkg/httputil"
	"github.com/worktime/worktime-backend/pkg/logger"
)

// Multipart fields of POST /import
const (
	FieldPositionsFile  = "positions_file"
	FieldEmployeesFile  = "employees_file"
	FieldTimesheetsFile = "timesheets_file"
)

// ImportHandler handles CSV uploads
type ImportHandler struct {
	service        *service.ImportService
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(svc *service.ImportService, maxUploadBytes int64, log *logger.Logger) *ImportHandler {
	return &ImportHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// ImportResponse lists the outcome of every pass in the order they ran
type ImportResponse struct {
	Results []*service.ImportResult `json:"results"`
}

// Import runs all import passes over the three uploaded files
// POST /import
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httputil.Error(w, r, errors.BadRequest("invalid multipart upload: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	positions, err := h.openFile(r, FieldPositionsFile, service.PositionsFileName)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	defer positions.Close()

	employees, err := h.openFile(r, FieldEmployeesFile, service.EmployeesFileName)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	defer employees.Close()

	timesheets, err := h.openFile(r, FieldTimesheetsFile, service.TimesheetsFileName)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	defer timesheets.Close()

	results, err := h.service.ImportAll(r.Context(), positions, employees, timesheets)
	if err != nil {
		h.logger.Error().Err(err).Int("passes_completed", len(results)).Msg("import failed")
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ImportResponse{Results: results})
}

func (h *ImportHandler) openFile(r *http.Request, field, expected string) (multipart.File, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, errors.NewWithKey("MISSING_IMPORT_FILE", "errors.missing_import_file", http.StatusBadRequest,
			map[string]string{"field": field})
	}
	if err := service.ValidateFilename(header.Filename, expected); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

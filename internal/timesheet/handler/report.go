package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/worktime/worktime-backend/internal/timesheet/service"
	"github.com/worktime/worktime-backend/pkg/httputil"
	"github.com/worktime/worktime-backend/pkg/logger"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{service: svc, logger: log}
}

// Get returns the three top-5 rankings
// GET /reports
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// PDF serves the rankings as a PDF download
// GET /reports/pdf
func (h *ReportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	pdfBytes, err := h.service.ExportReportPDF(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate report PDF")
		httputil.Error(w, r, err)
		return
	}

	filename := fmt.Sprintf("timesheet-report-%s.pdf", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	w.Write(pdfBytes)
}

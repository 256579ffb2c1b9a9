// internal/handlers/export.go
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ammerola/inventory-be/internal/adapters/export"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

// ExportHandler serves the stock workbook
type ExportHandler struct {
	service  ports.InventoryService
	exponent int32
	logger   *slog.Logger
}

// NewExportHandler creates a new export handler. exponent is the number
// of minor-unit digits in stored prices.
func NewExportHandler(service ports.InventoryService, exponent int32, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service:  service,
		exponent: exponent,
		logger:   logger.With(slog.String("handler", "export")),
	}
}

// ExportExcel handles GET /export/inventory.xlsx
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	snap, err := export.Collect(ctx, h.service)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to collect export data",
			slog.String("error", err.Error()))
		respondJSON(w, h.logger, http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate export"})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, snap, h.exponent); err != nil {
		h.logger.ErrorContext(ctx, "failed to write workbook",
			slog.String("error", err.Error()))
		respondJSON(w, h.logger, http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate export"})
		return
	}

	filename := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "export generated",
		slog.Int("products", len(snap.Products)),
		slog.Int("sales", len(snap.Sales)),
		slog.Duration("duration_ms", time.Since(start)))
}

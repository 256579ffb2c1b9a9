// internal/handlers/resource.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

const sortParam = "sort"

// ResourceHandler serves the inventory operations over
// /api/v1/{collection}[/{id}]
type ResourceHandler struct {
	service      ports.InventoryService
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewResourceHandler creates a new resource handler. maxBodyBytes <= 0
// leaves request bodies unbounded.
func NewResourceHandler(service ports.InventoryService, maxBodyBytes int64, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.With(slog.String("handler", "resource")),
	}
}

// Register mounts the handler on mux
func (h *ResourceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/{path...}", h.Query)
	mux.HandleFunc("POST /api/v1/{path...}", h.Insert)
	mux.HandleFunc("PUT /api/v1/{path...}", h.Update)
	mux.HandleFunc("DELETE /api/v1/{path...}", h.Delete)
}

// Query handles GET and returns the matching rows as a JSON array
func (h *ResourceHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	opts := ports.QueryOptions{
		Filter: filterFromQuery(query),
		Sort:   domain.ParseSort(query.Get(sortParam)),
	}

	rows, err := h.service.Query(ctx, r.PathValue("path"), opts)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	result := make([]domain.Entity, 0)
	for row, err := range rows {
		if err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		result = append(result, row)
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Insert handles POST and returns the new row id
func (h *ResourceHandler) Insert(w http.ResponseWriter, r *http.Request) {
	values, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	id, err := h.service.Insert(r.Context(), r.PathValue("path"), values)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// Update handles PUT. Query parameters select the rows to change.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	values, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	n, err := h.service.Update(r.Context(), r.PathValue("path"), values, filterFromQuery(r.URL.Query()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]int64{"rows": n})
}

// Delete handles DELETE. Query parameters select the rows to remove.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Delete(r.Context(), r.PathValue("path"), filterFromQuery(r.URL.Query()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]int64{"rows": n})
}

func (h *ResourceHandler) decodeBody(w http.ResponseWriter, r *http.Request) (domain.Values, bool) {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return domain.Values{}, false
		}
		h.respondError(w, http.StatusBadRequest, "Failed to read request body")
		return domain.Values{}, false
	}

	values, err := domain.DecodeValues(data)
	if err != nil {
		h.respondServiceError(w, r, err)
		return domain.Values{}, false
	}
	return values, true
}

// filterFromQuery turns every query parameter except sort into an
// equality condition. Repeated parameters keep the first value.
func filterFromQuery(query url.Values) domain.Filter {
	filter := domain.Filter{}
	for key, vals := range query {
		if key == sortParam || len(vals) == 0 {
			continue
		}
		filter[key] = vals[0]
	}
	return filter
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Field     string `json:"field,omitempty"`
	Available *int64 `json:"available,omitempty"`
	Requested *int64 `json:"requested,omitempty"`
}

func (h *ResourceHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		body.Error = "Internal Server Error"
	} else {
		h.logger.DebugContext(r.Context(), "request rejected",
			slog.String("path", r.URL.Path),
			slog.String("kind", body.Kind),
			slog.String("error", err.Error()))
	}

	h.respondJSON(w, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error()}

	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		body.Field = fieldErr.Field
	}

	switch {
	case errors.Is(err, domain.ErrUnsupportedResource):
		body.Kind = "unsupported_resource"
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrMissingField):
		body.Kind = "missing_field"
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrInvalidValue):
		body.Kind = "invalid_value"
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrUnmatchedProduct):
		body.Kind = "unmatched_product"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrInsufficientStock):
		body.Kind = "insufficient_stock"
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			body.Available = domain.Ptr(stockErr.Available)
			body.Requested = domain.Ptr(stockErr.Requested)
		}
		return http.StatusConflict, body
	default:
		body.Kind = "persistence"
		return http.StatusInternalServerError, body
	}
}

func (h *ResourceHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	respondJSON(w, h.logger, status, data)
}

func (h *ResourceHandler) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, h.logger, status, ErrorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

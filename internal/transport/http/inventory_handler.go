package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"shelfsense/internal/config"
	apierrors "shelfsense/internal/errors"
	"shelfsense/internal/services"
)

// InventoryHandler handles inventory-related HTTP requests with RFC 7807
// compliant error responses.
type InventoryHandler struct {
	service        *services.InventoryService
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service *services.InventoryService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *InventoryHandler {
	v := validator.New()

	// Use JSON tag names in validation error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &InventoryHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "inventory_handler")),
		errorHandler:   errorHandler,
		validate:       v,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the inventory routes
func (h *InventoryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Delete("/", h.Discard)
	r.Get("/rows", h.GetRows)
	r.Get("/summary", h.GetSummary)
	r.Get("/export", h.Export)
	r.Get("/thresholds", h.GetThresholds)
	r.Put("/thresholds", h.UpdateThresholds)

	return r
}

// UploadResponse is the body returned after a successful upload
type UploadResponse struct {
	Snapshot *services.Snapshot `json:"snapshot"`
}

// Upload ingests a multipart file upload and replaces the snapshot
func (h *InventoryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "multipart field 'file' is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(ctx, "processing upload",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	snapshot, err := h.service.Upload(ctx, header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, UploadResponse{Snapshot: snapshot})
}

// GetRows returns analyzed rows, optionally filtered by category/status
func (h *InventoryHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.service.Rows(ctx, r.URL.Query().Get("category"), r.URL.Query().Get("status"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"count": len(rows),
		"rows":  rows,
	})
}

// GetSummary returns the aggregate metrics for the current snapshot
func (h *InventoryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, summary)
}

// Export streams the current snapshot as a CSV attachment
func (h *InventoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.service.Export(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetThresholds returns the currently applied thresholds
func (h *InventoryHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, thresholdsResponse(h.service.Thresholds()))
}

// ThresholdsRequest carries a thresholds update. Field rules mirror
// config.AnalysisConfig.Validate.
type ThresholdsRequest struct {
	SlowMovingMaxVelocity float64 `json:"slow_moving_max_velocity" validate:"min=0"`
	FastMovingMinVelocity float64 `json:"fast_moving_min_velocity" validate:"min=0,gtefield=SlowMovingMaxVelocity"`
	BestSellingPercentile float64 `json:"best_selling_percentile" validate:"gt=0,lt=1"`
	LowStockBufferPct     float64 `json:"low_stock_buffer_pct" validate:"min=0"`
	SafetyStockDays       float64 `json:"safety_stock_days" validate:"min=0"`
	DefaultLeadTimeDays   float64 `json:"default_lead_time_days" validate:"min=0"`
}

// UpdateThresholds applies new thresholds and recomputes the snapshot
func (h *InventoryHandler) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ThresholdsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, validationProblem(err))
		return
	}

	thresholds := config.AnalysisConfig{
		SlowMovingMaxVelocity: req.SlowMovingMaxVelocity,
		FastMovingMinVelocity: req.FastMovingMinVelocity,
		BestSellingPercentile: req.BestSellingPercentile,
		LowStockBufferPct:     req.LowStockBufferPct,
		SafetyStockDays:       req.SafetyStockDays,
		DefaultLeadTimeDays:   req.DefaultLeadTimeDays,
	}

	snapshot, err := h.service.UpdateThresholds(ctx, thresholds)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	resp := map[string]interface{}{
		"thresholds": thresholdsResponse(thresholds),
	}
	if snapshot != nil {
		resp["summary"] = snapshot.Summary
	}
	render.JSON(w, r, resp)
}

// Discard drops the current snapshot
func (h *InventoryHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.service.Discard(r.Context())
	render.NoContent(w, r)
}

// handleServiceError maps service errors onto API errors
func (h *InventoryHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrNoSnapshot) {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoSnapshot)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}

// thresholdsResponse mirrors the request shape for symmetric round trips
func thresholdsResponse(cfg config.AnalysisConfig) ThresholdsRequest {
	return ThresholdsRequest{
		SlowMovingMaxVelocity: cfg.SlowMovingMaxVelocity,
		FastMovingMinVelocity: cfg.FastMovingMinVelocity,
		BestSellingPercentile: cfg.BestSellingPercentile,
		LowStockBufferPct:     cfg.LowStockBufferPct,
		SafetyStockDays:       cfg.SafetyStockDays,
		DefaultLeadTimeDays:   cfg.DefaultLeadTimeDays,
	}
}

// validationProblem flattens validator errors into field-level details
func validationProblem(err error) *apierrors.APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	details := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		})
	}
	return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", details)
}

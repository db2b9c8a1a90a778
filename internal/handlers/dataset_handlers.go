package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"climate-dashboard/internal/config"
	"climate-dashboard/internal/ingest"
	"climate-dashboard/internal/models"
	"climate-dashboard/internal/repository"
	"climate-dashboard/internal/services"
	"climate-dashboard/pkg/logging"
	"climate-dashboard/pkg/metrics"
)

const (
	endpointDatasets  = "/api/datasets"
	endpointDataset   = "/api/datasets/{id}"
	endpointDashboard = "/api/datasets/{id}/dashboard"
	endpointHealth    = "/health"

	// multipart parts beyond this are spooled to disk by net/http
	multipartMemory = 8 << 20
)

var validate = validator.New()

// DatasetHandler handles dataset and dashboard API endpoints
type DatasetHandler struct {
	ingestion      *services.IngestionService
	datasets       *services.DatasetService
	dashboards     *services.DashboardService
	theme          config.Theme
	maxUploadBytes int64
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(
	ingestion *services.IngestionService,
	datasets *services.DatasetService,
	dashboards *services.DashboardService,
	theme config.Theme,
	maxUploadBytes int64,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DatasetHandler {
	return &DatasetHandler{
		ingestion:      ingestion,
		datasets:       datasets,
		dashboards:     dashboards,
		theme:          theme,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ListResponse wraps a collection
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// DashboardResponse is the chart-ready payload of one dashboard request
type DashboardResponse struct {
	DatasetID string `json:"dataset_id"`
	models.DashboardResult
	Charts models.ChartSet `json:"charts"`
	Theme  config.Theme    `json:"theme"`
}

// DashboardRequest holds the validated path and query values of a dashboard request
type DashboardRequest struct {
	ID        string   `validate:"required,uuid4"`
	MinYear   *int     `validate:"omitempty,gte=1,lte=9999"`
	MaxYear   *int     `validate:"omitempty,gte=1,lte=9999"`
	Threshold *float64 `validate:"omitempty,gte=-100,lte=100"`
}

// datasetIDRequest holds a validated dataset id
type datasetIDRequest struct {
	ID string `validate:"required,uuid4"`
}

// UploadDataset handles POST /api/datasets
func (h *DatasetHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues(endpointDatasets).Observe(duration.Seconds())
	}()

	tooLargeMessage := "upload exceeds " + strconv.FormatInt(h.maxUploadBytes, 10) + " bytes"
	if r.ContentLength > h.maxUploadBytes {
		h.metrics.RecordAPIError("payload_too_large", endpointDatasets)
		h.sendError(w, r, endpointDatasets, tooLargeMessage, http.StatusRequestEntityTooLarge)
		return
	}

	// chunked bodies have no length up front
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.metrics.RecordAPIError("payload_too_large", endpointDatasets)
			h.sendError(w, r, endpointDatasets, tooLargeMessage, http.StatusRequestEntityTooLarge)
			return
		}
		h.metrics.RecordAPIError("bad_request", endpointDatasets)
		h.sendError(w, r, endpointDatasets, "expected multipart/form-data with a file field", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.metrics.RecordAPIError("bad_request", endpointDatasets)
		h.sendError(w, r, endpointDatasets, "missing multipart field: file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.ingestion.Ingest(ctx, header.Filename, file)
	if err != nil {
		h.handleServiceError(w, r, endpointDatasets, "failed to ingest dataset", err)
		return
	}

	h.metrics.RecordAPIRequest(endpointDatasets, r.Method, "201")
	h.sendJSON(w, h.datasets.Describe(result.Summary), http.StatusCreated)
}

// ListDatasets handles GET /api/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues(endpointDatasets).Observe(duration.Seconds())
	}()

	summaries, err := h.datasets.ListSummaries(ctx)
	if err != nil {
		h.handleServiceError(w, r, endpointDatasets, "failed to list datasets", err)
		return
	}

	h.metrics.RecordAPIRequest(endpointDatasets, r.Method, "200")
	h.sendJSON(w, ListResponse{Data: summaries, Total: len(summaries)}, http.StatusOK)
}

// GetDataset handles GET /api/datasets/{id}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues(endpointDataset).Observe(duration.Seconds())
	}()

	req := datasetIDRequest{ID: mux.Vars(r)["id"]}
	if err := validate.Struct(req); err != nil {
		h.metrics.RecordAPIError("validation_error", endpointDataset)
		h.sendError(w, r, endpointDataset, validationMessage(err), http.StatusBadRequest)
		return
	}

	summary, err := h.datasets.GetSummary(ctx, req.ID)
	if err != nil {
		h.handleServiceError(w, r, endpointDataset, "failed to get dataset", err)
		return
	}

	h.metrics.RecordAPIRequest(endpointDataset, r.Method, "200")
	h.sendJSON(w, summary, http.StatusOK)
}

// DeleteDataset handles DELETE /api/datasets/{id}
func (h *DatasetHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues(endpointDataset).Observe(duration.Seconds())
	}()

	req := datasetIDRequest{ID: mux.Vars(r)["id"]}
	if err := validate.Struct(req); err != nil {
		h.metrics.RecordAPIError("validation_error", endpointDataset)
		h.sendError(w, r, endpointDataset, validationMessage(err), http.StatusBadRequest)
		return
	}

	if err := h.datasets.Delete(ctx, req.ID); err != nil {
		h.handleServiceError(w, r, endpointDataset, "failed to delete dataset", err)
		return
	}

	h.metrics.RecordAPIRequest(endpointDataset, r.Method, "204")
	w.WriteHeader(http.StatusNoContent)
}

// GetDashboard handles GET /api/datasets/{id}/dashboard
func (h *DatasetHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues(endpointDashboard).Observe(duration.Seconds())
	}()

	req, err := parseDashboardRequest(r)
	if err != nil {
		h.metrics.RecordAPIError("validation_error", endpointDashboard)
		h.sendError(w, r, endpointDashboard, err.Error(), http.StatusBadRequest)
		return
	}

	dashboard, err := h.dashboards.Build(ctx, req.ID, services.DashboardQuery{
		MinYear:   req.MinYear,
		MaxYear:   req.MaxYear,
		Threshold: req.Threshold,
	})
	if err != nil {
		h.handleServiceError(w, r, endpointDashboard, "failed to build dashboard", err)
		return
	}

	response := DashboardResponse{
		DatasetID:       dashboard.DatasetID,
		DashboardResult: dashboard.Result,
		Charts:          dashboard.Charts,
		Theme:           h.theme,
	}

	h.metrics.RecordAPIRequest(endpointDashboard, r.Method, "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DatasetHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.datasets.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Dataset store unavailable", logging.Fields{}, err)
		h.sendError(w, r, endpointHealth, "dataset store unavailable", http.StatusServiceUnavailable)
		return
	}

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parseDashboardRequest reads the dashboard path and query values and validates them
func parseDashboardRequest(r *http.Request) (DashboardRequest, error) {
	req := DashboardRequest{ID: mux.Vars(r)["id"]}
	query := r.URL.Query()

	for _, param := range []struct {
		name string
		dst  **int
	}{
		{name: "min_year", dst: &req.MinYear},
		{name: "max_year", dst: &req.MaxYear},
	} {
		raw := strings.TrimSpace(query.Get(param.name))
		if raw == "" {
			continue
		}
		year, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.New("invalid " + param.name + ", expected an integer year")
		}
		*param.dst = &year
	}

	if raw := strings.TrimSpace(query.Get("threshold")); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, errors.New("invalid threshold, expected a number in degrees Celsius")
		}
		req.Threshold = &threshold
	}

	if err := validate.Struct(req); err != nil {
		return req, errors.New(validationMessage(err))
	}
	return req, nil
}

// validationMessage flattens validator errors into one client-facing line
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "ID":
			messages = append(messages, "id must be a dataset UUID")
		case "MinYear":
			messages = append(messages, "min_year must be between 1 and 9999")
		case "MaxYear":
			messages = append(messages, "max_year must be between 1 and 9999")
		case "Threshold":
			messages = append(messages, "threshold must be between -100 and 100")
		default:
			messages = append(messages, fe.Error())
		}
	}
	return strings.Join(messages, "; ")
}

// handleServiceError maps service errors to HTTP status codes
func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, endpoint, message string, err error) {
	ctx := r.Context()

	var notFound *repository.NotFoundError
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &notFound):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, endpoint, notFound.Error(), http.StatusNotFound)
	case errors.As(err, &validationErr):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, endpoint, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, ingest.ErrTooLarge):
		h.metrics.RecordAPIError("payload_too_large", endpoint)
		h.sendError(w, r, endpoint, "decompressed upload exceeds size limit", http.StatusRequestEntityTooLarge)
	default:
		h.logger.Error(ctx, "[API_ERROR] "+message, logging.Fields{
			"endpoint": endpoint,
			"method":   r.Method,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, endpoint, message, http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *DatasetHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DatasetHandler) sendError(w http.ResponseWriter, r *http.Request, endpoint, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all dataset API routes
func (h *DatasetHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(endpointDatasets, h.UploadDataset).Methods("POST")
	router.HandleFunc(endpointDatasets, h.ListDatasets).Methods("GET")
	router.HandleFunc(endpointDataset, h.GetDataset).Methods("GET")
	router.HandleFunc(endpointDataset, h.DeleteDataset).Methods("DELETE")
	router.HandleFunc(endpointDashboard, h.GetDashboard).Methods("GET")
	router.HandleFunc(endpointHealth, h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc(openAPIPath, OpenAPISpec).Methods("GET")
}

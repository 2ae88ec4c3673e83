package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfsense/internal/config"
	apierrors "shelfsense/internal/errors"
	"shelfsense/internal/services"
)

const handlerCSV = `Product_ID,Description,Current_Stock,Sales_Last_30_Days,Unit_Cost,Lead_Time_Days
DEAD,Dusty widget,100,0,2,14
MED,Everyday gadget,100,60,5,10
HOT,Runaway gizmo,5,600,1,10
`

func testHandler(t *testing.T) (*InventoryHandler, *services.InventoryService) {
	t.Helper()
	cfg := config.AnalysisConfig{
		SlowMovingMaxVelocity: 1.0,
		FastMovingMinVelocity: 5.0,
		BestSellingPercentile: 0.90,
		LowStockBufferPct:     0.20,
		SafetyStockDays:       7,
		DefaultLeadTimeDays:   14,
	}
	logger := slog.Default()
	svc := services.NewInventoryService(cfg, logger, services.NewMetrics(prometheus.NewRegistry()))
	handler := NewInventoryHandler(svc, logger, apierrors.NewErrorHandler(logger, false), 1<<20)
	return handler, svc
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func doUpload(t *testing.T, router http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Contains(t, rec.Header().Get("Content-Type"), "json")
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestUploadEndpoint(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	rec := doUpload(t, router, "inventory.csv", handlerCSV)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Snapshot)
	assert.Equal(t, "inventory.csv", resp.Snapshot.Filename)
	assert.Len(t, resp.Snapshot.Rows, 3)
	assert.Equal(t, 3, resp.Snapshot.Summary.TotalProducts)
}

func TestUploadMissingFileField(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem["type"])
}

func TestUploadMissingColumnsProblem(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	rec := doUpload(t, router, "inventory.csv", "Product_ID,Description,Current_Stock,Sales_Last_30_Days\nSKU-1,Widget,100,60\n")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeMissingColumns, problem["type"])
	assert.Equal(t, []interface{}{"Unit_Cost"}, problem["missing_columns"])
}

func TestUploadUnsupportedFormatProblem(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	tests := []struct {
		filename string
		body     string
	}{
		{"inventory.pdf", "%PDF-1.4"},
		{"inventory.xls", "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			rec := doUpload(t, router, tt.filename, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			problem := decodeProblem(t, rec)
			assert.Equal(t, apierrors.TypeUnsupportedFormat, problem["type"])
		})
	}
}

func TestUploadMalformedWorkbookProblem(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	// OLE magic bytes under an .xlsx name: the workbook parser must fail,
	// and the failure must surface as a client error, not a 500.
	rec := doUpload(t, router, "inventory.xlsx", "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1garbage")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeMalformedFile, problem["type"])
}

func TestRowsWithoutSnapshotIsProblem(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	req := httptest.NewRequest(http.MethodGet, "/rows", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeNoSnapshot, problem["type"])
}

func TestRowsFilterQuery(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()
	doUpload(t, router, "inventory.csv", handlerCSV)

	req := httptest.NewRequest(http.MethodGet, "/rows?category=Slow+Moving", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
		Rows  []struct {
			ProductID string `json:"product_id"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "DEAD", resp.Rows[0].ProductID)
}

func TestExportEndpoint(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()
	doUpload(t, router, "inventory.csv", handlerCSV)

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, strings.Contains(rec.Body.String(), "Sales_Velocity"))
}

func TestThresholdsRoundTrip(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()
	doUpload(t, router, "inventory.csv", handlerCSV)

	body := `{
		"slow_moving_max_velocity": 3.0,
		"fast_moving_min_velocity": 5.0,
		"best_selling_percentile": 0.9,
		"low_stock_buffer_pct": 0.2,
		"safety_stock_days": 7,
		"default_lead_time_days": 14
	}`
	req := httptest.NewRequest(http.MethodPut, "/thresholds", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Thresholds ThresholdsRequest `json:"thresholds"`
		Summary    *struct {
			TotalProducts int `json:"total_products"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3.0, resp.Thresholds.SlowMovingMaxVelocity)
	require.NotNil(t, resp.Summary, "snapshot should be recomputed")
	assert.Equal(t, 3, resp.Summary.TotalProducts)

	// GET reflects the update
	req = httptest.NewRequest(http.MethodGet, "/thresholds", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var current ThresholdsRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, 3.0, current.SlowMovingMaxVelocity)
}

func TestThresholdsValidation(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	// fast floor below the slow ceiling
	body := `{
		"slow_moving_max_velocity": 5.0,
		"fast_moving_min_velocity": 1.0,
		"best_selling_percentile": 0.9,
		"low_stock_buffer_pct": 0.2,
		"safety_stock_days": 7,
		"default_lead_time_days": 14
	}`
	req := httptest.NewRequest(http.MethodPut, "/thresholds", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem["type"])
	assert.Contains(t, problem, "details")
}

func TestThresholdsMalformedJSON(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	req := httptest.NewRequest(http.MethodPut, "/thresholds", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiscardEndpoint(t *testing.T) {
	handler, svc := testHandler(t)
	router := handler.Routes()
	doUpload(t, router, "inventory.csv", handlerCSV)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := svc.Snapshot(req.Context())
	assert.ErrorIs(t, err, services.ErrNoSnapshot)
}

func TestUploadTooLarge(t *testing.T) {
	handler, _ := testHandler(t)
	handler.maxUploadBytes = 64
	router := handler.Routes()

	rec := doUpload(t, router, "inventory.csv", handlerCSV)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypePayloadTooLarge, problem["type"])
}

package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/fraudring-engine/internal/feedback"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	dir := t.TempDir()
	fc := feedback.NewCollector(filepath.Join(dir, "feedback.jsonl"), 40)
	pt := feedback.NewPerformanceTracker(filepath.Join(dir, "performance.jsonl"))
	return SetupRouter(hub, fc, pt, nil)
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestHandleGetConfigPreset_UnknownNameReturns404(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/config/presets/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestHandleGetConfigPreset_KnownNameReturnsConfig(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/config/presets/aggressive", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestHandleDetect_MissingFileReturns400(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("POST", "/api/v1/detect", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandleDetect_ValidCSVReturnsRings(t *testing.T) {
	router := setupTestRouter(t)

	csvData := "transaction_id,sender_id,receiver_id,amount,timestamp\n" +
		"T1,A,B,1000,2024-01-01T00:00:00Z\n" +
		"T2,B,C,1000,2024-01-01T01:00:00Z\n" +
		"T3,C,A,1000,2024-01-01T02:00:00Z\n"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "transactions.csv")
	part.Write([]byte(csvData))
	writer.Close()

	req, _ := http.NewRequest("POST", "/api/v1/detect", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp struct {
		AnalysisID string `json:"analysisId"`
		Result     struct {
			FraudRings []map[string]interface{} `json:"fraud_rings"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.AnalysisID == "" {
		t.Fatal("expected a non-empty analysisId")
	}
	if len(resp.Result.FraudRings) != 1 {
		t.Fatalf("expected 1 fraud ring in the response, got %+v", resp.Result.FraudRings)
	}
}

func TestHandleSubmitFeedback_ThenMetricsReflectsIt(t *testing.T) {
	router := setupTestRouter(t)

	payload := `{"account_id":"A","predicted_score":80,"predicted_flags":["cycle_member"],"actual_fraud":true}`
	req, _ := http.NewRequest("POST", "/api/v1/feedback", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	req2, _ := http.NewRequest("GET", "/api/v1/metrics", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w2.Code)
	}
}

func TestHandleCompareConfig_UnknownPresetReturns400(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("POST", "/api/v1/detect/compare?candidate_preset=nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandleCompareConfig_ValidCSVReturnsDrift(t *testing.T) {
	router := setupTestRouter(t)

	csvData := "transaction_id,sender_id,receiver_id,amount,timestamp\n" +
		"T1,A,B,1000,2024-01-01T00:00:00Z\n" +
		"T2,B,C,1000,2024-01-01T01:00:00Z\n" +
		"T3,C,A,1000,2024-01-01T02:00:00Z\n"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "transactions.csv")
	part.Write([]byte(csvData))
	writer.Close()

	req, _ := http.NewRequest("POST", "/api/v1/detect/compare?candidate_preset=conservative", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
}

func TestHandleGetConfigSuggestions_ReturnsCurrentMetrics(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/config/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp struct {
		CurrentMetrics feedback.Metrics `json:"current_metrics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
}

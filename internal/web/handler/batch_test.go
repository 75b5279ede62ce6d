package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/batchtrace/batchtrace/internal/batch"
	"github.com/batchtrace/batchtrace/internal/ledger"
	"github.com/batchtrace/batchtrace/internal/web/handler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupRouter builds a router in open mode (no operator auth) over a fresh
// in-memory ledger.
func setupRouter(t *testing.T) (*gin.Engine, *batch.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := batch.NewService(ledger.NewMemory(), "root", zap.NewNop())
	h := handler.NewBatchHandler(svc, nil, zap.NewNop())
	v1 := r.Group("/api/v1")
	h.Register(v1)
	return r, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateBatch_201(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/batches",
		`{"batch_number":"B1","manufacture_date":"2025-01-01","expiration_date":"2026-06-01"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var rec batch.Record
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ReleaseStatus != batch.StatusPending {
		t.Errorf("release status: got %q, want pending", rec.ReleaseStatus)
	}
}

func TestCreateBatch_400_missingFields(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/batches", `{"batch_number":"B1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetBatch_404_unknownKey(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/batches/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAppendQCTest_thenHistory(t *testing.T) {
	router, _ := setupRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/batches",
		`{"batch_number":"B1","manufacture_date":"2025-01-01","expiration_date":"2026-06-01"}`)

	w := doJSON(t, router, http.MethodPost, "/api/v1/batches/B1/qc-tests",
		`{"test_name":"sterility","test_result":"pass","test_hash":"ab12"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/batches/B1/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Versions []batch.Record `json:"versions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(resp.Versions))
	}
	if len(resp.Versions[1].QCTests) != 1 {
		t.Errorf("version 2: expected 1 qc test, got %d", len(resp.Versions[1].QCTests))
	}
}

func TestUpdateExpirationDate_400_badFormat(t *testing.T) {
	router, _ := setupRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/batches",
		`{"batch_number":"B1","manufacture_date":"2025-01-01","expiration_date":"2026-06-01"}`)

	w := doJSON(t, router, http.MethodPatch, "/api/v1/batches/B1/expiration-date",
		`{"expiration_date":"01.06.2027"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFindByExpiration_matchesAndMisses(t *testing.T) {
	router, _ := setupRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/batches",
		`{"batch_number":"B1","manufacture_date":"2025-01-01","expiration_date":"2026-06-15"}`)

	w := doJSON(t, router, http.MethodGet, "/api/v1/batches/expiring/2026-06", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Batches []batch.Record `json:"batches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Batches) != 1 || resp.Batches[0].BatchNumber != "B1" {
		t.Errorf("expected [B1], got %+v", resp.Batches)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/batches/expiring/2027", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestFindByExpiration_400_badDateShape(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/batches/expiring/June", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetChanges_reportsFieldDiffs(t *testing.T) {
	router, _ := setupRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/batches",
		`{"batch_number":"B1","manufacture_date":"2025-01-01","expiration_date":"2026-06-01"}`)
	doJSON(t, router, http.MethodPatch, "/api/v1/batches/B1/release-status",
		`{"release_status":"released"}`)

	w := doJSON(t, router, http.MethodGet, "/api/v1/batches/B1/changes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Changes []batch.VersionDiff `json:"changes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Changes) != 1 {
		t.Fatalf("expected 1 diff, got %d", len(resp.Changes))
	}
	if _, ok := resp.Changes[0].Fields["release_status"]; !ok {
		t.Errorf("expected release_status change, got %v", resp.Changes[0].Fields)
	}
}

func TestListBatches_emptyStream(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/batches", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Batches []string `json:"batches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Batches) != 0 {
		t.Errorf("expected empty list, got %v", resp.Batches)
	}
}

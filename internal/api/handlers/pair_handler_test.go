package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/ajmal017/dailyScript/internal/engine"
	"github.com/ajmal017/dailyScript/internal/models"
)

// ============================================================
// Тестовая обвязка
// ============================================================

func newTestRouter(eng *fakeEngine, fills FillStore) *mux.Router {
	h := NewPairHandler(eng, fills)
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/pairs", h.PlacePair).Methods("POST")
	r.HandleFunc("/api/v1/pairs/running", h.GetRunning).Methods("GET")
	r.HandleFunc("/api/v1/pairs/finished", h.GetFinished).Methods("GET")
	r.HandleFunc("/api/v1/pairs/{id}", h.GetPair).Methods("GET")
	r.HandleFunc("/api/v1/pairs/{id}", h.CancelPair).Methods("DELETE")
	r.HandleFunc("/api/v1/pairs/{id}/fills", h.GetPairFills).Methods("GET")
	return r
}

func doRequest(r *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// ============================================================
// PlacePair
// ============================================================

func TestPlacePair(t *testing.T) {
	eng := newFakeEngine()
	router := newTestRouter(eng, nil)

	body := `{
		"instrument_a": {"symbol": "SR601", "exchange": "CZCE", "multiplier": 10, "tick_size": 1},
		"instrument_b": {"symbol": "SR605", "exchange": "CZCE", "multiplier": 10, "tick_size": 1},
		"target_spread": 80,
		"direction": "BUY",
		"quantity": 2,
		"tolerance_sec": 5
	}`

	rec := doRequest(router, "POST", "/api/v1/pairs", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp PlacePairResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.ID == "" || resp.State != models.PairStateCreated {
		t.Errorf("response = %+v, want id and CREATED state", resp)
	}

	if len(eng.placed) != 1 {
		t.Fatalf("placed = %d, want 1", len(eng.placed))
	}
	req := eng.placed[0]
	if req.InstrumentA.Symbol != "SR601" || req.InstrumentB.Symbol != "SR605" {
		t.Errorf("symbols = %s/%s", req.InstrumentA.Symbol, req.InstrumentB.Symbol)
	}
	if req.InstrumentA.Multiplier != 10 || req.TargetSpread != 80 || req.Quantity != 2 {
		t.Errorf("request fields lost: %+v", req)
	}
	if req.Tolerance != 5*time.Second {
		t.Errorf("tolerance = %v, want 5s", req.Tolerance)
	}
}

func TestPlacePairInvalidBody(t *testing.T) {
	router := newTestRouter(newFakeEngine(), nil)

	rec := doRequest(router, "POST", "/api/v1/pairs", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPlacePairEngineValidation(t *testing.T) {
	eng := newFakeEngine()
	router := newTestRouter(eng, nil)

	// Направление проверяется движком
	body := `{
		"instrument_a": {"symbol": "SR601"},
		"instrument_b": {"symbol": "SR605"},
		"direction": "HOLD",
		"quantity": 1
	}`
	eng.placeErr = engine.ErrInvalidDirection

	rec := doRequest(router, "POST", "/api/v1/pairs", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "invalid_request" {
		t.Errorf("error code = %s, want invalid_request", resp.Code)
	}
}

// ============================================================
// Выборки
// ============================================================

func TestGetRunningAndFinished(t *testing.T) {
	eng := newFakeEngine()
	eng.running = []models.PairStatus{{ID: "p1", State: models.PairStateAwaitingFill}}
	eng.finished = []models.PairStatus{
		{ID: "p2", State: models.PairStateFinished},
		{ID: "p3", State: models.PairStateFinished},
	}
	router := newTestRouter(eng, nil)

	rec := doRequest(router, "GET", "/api/v1/pairs/running", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("running status = %d, want 200", rec.Code)
	}
	var running []models.PairStatus
	json.Unmarshal(rec.Body.Bytes(), &running)
	if len(running) != 1 || running[0].ID != "p1" {
		t.Errorf("running = %v", running)
	}

	rec = doRequest(router, "GET", "/api/v1/pairs/finished", "")
	var finished []models.PairStatus
	json.Unmarshal(rec.Body.Bytes(), &finished)
	if len(finished) != 2 {
		t.Errorf("finished = %v", finished)
	}
}

func TestGetPair(t *testing.T) {
	eng := newFakeEngine()
	eng.statuses["p1"] = models.PairStatus{
		ID:          "p1",
		State:       models.PairStateRecovering,
		NetExposure: 2,
		Pnl:         10.5,
	}
	router := newTestRouter(eng, nil)

	rec := doRequest(router, "GET", "/api/v1/pairs/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var st models.PairStatus
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.State != models.PairStateRecovering || st.NetExposure != 2 || st.Pnl != 10.5 {
		t.Errorf("status = %+v", st)
	}
}

func TestGetPairNotFound(t *testing.T) {
	router := newTestRouter(newFakeEngine(), nil)

	rec := doRequest(router, "GET", "/api/v1/pairs/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// ============================================================
// CancelPair
// ============================================================

func TestCancelPair(t *testing.T) {
	eng := newFakeEngine()
	router := newTestRouter(eng, nil)

	rec := doRequest(router, "DELETE", "/api/v1/pairs/p1", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(eng.cancelled) != 1 || eng.cancelled[0] != "p1" {
		t.Errorf("cancelled = %v, want [p1]", eng.cancelled)
	}
}

// ============================================================
// GetPairFills
// ============================================================

func TestGetPairFills(t *testing.T) {
	eng := newFakeEngine()
	store := newFakeFillStore()
	store.byPair["p1"] = []*models.FillRecord{
		{PairID: "p1", Symbol: "SR601", Side: "buy", Quantity: 2, Price: 5890},
	}
	router := newTestRouter(eng, store)

	rec := doRequest(router, "GET", "/api/v1/pairs/p1/fills", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var fills []models.FillRecord
	json.Unmarshal(rec.Body.Bytes(), &fills)
	if len(fills) != 1 || fills[0].Symbol != "SR601" {
		t.Errorf("fills = %v", fills)
	}
}

func TestGetPairFillsEmptyIsArray(t *testing.T) {
	router := newTestRouter(newFakeEngine(), newFakeFillStore())

	rec := doRequest(router, "GET", "/api/v1/pairs/p1/fills", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestGetPairFillsNoPersistence(t *testing.T) {
	router := newTestRouter(newFakeEngine(), nil)

	rec := doRequest(router, "GET", "/api/v1/pairs/p1/fills", "")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestGetPairFillsStoreError(t *testing.T) {
	store := newFakeFillStore()
	store.err = errStoreDown
	router := newTestRouter(newFakeEngine(), store)

	rec := doRequest(router, "GET", "/api/v1/pairs/p1/fills", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/okrtracker/go-okr-backend/internal/config"
	"github.com/okrtracker/go-okr-backend/internal/http/problem"
	"github.com/okrtracker/go-okr-backend/internal/metrics"
	"github.com/okrtracker/go-okr-backend/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("router_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			SecretKey: "router-test-secret",
			Algorithm: "HS256",
			TokenTTL:  time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			MaxRequests: 10000, // effectively off unless a test lowers it
			Window:      time.Minute,
		},
	}
}

func newTestRouter(t *testing.T, cfg config.Config) (*gin.Engine, *metrics.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reg := metrics.NewRegistry()
	RegisterRoutes(r, newTestDB(t), reg, cfg)
	return r, reg
}

func doJSON(t *testing.T, r *gin.Engine, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) problem.Details {
	t.Helper()
	var d problem.Details
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode problem %q: %v", w.Body.String(), err)
	}
	return d
}

// signup registers username and returns its bearer token.
func signup(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/signup", "", map[string]string{
		"username": username,
		"password": "password-123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("token envelope = %+v", tok)
	}
	return tok.AccessToken
}

func createObjective(t *testing.T, r *gin.Engine, token, title, period string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/objectives", token, map[string]string{
		"title": title, "period_name": period,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create objective: status %d body %s", w.Code, w.Body.String())
	}
	var o struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("decode objective: %v", err)
	}
	return o.ID
}

func TestPublicEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
	if cid := w.Header().Get(problem.HeaderCorrelationID); cid == "" {
		t.Fatalf("missing correlation header")
	}
	if rt := w.Header().Get("X-Response-Time"); !strings.HasSuffix(rt, "ms") {
		t.Fatalf("X-Response-Time = %q", rt)
	}
	// AllowAllOrigins branch sets a wildcard ACAO.
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO = %q", got)
	}

	w = doJSON(t, r, http.MethodGet, "/period-templates", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("period-templates = %d", w.Code)
	}
	var periods []struct {
		Name      string `json:"name"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &periods); err != nil {
		t.Fatalf("decode periods: %v", err)
	}
	if len(periods) != 8 {
		t.Fatalf("periods = %d; want 8", len(periods))
	}
}

func TestNoRoute_ProblemBody(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := doJSON(t, r, http.MethodGet, "/definitely-not-a-route", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	d := decodeProblem(t, w)
	if d.Type != problem.TypeResourceNotFound || d.CorrelationID == "" {
		t.Fatalf("problem = %+v", d)
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	signup(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/signup", "", map[string]string{
		"username": "alice", "password": "another",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	d := decodeProblem(t, w)
	if d.Type != problem.TypeUsernameExists || d.Detail != "Username already registered" {
		t.Fatalf("problem = %+v", d)
	}
}

func TestSignup_MissingFields(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := doJSON(t, r, http.MethodPost, "/signup", "", map[string]string{})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	d := decodeProblem(t, w)
	if len(d.Errors["username"]) == 0 || len(d.Errors["password"]) == 0 {
		t.Fatalf("errors = %v", d.Errors)
	}
}

func TestToken_FormLogin(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	signup(t, r, "alice")

	form := url.Values{"username": {"alice"}, "password": {"password-123"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"token_type":"bearer"`) {
		t.Fatalf("body = %s", w.Body.String())
	}

	// Wrong password and unknown user render the same problem.
	for _, creds := range []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"ghost"}, "password": {"password-123"}},
	} {
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(creds.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
		d := decodeProblem(t, w)
		if d.Type != problem.TypeInvalidCredentials || d.Detail != "Incorrect username or password" {
			t.Fatalf("problem = %+v", d)
		}
	}
}

func TestObjectives_RequireAuth(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := doJSON(t, r, http.MethodGet, "/objectives", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q", w.Header().Get("WWW-Authenticate"))
	}
	d := decodeProblem(t, w)
	if d.Type != problem.TypeUnauthorized || d.Detail != "Could not validate credentials" {
		t.Fatalf("problem = %+v", d)
	}
}

func TestObjectives_CRUDFlow(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	token := signup(t, r, "alice")

	id := createObjective(t, r, token, "  Grow   revenue ", "Q1 2025")

	// Title was normalized before persisting.
	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/objectives/%d", id), token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"title":"Grow revenue"`) {
		t.Fatalf("get = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/objectives?skip=0&limit=10", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/objectives/%d", id), token, map[string]string{
		"title": "Retain customers", "period_name": "Q2 2025",
	})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"period_name":"Q2 2025"`) {
		t.Fatalf("update = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/objectives/%d", id), token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("delete = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/objectives/%d", id), token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", w.Code)
	}
}

func TestObjectives_ValidationAggregates(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	token := signup(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/objectives", token, map[string]string{
		"title": "ab", "period_name": "First Quarter",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	d := decodeProblem(t, w)
	if !strings.HasSuffix(d.Type, "validation-error") {
		t.Fatalf("type = %q", d.Type)
	}
	if len(d.Errors["title"]) == 0 || len(d.Errors["period_name"]) == 0 {
		t.Fatalf("both fields should be reported: %v", d.Errors)
	}
}

func TestObjectives_DuplicatePeriod(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	token := signup(t, r, "alice")
	createObjective(t, r, token, "Grow revenue", "Q1 2025")

	w := doJSON(t, r, http.MethodPost, "/objectives", token, map[string]string{
		"title": "Second try", "period_name": "Q1 2025",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	d := decodeProblem(t, w)
	if d.Type != problem.TypeDuplicateObjective || d.Detail != "Objective in the same period already exists" {
		t.Fatalf("problem = %+v", d)
	}
}

func TestObjectives_CrossUserIs404(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	alice := signup(t, r, "alice")
	bob := signup(t, r, "bob")
	id := createObjective(t, r, alice, "Grow revenue", "Q1 2025")

	for _, tc := range []struct {
		method string
		target string
		body   any
	}{
		{http.MethodGet, fmt.Sprintf("/objectives/%d", id), nil},
		{http.MethodPut, fmt.Sprintf("/objectives/%d", id), map[string]string{"title": "Hijack attempt", "period_name": "Q3 2025"}},
		{http.MethodDelete, fmt.Sprintf("/objectives/%d", id), nil},
	} {
		w := doJSON(t, r, tc.method, tc.target, bob, tc.body)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s from non-owner = %d; want 404", tc.method, tc.target, w.Code)
		}
	}

	// Malformed ids read as missing resources, not routing errors.
	w := doJSON(t, r, http.MethodGet, "/objectives/abc", alice, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("malformed id = %d", w.Code)
	}
}

func TestKeyResults_Flow(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	token := signup(t, r, "alice")
	objID := createObjective(t, r, token, "Grow revenue", "Q1 2025")

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/objectives/%d/key-results", objID), token, map[string]any{
		"title": "Close deals", "metric": "deals", "target": 10, "progress": 2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create kr = %d %s", w.Code, w.Body.String())
	}
	var kr struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &kr); err != nil {
		t.Fatalf("decode kr: %v", err)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/objectives/%d/key-results", objID), token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"metric":"deals"`) {
		t.Fatalf("list krs = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/key-results/%d", kr.ID), token, map[string]any{
		"title": "Close deals", "metric": "deals", "target": 10, "progress": 10,
	})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"progress":10`) {
		t.Fatalf("update kr = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/key-results/%d", kr.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete kr = %d", w.Code)
	}
}

func TestKeyResults_ValidationRules(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	token := signup(t, r, "alice")
	objID := createObjective(t, r, token, "Grow revenue", "Q1 2025")

	// Absent numerics are reported as required, not defaulted to zero.
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/objectives/%d/key-results", objID), token, map[string]any{
		"title": "Close deals", "metric": "deals",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	d := decodeProblem(t, w)
	if d.Errors["target"][0] != "field required" || d.Errors["progress"][0] != "field required" {
		t.Fatalf("errors = %v", d.Errors)
	}

	// Progress above target is a cross-field failure.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/objectives/%d/key-results", objID), token, map[string]any{
		"title": "Close deals", "metric": "deals", "target": 5, "progress": 6,
	})
	d = decodeProblem(t, w)
	if w.Code != http.StatusUnprocessableEntity || d.Errors["progress"][0] != "must not exceed target" {
		t.Fatalf("cross-field = %d %v", w.Code, d.Errors)
	}
}

func TestKeyResults_CrossUserNever403(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	alice := signup(t, r, "alice")
	bob := signup(t, r, "bob")
	objID := createObjective(t, r, alice, "Grow revenue", "Q1 2025")

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/objectives/%d/key-results", objID), alice, map[string]any{
		"title": "Close deals", "metric": "deals", "target": 10, "progress": 0,
	})
	var kr struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &kr); err != nil {
		t.Fatalf("decode kr: %v", err)
	}

	// Creating under a foreign objective and touching a foreign key result
	// both read as 404; a 403 would confirm the resource exists.
	cases := []struct {
		method string
		target string
		body   any
	}{
		{http.MethodPost, fmt.Sprintf("/objectives/%d/key-results", objID), map[string]any{"title": "Sneaky KR", "metric": "x", "target": 1, "progress": 0}},
		{http.MethodGet, fmt.Sprintf("/objectives/%d/key-results", objID), nil},
		{http.MethodPut, fmt.Sprintf("/key-results/%d", kr.ID), map[string]any{"title": "Hijack attempt", "metric": "x", "target": 1, "progress": 0}},
		{http.MethodDelete, fmt.Sprintf("/key-results/%d", kr.ID), nil},
	}
	for _, tc := range cases {
		w := doJSON(t, r, tc.method, tc.target, bob, tc.body)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s from non-owner = %d; want 404", tc.method, tc.target, w.Code)
		}
		if w.Code == http.StatusForbidden {
			t.Fatalf("%s %s leaked existence via 403", tc.method, tc.target)
		}
	}
}

func TestStatsAndReports(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	token := signup(t, r, "alice")
	objID := createObjective(t, r, token, "Grow revenue", "Q1 2025")

	doJSON(t, r, http.MethodPost, fmt.Sprintf("/objectives/%d/key-results", objID), token, map[string]any{
		"title": "Close deals", "metric": "deals", "target": 10, "progress": 5,
	})

	w := doJSON(t, r, http.MethodGet, "/stats", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"overall_progress":0.5`) {
		t.Fatalf("stats = %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/reports/objective/%d?format=json", objID), token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"key_results"`) {
		t.Fatalf("report json = %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("json content-type = %q", ct)
	}

	// No format parameter exports CSV.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/reports/objective/%d", objID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report csv = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("csv content-type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Fatalf("csv content-disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 || strings.TrimSpace(lines[0]) != "id,title,metric,target,progress" {
		t.Fatalf("csv = %q", w.Body.String())
	}
	if !strings.Contains(lines[1], "Close deals") {
		t.Fatalf("csv row = %q", lines[1])
	}
}

func TestMetricsSnapshot_CountsRequests(t *testing.T) {
	r, reg := newTestRouter(t, testConfig())

	for i := 0; i < 3; i++ {
		doJSON(t, r, http.MethodGet, "/health", "", nil)
	}
	if reg.Len() != 3 {
		t.Fatalf("samples = %d; want 3", reg.Len())
	}

	w := doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	var snap metrics.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	// The /metrics request itself was sampled before the snapshot was taken.
	if snap.TotalRequests < 3 {
		t.Fatalf("TotalRequests = %d", snap.TotalRequests)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	doJSON(t, r, http.MethodGet, "/health", "", nil)

	w := doJSON(t, r, http.MethodGet, "/metrics/prometheus", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("scrape body missing counters: %.200s", w.Body.String())
	}
}

func TestRateLimit_EndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxRequests = 3
	r, _ := newTestRouter(t, cfg)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "198.51.100.7:5000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i+1, w.Code)
		}
	}
	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d; want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	d := decodeProblem(t, w)
	if d.Type != problem.TypeRateLimit {
		t.Fatalf("problem = %+v", d)
	}
}

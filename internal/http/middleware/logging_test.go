package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/okrtracker/go-okr-backend/internal/http/problem"
)

// captureLogs redirects the global logger to a buffer for the test duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })
	return &buf
}

func TestRequestLogger_MasksAuthorization(t *testing.T) {
	buf := captureLogs(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Correlation(), RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	secret := "Bearer super-secret-token-value"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", secret)
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, secret) || strings.Contains(out, "super-secret-token-value") {
		t.Fatalf("raw credential reached log sink: %s", out)
	}
	if !strings.Contains(out, MaskSecret(secret)) {
		t.Fatalf("masked credential missing from log: %s", out)
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusInternalServerError, "error"},
	}
	for _, tc := range cases {
		buf := captureLogs(t)

		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(RequestLogger())
		r.GET("/", func(c *gin.Context) { c.Status(tc.status) })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		var line struct {
			Level  string `json:"level"`
			Status int    `json:"status"`
		}
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("decode log line %q: %v", buf.String(), err)
		}
		if line.Level != tc.level || line.Status != tc.status {
			t.Fatalf("status %d logged as %q/%d; want %q", tc.status, line.Level, line.Status, tc.level)
		}
	}
}

func TestRecovery_RendersInternalProblem(t *testing.T) {
	buf := captureLogs(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Correlation(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("db handle is nil") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var d problem.Details
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Type != problem.TypeInternalError {
		t.Fatalf("type = %q", d.Type)
	}
	if strings.Contains(w.Body.String(), "db handle is nil") {
		t.Fatalf("panic text leaked to client: %s", w.Body.String())
	}
	if d.CorrelationID == "" {
		t.Fatalf("panic body missing correlation id")
	}
	// Server side keeps the real cause.
	if !strings.Contains(buf.String(), "db handle is nil") {
		t.Fatalf("panic text missing from server log")
	}
}

func TestLoggerFrom_FallsBack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("nil logger without RequestLogger installed")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 0); got != "abcdef" {
		t.Fatalf("max<=0 should disable truncation, got %q", got)
	}
	if got := truncate("abcdef", 10); got != "abcdef" {
		t.Fatalf("short string changed: %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
}

package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/http/problem"
	"github.com/okrtracker/go-okr-backend/internal/ratelimit"
)

func TestKeyByClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c.Request = req

	key := KeyByClientIP()(c)
	if !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("key = %q", key)
	}
}

func TestRateLimit_DeniesOverCap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Correlation())
	r.Use(RateLimit(ratelimit.NewSlidingWindow(2, time.Minute), KeyByClientIP()))
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.1:4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}

	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d; want 429", w.Code)
	}

	retry := w.Header().Get("Retry-After")
	secs, err := strconv.Atoi(retry)
	if err != nil || secs < 1 || secs > 60 {
		t.Fatalf("Retry-After = %q", retry)
	}

	var d problem.Details
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Type != problem.TypeRateLimit || d.Status != http.StatusTooManyRequests {
		t.Fatalf("body = %+v", d)
	}
	want := "Rate limit exceeded. Retry after " + retry + " seconds."
	if d.Detail != want {
		t.Fatalf("detail = %q; want %q", d.Detail, want)
	}
	if d.CorrelationID == "" {
		t.Fatalf("missing correlation id in rate-limit body")
	}
}

func TestRateLimit_SeparatesClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(ratelimit.NewSlidingWindow(1, time.Minute), KeyByClientIP()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if do("198.51.100.1") != http.StatusOK {
		t.Fatalf("first client denied")
	}
	if do("198.51.100.1") != http.StatusTooManyRequests {
		t.Fatalf("first client not limited")
	}
	if do("198.51.100.2") != http.StatusOK {
		t.Fatalf("second client affected by first")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/http/problem"
	"github.com/okrtracker/go-okr-backend/internal/services"
	"github.com/okrtracker/go-okr-backend/internal/validate"
)

func testContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestPathID(t *testing.T) {
	cases := []struct {
		raw  string
		want uint
		ok   bool
	}{
		{"7", 7, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"7.5", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		c, _ := testContext(t, "/x")
		c.Params = gin.Params{{Key: "id", Value: tc.raw}}
		got, ok := pathID(c, "id")
		if got != tc.want || ok != tc.ok {
			t.Fatalf("pathID(%q) = %d, %v; want %d, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAtoiDefault(t *testing.T) {
	if atoiDefault("", 50) != 50 || atoiDefault("junk", 50) != 50 || atoiDefault("7", 50) != 7 {
		t.Fatalf("atoiDefault misbehaves")
	}
}

func TestAbortError_KindDispatch(t *testing.T) {
	cases := []struct {
		err    error
		status int
		typ    string
		detail string
	}{
		{services.ErrUsernameTaken, http.StatusBadRequest, problem.TypeUsernameExists, "Username already registered"},
		{services.ErrInvalidCredentials, http.StatusBadRequest, problem.TypeInvalidCredentials, "Incorrect username or password"},
		{services.ErrDuplicateObjective, http.StatusBadRequest, problem.TypeDuplicateObjective, "Objective in the same period already exists"},
		{services.ErrObjectiveNotFound, http.StatusNotFound, problem.TypeResourceNotFound, "Objective not found"},
		{services.ErrKeyResultNotFound, http.StatusNotFound, problem.TypeResourceNotFound, "KeyResult not found"},
		{services.ErrAccessDenied, http.StatusNotFound, problem.TypeAccessDenied, "Objective not found or access denied"},
	}
	for _, tc := range cases {
		c, w := testContext(t, "/x")
		abortError(c, tc.err)

		var d problem.Details
		if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
			t.Fatalf("%v: decode: %v", tc.err, err)
		}
		if w.Code != tc.status || d.Type != tc.typ || d.Detail != tc.detail {
			t.Fatalf("%v rendered as %d %q %q", tc.err, w.Code, d.Type, d.Detail)
		}
	}
}

func TestAbortError_ValidationAndFallback(t *testing.T) {
	c, w := testContext(t, "/x")
	abortError(c, validate.Errors{"title": {"must be at least 3 characters"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("validation status = %d", w.Code)
	}

	c, w = testContext(t, "/x")
	abortError(c, errors.New("unmapped storage failure"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("fallback status = %d", w.Code)
	}
	var d problem.Details
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Type != problem.TypeInternalError {
		t.Fatalf("fallback type = %q", d.Type)
	}
}

func TestAbortBadBody(t *testing.T) {
	c, w := testContext(t, "/x")
	abortBadBody(c)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	var d problem.Details
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Errors["body"][0] != "invalid JSON payload" {
		t.Fatalf("errors = %v", d.Errors)
	}
}

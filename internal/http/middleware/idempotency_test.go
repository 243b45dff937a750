package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct {
	userID, scope, key string
}

// idemRouter mounts the validator in front of POST and GET /uploads and
// reports what the handler saw.
func idemRouter(opts IdempotencyOptions, lookup IdempotencyLookup, seen *map[string]any) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set(UserIDKey, u)
		}
		c.Next()
	})
	r.Use(IdempotencyValidator(opts, lookup))
	h := func(c *gin.Context) {
		key, ok := GetIdempotencyKey(c)
		*seen = map[string]any{"key": key, "has_key": ok, "replay": IsReplay(c), "bypass": IsRateBypass(c)}
		c.Status(http.StatusCreated)
	}
	r.POST("/uploads", h)
	r.GET("/uploads", h)
	return r
}

func sendIdem(r *gin.Engine, method, key, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/uploads", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyValidator_KeyValidation(t *testing.T) {
	cases := []struct {
		name    string
		opts    IdempotencyOptions
		key     string
		status  int
		wantKey string
	}{
		{"no header", IdempotencyOptions{}, "", http.StatusCreated, ""},
		{"valid default pattern", IdempotencyOptions{}, "7a8d9f4c-1b2a:retry.1", http.StatusCreated, "7a8d9f4c-1b2a:retry.1"},
		{"surrounding spaces trimmed", IdempotencyOptions{}, "  k-1  ", http.StatusCreated, "k-1"},
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef", http.StatusBadRequest, ""},
		{"default max length", IdempotencyOptions{}, strings.Repeat("k", defaultIdemMaxLen+1), http.StatusBadRequest, ""},
		{"bad characters", IdempotencyOptions{}, "key with/slash", http.StatusBadRequest, ""},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen map[string]any
			w := sendIdem(idemRouter(tc.opts, nil, &seen), http.MethodPost, tc.key, "")
			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			if tc.status == http.StatusBadRequest {
				var body map[string]string
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != CodeBadRequest {
					t.Fatalf("unexpected 400 body %s (%v)", w.Body.String(), err)
				}
				return
			}
			if seen["key"] != tc.wantKey || seen["has_key"] != (tc.wantKey != "") {
				t.Fatalf("handler saw %v; want key %q", seen, tc.wantKey)
			}
		})
	}
}

func TestIdempotencyValidator_Lookup(t *testing.T) {
	var calls []lookupCall
	stored := map[string]bool{"u9|POST /uploads|done": true}
	lookup := func(_ context.Context, userID, scope, key string, now time.Time) (bool, error) {
		if now.IsZero() || now.Location() != time.UTC {
			t.Fatalf("lookup time must be UTC, got %v", now)
		}
		calls = append(calls, lookupCall{userID, scope, key})
		if key == "broken" {
			return false, errors.New("db locked")
		}
		return stored[userID+"|"+scope+"|"+key], nil
	}
	var seen map[string]any
	r := idemRouter(IdempotencyOptions{}, lookup, &seen)

	sendIdem(r, http.MethodPost, "done", "u9")
	if seen["replay"] != true || seen["bypass"] != true {
		t.Fatalf("hit should flag replay and bypass: %v", seen)
	}

	// same key, other student
	sendIdem(r, http.MethodPost, "done", "")
	if seen["replay"] != false || seen["bypass"] != false {
		t.Fatalf("keys are per student: %v", seen)
	}

	// lookup errors fall through as a miss
	if w := sendIdem(r, http.MethodPost, "broken", "u9"); w.Code != http.StatusCreated || seen["replay"] != false {
		t.Fatalf("lookup error must not block: %d %v", w.Code, seen)
	}

	want := []lookupCall{
		{"u9", "POST /uploads", "done"},
		{DemoUserID, "POST /uploads", "done"},
		{"u9", "POST /uploads", "broken"},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %+v; want %+v", i, calls[i], want[i])
		}
	}
}

func TestIdempotencyValidator_IgnoresOtherMethods(t *testing.T) {
	called := false
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	}
	var seen map[string]any
	r := idemRouter(IdempotencyOptions{}, lookup, &seen)

	// Even a malformed key is ignored on GET.
	if w := sendIdem(r, http.MethodGet, "not valid!", ""); w.Code != http.StatusCreated {
		t.Fatalf("GET should pass through, got %d", w.Code)
	}
	if called || seen["has_key"] != false {
		t.Fatalf("GET must not be keyed: called=%v seen=%v", called, seen)
	}
}

func TestIdempotencyHelpers_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/uploads/x", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("key should be absent")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("non-bool replay must read as false")
	}
	if got := IdempotencyScope(c); got != "DELETE /api/v1/uploads/x" {
		t.Fatalf("scope without route = %q", got)
	}
}

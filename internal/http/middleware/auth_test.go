package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func authRouter(opts AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(opts))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	return r
}

func doAuth(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_NoSecretFallbacks(t *testing.T) {
	r := authRouter(AuthOptions{})

	if w := doAuth(r, nil); w.Code != http.StatusOK || w.Body.String() != DemoUserID {
		t.Fatalf("expected demo user, got %d %q", w.Code, w.Body.String())
	}
	if w := doAuth(r, map[string]string{"X-User-ID": " s1 "}); w.Body.String() != "s1" {
		t.Fatalf("expected header identity, got %q", w.Body.String())
	}

	rr := authRouter(AuthOptions{Required: true})
	if w := doAuth(rr, map[string]string{"X-User-ID": "s1"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("required auth without secret should reject, got %d", w.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	r := authRouter(AuthOptions{Secret: testSecret, Issuer: "safestudent", Required: true})
	tok := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "student-42",
		Issuer:    "safestudent",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	w := doAuth(r, map[string]string{"Authorization": "Bearer " + tok, "X-User-ID": "spoofed"})
	if w.Code != http.StatusOK || w.Body.String() != "student-42" {
		t.Fatalf("expected student-42, got %d %q", w.Code, w.Body.String())
	}
}

func TestAuth_Rejections(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	cases := map[string]struct {
		header string
		msg    string
	}{
		"missing":    {"", "missing bearer token"},
		"bad scheme": {"Basic abc", "missing bearer token"},
		"wrong key": {"Bearer " + signToken(t, "other", jwt.RegisteredClaims{Subject: "s", ExpiresAt: future}),
			"invalid token"},
		"expired": {"Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{
			Subject: "s", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}), "token has expired"},
		"no subject":   {"Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{ExpiresAt: future}), "invalid token"},
		"wrong issuer": {"Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{Subject: "s", Issuer: "x"}), "invalid token"},
	}

	r := authRouter(AuthOptions{Secret: testSecret, Issuer: "safestudent", Required: true})
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := map[string]string{}
			if tc.header != "" {
				h["Authorization"] = tc.header
			}
			w := doAuth(r, h)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if w.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("missing WWW-Authenticate")
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != CodeUnauthorized || body["message"] != tc.msg {
				t.Fatalf("unexpected body %v", body)
			}
		})
	}
}

func TestAuth_OptionalWithSecret(t *testing.T) {
	r := authRouter(AuthOptions{Secret: testSecret})

	if w := doAuth(r, map[string]string{"X-User-ID": "spoofed"}); w.Code != http.StatusOK || w.Body.String() != DemoUserID {
		t.Fatalf("header identity must be ignored when a secret is set, got %q", w.Body.String())
	}
	if w := doAuth(r, map[string]string{"Authorization": "Bearer garbage"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("a presented but invalid token must be rejected, got %d", w.Code)
	}
}

func TestAuth_RejectsNoneAlgorithm(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "s"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	r := authRouter(AuthOptions{Secret: testSecret})
	if w := doAuth(r, map[string]string{"Authorization": "Bearer " + tok}); w.Code != http.StatusUnauthorized {
		t.Fatalf("alg=none must be rejected, got %d", w.Code)
	}
}

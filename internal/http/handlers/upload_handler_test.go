package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/repo"
	"github.com/safestudent/safe-student-backend/internal/services"
)

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(data)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadRouter(h *Handlers, lookup middleware.IdempotencyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.UserIDKey, "s1"); c.Next() })
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))
	r.POST("/uploads", h.CreateUpload)
	return r
}

func postUpload(t *testing.T, r http.Handler, field string, data []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, field, "shot.png", data)
	h := map[string]string{"Content-Type": ct}
	for k, v := range header {
		h[k] = v
	}
	return serve(r, http.MethodPost, "/uploads", body, h)
}

func TestCreateUpload_SuccessAndErrorMappings(t *testing.T) {
	var gotOwner, gotName string
	var gotData []byte
	next := error(nil)
	up := stubUploads{fn: func(_ context.Context, ownerID, filename string, data []byte) (*domain.Upload, error) {
		gotOwner, gotName, gotData = ownerID, filename, data
		if next != nil {
			return nil, next
		}
		return &domain.Upload{ID: "u-1", UserID: ownerID, Status: domain.StatusPending}, nil
	}}
	r := uploadRouter(New(Services{Uploads: up}), nil)

	w := postUpload(t, r, "file", []byte("png-bytes"), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if gotOwner != "s1" || gotName != "shot.png" || string(gotData) != "png-bytes" {
		t.Fatalf("service got owner=%q name=%q data=%q", gotOwner, gotName, gotData)
	}
	var created domain.Upload
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID != "u-1" || created.Status != domain.StatusPending {
		t.Fatalf("unexpected body %+v", created)
	}

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrEmptyFile, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrInvalidOwner, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrFileTooLarge, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
		{services.ErrNotImage, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMediaType},
		{errors.Join(services.ErrUploadFailed, errors.New("minio: connection refused")), http.StatusInternalServerError, ErrCodeUploadFailed},
	}
	for _, tc := range cases {
		next = tc.err
		w := postUpload(t, r, "file", []byte("x"), nil)
		if w.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
		er := decodeError(t, w)
		if er.Code != tc.code {
			t.Fatalf("%v: expected code %q, got %q", tc.err, tc.code, er.Code)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("minio")) {
			t.Fatalf("storage detail leaked: %s", w.Body.String())
		}
	}
}

func TestCreateUpload_MissingFieldAndTooLarge(t *testing.T) {
	up := stubUploads{fn: func(context.Context, string, string, []byte) (*domain.Upload, error) {
		t.Fatalf("service must not be called")
		return nil, nil
	}}
	r := uploadRouter(New(Services{Uploads: up, MaxUploadBytes: 4}), nil)

	if w := postUpload(t, r, "image", []byte("abc"), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("wrong field: expected 400, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/uploads", bytes.NewBufferString(`{}`), map[string]string{"Content-Type": "application/json"}); w.Code != http.StatusBadRequest {
		t.Fatalf("non-multipart: expected 400, got %d", w.Code)
	}
	w := postUpload(t, r, "file", []byte("too many bytes"), nil)
	if w.Code != http.StatusRequestEntityTooLarge || decodeError(t, w).Code != ErrCodePayloadTooLarge {
		t.Fatalf("expected 413 payload_too_large, got %d %s", w.Code, w.Body.String())
	}
}

func TestCreateUpload_BodyLimitFromRouter(t *testing.T) {
	up := stubUploads{fn: func(context.Context, string, string, []byte) (*domain.Upload, error) {
		t.Fatalf("service must not be called")
		return nil, nil
	}}
	h := New(Services{Uploads: up})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 64)
		c.Next()
	})
	r.POST("/uploads", h.CreateUpload)

	w := postUpload(t, r, "file", bytes.Repeat([]byte("a"), 4096), nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestCreateUpload_IdempotentReplay(t *testing.T) {
	db := newHandlerDB(t)
	calls := 0
	up := stubUploads{fn: func(ctx context.Context, ownerID, _ string, _ []byte) (*domain.Upload, error) {
		calls++
		return repo.CreateUpload(ctx, db, ownerID, "http://store/chat-images/s1/1.png", "s1/1.png", "image/png")
	}}
	s := Services{Uploads: up, DB: db}
	r := uploadRouter(New(s), s.IdempotencyLookup())
	key := map[string]string{middleware.HeaderIdempotencyKey: "retry-1"}

	w1 := postUpload(t, r, "file", []byte("x"), key)
	if w1.Code != http.StatusCreated || w1.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first: %d replayed=%q", w1.Code, w1.Header().Get(middleware.HeaderIdempotencyReplayed))
	}
	w2 := postUpload(t, r, "file", []byte("x"), key)
	if w2.Code != http.StatusCreated || w2.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("second: %d replayed=%q", w2.Code, w2.Header().Get(middleware.HeaderIdempotencyReplayed))
	}
	if calls != 1 {
		t.Fatalf("expected one upload, got %d", calls)
	}
	var a, b domain.Upload
	_ = json.Unmarshal(w1.Body.Bytes(), &a)
	_ = json.Unmarshal(w2.Body.Bytes(), &b)
	if a.ID == "" || a.ID != b.ID {
		t.Fatalf("replay returned a different upload: %q vs %q", a.ID, b.ID)
	}

	// A different key uploads again.
	w3 := postUpload(t, r, "file", []byte("x"), map[string]string{middleware.HeaderIdempotencyKey: "retry-2"})
	if w3.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("new key: %d calls=%d", w3.Code, calls)
	}

	// Deleting the upload makes the key fresh again.
	if err := repo.DeleteUpload(context.Background(), db, a.ID, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	w4 := postUpload(t, r, "file", []byte("x"), key)
	if w4.Code != http.StatusCreated || w4.Header().Get(middleware.HeaderIdempotencyReplayed) != "" || calls != 3 {
		t.Fatalf("after delete: %d replayed=%q calls=%d", w4.Code, w4.Header().Get(middleware.HeaderIdempotencyReplayed), calls)
	}
}

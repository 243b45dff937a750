package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/services"
)

func TestProfile_GetAndUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var stored services.ProfileInput
	getErr := error(nil)
	h := New(Services{Profiles: stubProfiles{
		get: func(_ context.Context, ownerID string) (*domain.Profile, error) {
			if getErr != nil {
				return nil, getErr
			}
			return &domain.Profile{UserID: ownerID, FullName: stored.FullName}, nil
		},
		update: func(_ context.Context, ownerID string, in services.ProfileInput) (*domain.Profile, error) {
			if in.ParentEmail == "bad" {
				return nil, fmt.Errorf("%w: parent_email is not a valid address", services.ErrInvalidProfile)
			}
			stored = in
			return &domain.Profile{UserID: ownerID, FullName: in.FullName, ParentEmail: in.ParentEmail}, nil
		},
	}})
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.UserIDKey, "s9"); c.Next() })
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpdateProfile)

	w := serve(r, http.MethodPut, "/profile", bytes.NewBufferString(`{"full_name":"Lan","parent_email":"me@example.com"}`), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	var p domain.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil || p.UserID != "s9" || p.ParentEmail != "me@example.com" {
		t.Fatalf("unexpected profile %+v (%v)", p, err)
	}

	w = serve(r, http.MethodGet, "/profile", nil, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil || w.Code != http.StatusOK || p.FullName != "Lan" {
		t.Fatalf("get: %d %+v", w.Code, p)
	}

	w = serve(r, http.MethodPut, "/profile", bytes.NewBufferString(`{"parent_email":"bad"}`), nil)
	if er := decodeError(t, w); w.Code != http.StatusBadRequest || er.Message != "invalid profile: parent_email is not a valid address" {
		t.Fatalf("invalid: %d %+v", w.Code, er)
	}
	if w := serve(r, http.MethodPut, "/profile", bytes.NewBufferString(`[1,2]`), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", w.Code)
	}

	getErr = errors.New("db down")
	if w := serve(r, http.MethodGet, "/profile", nil, nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("get error: expected 500, got %d", w.Code)
	}
}

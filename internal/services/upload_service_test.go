package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

func fixedClock() time.Time { return time.UnixMilli(1_700_000_000_123) }

func TestUpload_StoresAndRecordsPending(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	svc := &UploadService{DB: db, Store: store, Now: fixedClock}

	up, err := svc.Upload(context.Background(), "u1", "shot.PNG", pngBytes)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	wantKey := "u1/1700000000123.png"
	if up.ObjectKey != wantKey {
		t.Fatalf("key: got %q; want %q", up.ObjectKey, wantKey)
	}
	if up.ImageURL != "http://store/chat-images/"+wantKey {
		t.Fatalf("url: got %q", up.ImageURL)
	}
	if up.Status != domain.StatusPending || up.ContentType != "image/png" || up.UserID != "u1" {
		t.Fatalf("unexpected upload: %+v", up)
	}
	if !store.has(wantKey) {
		t.Fatalf("object not stored")
	}
	if st := statusOf(t, db, up.ID); st != domain.StatusPending {
		t.Fatalf("persisted status = %s", st)
	}
}

func TestUpload_InputErrorsHaveNoSideEffects(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	svc := &UploadService{DB: db, Store: store, MaxBytes: 64}

	cases := []struct {
		owner string
		data  []byte
		want  error
	}{
		{"", pngBytes, ErrInvalidOwner},
		{"a/b", pngBytes, ErrInvalidOwner},
		{"..", pngBytes, ErrInvalidOwner},
		{"u1", nil, ErrEmptyFile},
		{"u1", append(append([]byte{}, pngBytes...), make([]byte, 64)...), ErrFileTooLarge},
		{"u1", []byte("just some text, not an image"), ErrNotImage},
	}
	for _, c := range cases {
		_, err := svc.Upload(context.Background(), c.owner, "f.png", c.data)
		if !errors.Is(err, c.want) {
			t.Fatalf("owner=%q len=%d: expected %v, got %v", c.owner, len(c.data), c.want, err)
		}
	}
	if len(store.objects) != 0 {
		t.Fatalf("no object should be stored, got %d", len(store.objects))
	}
	var n int64
	db.Model(&domain.Upload{}).Count(&n)
	if n != 0 {
		t.Fatalf("no upload should be recorded, got %d", n)
	}
}

func TestUpload_StorageFailure(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	store.putErr = errors.New("bucket offline")
	svc := &UploadService{DB: db, Store: store}

	_, err := svc.Upload(context.Background(), "u1", "f.png", pngBytes)
	if !errors.Is(err, ErrUploadFailed) || !errors.Is(err, store.putErr) {
		t.Fatalf("expected wrapped ErrUploadFailed, got %v", err)
	}
	var n int64
	db.Model(&domain.Upload{}).Count(&n)
	if n != 0 {
		t.Fatalf("no record expected after storage failure")
	}
}

func TestUpload_RecordFailureRemovesObject(t *testing.T) {
	// Unmigrated database: the insert fails.
	dsn := fmt.Sprintf("file:svc_nomigrate_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := newFakeStore()
	svc := &UploadService{DB: db, Store: store, Now: fixedClock}

	_, err = svc.Upload(context.Background(), "u1", "f.png", pngBytes)
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if store.has("u1/1700000000123.png") {
		t.Fatalf("orphaned object should have been removed")
	}
	if len(store.removed) != 1 {
		t.Fatalf("expected one compensating remove, got %v", store.removed)
	}
}

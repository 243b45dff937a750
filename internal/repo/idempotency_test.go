package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safestudent/safe-student-backend/internal/domain"
)

const uploadsScope = "POST /api/v1/uploads"

func idemKey(user, key string) IdemKey {
	return IdemKey{UserID: user, Scope: uploadsScope, Key: key}
}

func TestFindIdempotency_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()
	if err := SaveIdempotency(ctx, db, idemKey("s1", "old"), "u1", 201, now.Add(-2*time.Hour), time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := map[string]IdemKey{
		"blank scope": {UserID: "s1", Scope: "  ", Key: "k1"},
		"blank key":   {UserID: "s1", Scope: uploadsScope},
		"missing":     idemKey("s1", "nope"),
		"expired":     idemKey("s1", "old"),
		"other user":  idemKey("s2", "old"),
	}
	for name, k := range cases {
		t.Run(name, func(t *testing.T) {
			rec, err := FindIdempotency(ctx, db, k, now)
			if rec != nil || !errors.Is(err, ErrNotFound) {
				t.Fatalf("got (%+v, %v), want ErrNotFound", rec, err)
			}
		})
	}
}

func TestSaveIdempotency_LiveKeyIsDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()

	if err := SaveIdempotency(ctx, db, idemKey("s1", "k1"), "u1", 201, now, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveIdempotency(ctx, db, idemKey("s1", "k1"), "u2", 201, now, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Other users may reuse the key.
	if err := SaveIdempotency(ctx, db, idemKey("s2", "k1"), "u3", 201, now, time.Hour); err != nil {
		t.Fatalf("other user: %v", err)
	}

	got, err := FindIdempotency(ctx, db, idemKey("s1", "k1"), now)
	if err != nil || got.ResourceID != "u1" || got.Status != 201 || !got.ExpiresAt.After(got.CreatedAt) {
		t.Fatalf("first write must win: %+v err=%v", got, err)
	}
}

func TestSaveIdempotency_ExpiredKeyIsReplaced(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()

	if err := SaveIdempotency(ctx, db, idemKey("s1", "k1"), "u1", 201, now.Add(-2*time.Hour), time.Hour); err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if err := SaveIdempotency(ctx, db, idemKey("s1", "k1"), "u2", 201, now, time.Hour); err != nil {
		t.Fatalf("reuse expired key: %v", err)
	}
	got, err := FindIdempotency(ctx, db, idemKey("s1", "k1"), now)
	if err != nil || got.ResourceID != "u2" {
		t.Fatalf("expected replaced record, got %+v err=%v", got, err)
	}

	var n int64
	db.Model(&domain.Idempotency{}).Count(&n)
	if n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}
}

func TestSaveIdempotency_NoTable(t *testing.T) {
	db := newTestDB(t)
	err := SaveIdempotency(context.Background(), db, idemKey("s1", "k"), "u", 201, time.Now().UTC(), time.Hour)
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw db error, got %v", err)
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()
	if err := SaveIdempotency(ctx, db, idemKey("s1", "old"), "u1", 201, now, -time.Minute); err != nil {
		t.Fatalf("seed old: %v", err)
	}
	if err := SaveIdempotency(ctx, db, idemKey("s1", "new"), "u2", 201, now, time.Hour); err != nil {
		t.Fatalf("seed new: %v", err)
	}
	n, err := PurgeExpiredIdempotency(ctx, db, now)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredIdempotency: n=%d err=%v", n, err)
	}
}

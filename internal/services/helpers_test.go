package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/safestudent/safe-student-backend/internal/analyzer"
	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/notify"
	"github.com/safestudent/safe-student-backend/internal/repo"
)

// pngBytes is the smallest prefix mimetype recognizes as image/png.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUpload(t *testing.T, db *gorm.DB, userID string, status domain.Status, at time.Time) *domain.Upload {
	t.Helper()
	id := uuid.NewString()
	u := &domain.Upload{
		ID:          id,
		UserID:      userID,
		ImageURL:    "http://store/chat-images/" + userID + "/" + id + ".png",
		ObjectKey:   userID + "/" + id + ".png",
		ContentType: "image/png",
		Status:      status,
		UploadedAt:  at,
		UpdatedAt:   at,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	return u
}

func seedAnalysis(t *testing.T, db *gorm.DB, uploadID string, level domain.RiskLevel, summary, text string) *domain.Analysis {
	t.Helper()
	riskType := domain.SafeRiskType
	if level != domain.RiskLow {
		riskType = "lừa đảo"
	}
	a, err := repo.UpsertAnalysis(context.Background(), db, &domain.Analysis{
		UploadID:        uploadID,
		RiskLevel:       level,
		RiskType:        riskType,
		ConfidenceScore: 80,
		ExtractedText:   text,
		Summary:         summary,
		AnalyzedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed analysis: %v", err)
	}
	return a
}

func statusOf(t *testing.T, db *gorm.DB, id string) domain.Status {
	t.Helper()
	var u domain.Upload
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		t.Fatalf("load upload: %v", err)
	}
	return u.Status
}

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	getErr    error
	removeErr error
	removed   []string
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	f.objects[key] = append([]byte(nil), data...)
	return "http://store/chat-images/" + key, nil
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return b, nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// fakeModel returns a canned reply for both image analysis and chat.
type fakeModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	lastImg analyzer.Image
	lastReq analyzer.ChatRequest
	block   chan struct{} // when set, AnalyzeImage waits on it or on ctx
}

func (m *fakeModel) Name() string { return "fake/vision" }

func (m *fakeModel) AnalyzeImage(ctx context.Context, img analyzer.Image) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastImg = img
	block := m.block
	m.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, m.err
}

func (m *fakeModel) Chat(_ context.Context, r analyzer.ChatRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastReq = r
	return m.reply, m.err
}

// fakeAlerter records the alerts it was asked to send.
type fakeAlerter struct {
	calls []notify.Context
	last  domain.Analysis
}

func (a *fakeAlerter) MaybeAlert(_ context.Context, an domain.Analysis, ac notify.Context) bool {
	a.calls = append(a.calls, ac)
	a.last = an
	return notify.ShouldAlert(an.RiskLevel)
}

package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/domain"
)

type stubImageStore struct {
	mu     sync.Mutex
	images map[int64]*domain.Image
	nextID int64
	fail   error
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{images: make(map[int64]*domain.Image)}
}

func (s *stubImageStore) Create(_ context.Context, img *domain.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.nextID++
	img.ID = s.nextID
	c := *img
	s.images[img.ID] = &c
	return nil
}

func (s *stubImageStore) FindByID(_ context.Context, id int64) (*domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.images[id]; ok {
		c := *img
		return &c, nil
	}
	return nil, nil
}

func (s *stubImageStore) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.Image, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Image
	for _, img := range s.images {
		if img.UserID == userID {
			out = append(out, *img)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubImageStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.images, id)
	return nil
}

func newTestImageService(t *testing.T) (*ImageService, *stubImageStore, string) {
	t.Helper()
	store := newStubImageStore()
	dir := t.TempDir()
	svc, err := NewImageService(store, dir, discardLog())
	if err != nil {
		t.Fatalf("NewImageService failed: %v", err)
	}
	return svc, store, dir
}

func TestUploadStoresFileAndMetadata(t *testing.T) {
	svc, _, dir := newTestImageService(t)
	userID := uuid.New()

	img, err := svc.Upload(context.Background(), userID, "cat.PNG", bytes.NewReader([]byte("pixels")))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if img.ID == 0 {
		t.Fatal("expected a generated id")
	}
	if img.OriginalName != "cat.PNG" {
		t.Fatalf("originalName = %q", img.OriginalName)
	}
	if !strings.HasSuffix(img.Filename, ".png") {
		t.Fatalf("stored filename %q should carry the lowered extension", img.Filename)
	}
	if img.Filename == "cat.PNG" {
		t.Fatal("stored filename must not be the client name")
	}

	data, err := os.ReadFile(filepath.Join(dir, img.Filename))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "pixels" {
		t.Fatalf("stored bytes = %q", data)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestImageService(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.Upload(ctx, userID, "script.sh", bytes.NewReader([]byte("#!"))); !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for extension, got %v", err)
	}
	if _, err := svc.Upload(ctx, userID, "empty.png", bytes.NewReader(nil)); !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for empty body, got %v", err)
	}
}

func TestUploadCleansUpOnStoreFailure(t *testing.T) {
	svc, store, dir := newTestImageService(t)
	store.fail = os.ErrClosed

	_, err := svc.Upload(context.Background(), uuid.New(), "cat.png", bytes.NewReader([]byte("pixels")))
	if err == nil {
		t.Fatal("expected upload to fail")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected orphan file cleanup, found %d entries", len(entries))
	}
}

func TestServePathRejectsTraversal(t *testing.T) {
	svc, _, _ := newTestImageService(t)

	for _, name := range []string{"", "../secret", "a/b.png", "..\\x.png", ".."} {
		if _, err := svc.ServePath(name); !apperr.IsKind(err, apperr.KindInvalidInput) {
			t.Fatalf("expected INVALID_INPUT for %q, got %v", name, err)
		}
	}
	if _, err := svc.ServePath("missing.png"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteRequiresOwnerOrAdmin(t *testing.T) {
	svc, store, _ := newTestImageService(t)
	ctx := context.Background()
	owner := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	stranger := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	img, err := svc.Upload(ctx, owner.ID, "cat.png", bytes.NewReader([]byte("pixels")))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if err := svc.Delete(ctx, stranger, img.ID); !apperr.IsKind(err, apperr.KindPermissionDenied) {
		t.Fatalf("expected PERMISSION_DENIED, got %v", err)
	}
	if err := svc.Delete(ctx, owner, img.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}

	img2, err := svc.Upload(ctx, owner.ID, "dog.png", bytes.NewReader([]byte("pixels")))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := svc.Delete(ctx, admin, img2.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if len(store.images) != 0 {
		t.Fatalf("images remaining = %d", len(store.images))
	}
}

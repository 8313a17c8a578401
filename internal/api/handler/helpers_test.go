package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
	"github.com/autoworks/jobcard-service/internal/core/service"
	"github.com/autoworks/jobcard-service/internal/infrastructure/db/memory"
	"github.com/autoworks/jobcard-service/internal/infrastructure/storage"
)

var (
	gifBytes  = append([]byte("GIF89a\x01\x00\x01\x00\x80\x00\x00"), bytes.Repeat([]byte{0}, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0}, 32)...)
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
)

type filePart struct {
	field, name string
	data        []byte
}

// multipartRequest builds a multipart body from fields and an optional file.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, file *filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.field, file.name)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(file.data); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func withPrincipal(req *http.Request, role domain.Role) *http.Request {
	p := &domain.PrincipalView{ID: "p-" + string(role), Username: string(role), Role: role}
	return req.WithContext(domain.ContextWithPrincipal(req.Context(), p))
}

type jobCardFixture struct {
	e       *echo.Echo
	handler *JobCardHandler
	svc     ports.JobCardService
	store   *storage.DiskStore
	seeded  int
}

func newJobCardFixture(t *testing.T, maxBytes int64) *jobCardFixture {
	t.Helper()
	store, err := storage.NewDiskStore(t.TempDir(), "/uploads/job_cards")
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	svc := service.NewJobCardService(memory.NewJobCardRepository(memory.NewStore()), nil, nil, zerolog.Nop())
	return &jobCardFixture{
		e:       newEcho(),
		handler: NewJobCardHandler(svc, NewImageUploads(store, maxBytes, zerolog.Nop())),
		svc:     svc,
		store:   store,
	}
}

func (f *jobCardFixture) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.store.Dir())
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (f *jobCardFixture) seed(t *testing.T, number string) *domain.JobCard {
	t.Helper()
	ctx := domain.ContextWithPrincipal(context.Background(), &domain.PrincipalView{ID: "a", Username: "admin", Role: domain.RoleAdmin})
	f.seeded++
	path, err := f.store.Save(ctx, fmt.Sprintf("seed-%d.gif", f.seeded), "image/gif", bytes.NewReader(gifBytes))
	if err != nil {
		t.Fatalf("seed image: %v", err)
	}
	card, err := f.svc.Create(ctx, domain.NewJobCard{JobCardNumber: number, ImagePath: path})
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}
	return card
}

func fileExists(dir, urlPath string) bool {
	_, err := os.Stat(filepath.Join(dir, filepath.Base(urlPath)))
	return err == nil
}

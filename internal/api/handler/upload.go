package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/autoworks/jobcard-service/internal/api/metrics"
	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
)

// DefaultMaxUploadBytes caps a single job card image.
const DefaultMaxUploadBytes int64 = 5 << 20

// multipartOverhead leaves room for the text fields and part headers around
// the image.
const multipartOverhead int64 = 1 << 20

var (
	errNoFile       = domain.Upload("No file uploaded")
	errFileType     = domain.Upload("Only JPEG, JPG, and GIF files are allowed")
	errFileTooLarge = domain.Upload("File too large")
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".gif": true}

// ImageUploads accepts multipart images and hands them to an ImageStore.
type ImageUploads struct {
	store    ports.ImageStore
	maxBytes int64
	log      zerolog.Logger
	now      func() time.Time
}

func NewImageUploads(store ports.ImageStore, maxBytes int64, log zerolog.Logger) *ImageUploads {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &ImageUploads{store: store, maxBytes: maxBytes, log: log, now: time.Now}
}

// parseForm reads a multipart body, mapping an oversized request to the
// upload error.
func (u *ImageUploads) parseForm(c echo.Context) (*multipart.Form, error) {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, u.maxBytes+multipartOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, errFileTooLarge
		}
		return nil, domain.Validation("invalid multipart payload")
	}
	return form, nil
}

// Accept checks fh against the type and size policy, stores it and returns
// the path it is served under.
func (u *ImageUploads) Accept(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", errNoFile
	}
	if fh.Size > u.maxBytes {
		return "", errFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", domain.Unexpected("open upload", err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", domain.Unexpected("sniff upload", err)
	}
	if !mtype.Is("image/jpeg") && !mtype.Is("image/gif") {
		return "", errFileType
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", domain.Unexpected("rewind upload", err)
	}

	name := u.fileName(fh.Filename, mtype.Extension())
	path, err := u.store.Save(ctx, name, mtype.String(), io.LimitReader(f, u.maxBytes))
	if err != nil {
		return "", domain.Unexpected("store upload", err)
	}
	metrics.UploadBytes.Observe(float64(fh.Size))
	return path, nil
}

// fileName is <unix-ms>-<random><ext>, keeping the client's extension when it
// is one of the accepted ones.
func (u *ImageUploads) fileName(original, detectedExt string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !allowedExt[ext] {
		ext = detectedExt
	}
	return fmt.Sprintf("%d-%d%s", u.now().UnixMilli(), rand.Int64N(1_000_000_000), ext)
}

// Discard removes an image stored for a request that failed afterwards.
func (u *ImageUploads) Discard(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := u.store.Remove(context.WithoutCancel(ctx), path); err != nil {
		u.log.Warn().Err(err).Str("path", path).Msg("failed to discard orphaned upload")
	}
}

func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if files := form.File[key]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	if vs, ok := form.Value[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

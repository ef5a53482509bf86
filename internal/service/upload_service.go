package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"designer/internal/domain"
	"designer/internal/render"
)

// MaxUploadBytes bounds a single uploaded file.
const MaxUploadBytes = 20 << 20

// DefaultUploadFolder is used when the client names no folder.
const DefaultUploadFolder = "designs"

var folderPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// ─────────────────────────────────────────────────────────────
// Upload Service — image assets stored on disk
// ─────────────────────────────────────────────────────────────

// UploadService stores uploaded images under dir/<folder>/ and records
// them in the uploads table. Files are served from render.UploadsPrefix.
type UploadService struct {
	store    domain.UploadStore
	dir      string
	emitter  EventEmitter
	inflight Submissions
}

// NewUploadService creates an UploadService writing below dir.
func NewUploadService(store domain.UploadStore, dir string, emitter EventEmitter) *UploadService {
	return &UploadService{store: store, dir: dir, emitter: emitter, inflight: Submissions{Kind: "upload"}}
}

// Dir returns the root directory holding uploaded files.
func (s *UploadService) Dir() string { return s.dir }

// UploadInput describes one incoming file.
type UploadInput struct {
	Folder   string
	Filename string
	// Key identifies the submission; a second upload with the same folder
	// and key is refused while the first is in flight. Defaults to Filename.
	Key  string
	Body io.Reader
}

// Upload validates and stores an image. It returns domain.ErrBusy for a
// duplicate in-flight submission.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*domain.Upload, error) {
	folder := in.Folder
	if folder == "" {
		folder = DefaultUploadFolder
	}
	if !folderPattern.MatchString(folder) {
		return nil, fmt.Errorf("upload: folder %q: %w", folder, domain.ErrInvalidInput)
	}
	key := in.Key
	if key == "" {
		key = in.Filename
	}
	release, err := s.inflight.Begin(UploadKey(folder, key))
	if err != nil {
		return nil, err
	}
	defer release()

	data, err := io.ReadAll(io.LimitReader(in.Body, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("upload: empty file: %w", domain.ErrInvalidInput)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("upload: file exceeds %d bytes: %w", MaxUploadBytes, domain.ErrInvalidInput)
	}
	mime := http.DetectContentType(data)
	ext, ok := imageExt[mime]
	if !ok {
		return nil, fmt.Errorf("upload: content type %s: %w", mime, domain.ErrUnsupportedFormat)
	}

	id := uuid.New().String()
	name := id + ext
	dir := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("mkdir for upload: %w", err)
	}
	full := filepath.Join(dir, name)
	if err := writeFileAtomic(full, data); err != nil {
		return nil, err
	}

	u := &domain.Upload{
		ID:       id,
		Folder:   folder,
		Filename: filepath.Base(in.Filename),
		Path:     full,
		URL:      render.UploadsPrefix + path.Join(folder, name),
		MIME:     mime,
		Size:     int64(len(data)),
	}
	if err := s.store.CreateUpload(u); err != nil {
		_ = os.Remove(full)
		return nil, fmt.Errorf("record upload: %w", err)
	}
	log.Printf("[UPLOAD] stored %s (%d bytes)", u.URL, u.Size)
	s.emitter.Emit(ctx, "upload:created", u.URL)
	return u, nil
}

// ListUploads returns uploads in folder, or all uploads when folder is empty.
func (s *UploadService) ListUploads(folder string) ([]domain.Upload, error) {
	return s.store.ListUploads(folder)
}

// DeleteUpload removes the record and the file behind it.
func (s *UploadService) DeleteUpload(id string) error {
	u, err := s.store.GetUpload(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUpload(id); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("[UPLOAD] remove %s: %v", u.Path, err)
	}
	return nil
}

// Open resolves an /uploads/<folder>/<name> pair to a file path inside Dir.
func (s *UploadService) Open(folder, name string) (string, error) {
	if !folderPattern.MatchString(folder) || name == "" ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("upload %s/%s: %w", folder, name, domain.ErrNotFound)
	}
	p := filepath.Join(s.dir, folder, name)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", folder, name, domain.ErrNotFound)
	}
	return p, nil
}

// WaitUploads blocks until in-flight uploads finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *UploadService) WaitUploads(ctx context.Context) {
	s.inflight.Wait(ctx)
}

func writeFileAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename upload: %w", err)
	}
	return nil
}

// Package upload stores chat attachments. Files are size-capped and
// extension allow-listed before they touch disk; stored names are
// uuid-prefixed so uploads can never collide or overwrite.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/workcity/chat-service/internal/chat"
)

// MaxFileSize is the upload size cap.
const MaxFileSize = 5 * 1024 * 1024 // 5MB

// allowedExtensions is the set of permitted file extensions (lowercase,
// without the dot).
var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"txt":  true,
	"zip":  true,
}

// Store is an attachment store. Implementations exist for local disk; the
// interface keeps object storage pluggable.
type Store interface {
	// Save persists an uploaded file and returns its public URL, stored
	// filename, and size.
	Save(file *multipart.FileHeader) (url, filename string, size int64, err error)
}

// DiskStore saves attachments under a local directory and serves them from
// a base URL path.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: mkdir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Validate checks size and extension without touching disk.
func Validate(file *multipart.FileHeader) error {
	if file.Size > MaxFileSize {
		return fmt.Errorf("%w: file exceeds %d byte limit", chat.ErrValidation, MaxFileSize)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: file type %q not allowed", chat.ErrValidation, ext)
	}
	return nil
}

// Save implements Store.
func (d *DiskStore) Save(file *multipart.FileHeader) (string, string, int64, error) {
	if err := Validate(file); err != nil {
		return "", "", 0, err
	}

	src, err := file.Open()
	if err != nil {
		return "", "", 0, fmt.Errorf("upload: open: %w", err)
	}
	defer src.Close()

	// uuid prefix keeps original names visible while preventing collisions.
	name := uuid.New().String() + "_" + filepath.Base(file.Filename)
	path := filepath.Join(d.dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", 0, fmt.Errorf("upload: create %s: %w", path, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		os.Remove(path)
		return "", "", 0, fmt.Errorf("upload: write %s: %w", path, err)
	}
	if written > MaxFileSize {
		os.Remove(path)
		return "", "", 0, fmt.Errorf("%w: file exceeds %d byte limit", chat.ErrValidation, MaxFileSize)
	}

	return d.baseURL + "/" + name, name, written, nil
}

package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/workcity/chat-service/internal/chat"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(MaxFileSize * 2)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{"png ok", "photo.png", 100, false},
		{"pdf ok", "invoice.PDF", 100, false},
		{"zip ok", "bundle.zip", 100, false},
		{"executable rejected", "malware.exe", 100, true},
		{"no extension", "README", 100, true},
		{"oversized", "big.png", MaxFileSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := &multipart.FileHeader{Filename: tt.filename, Size: tt.size}
			err := Validate(header)
			if tt.wantErr {
				if !errors.Is(err, chat.ErrValidation) {
					t.Fatalf("got %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSaveWritesFileAndURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	content := []byte("attachment body")
	header := fileHeader(t, "receipt.pdf", content)

	url, filename, size, err := store.Save(header)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}
	if !strings.HasSuffix(filename, "_receipt.pdf") {
		t.Errorf("stored name %q lost the original filename", filename)
	}
	if url != "/uploads/"+filename {
		t.Errorf("url = %q, want /uploads/%s", url, filename)
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("stored content differs from upload")
	}
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	header := fileHeader(t, "script.sh", []byte("echo hi"))
	if _, _, _, err := store.Save(header); !errors.Is(err, chat.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestSaveNamesNeverCollide(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	header := fileHeader(t, "same.txt", []byte("one"))
	_, first, _, err := store.Save(header)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	header = fileHeader(t, "same.txt", []byte("two"))
	_, second, _, err := store.Save(header)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if first == second {
		t.Errorf("two uploads of %q stored under the same name %q", "same.txt", first)
	}
}

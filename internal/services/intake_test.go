package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/proposalflow/internal/extract"
)

func TestContentTypeForObject(t *testing.T) {
	tests := []struct {
		object string
		want   string
	}{
		{"uploads/pitch.pdf", extract.MediaTypePDF},
		{"uploads/Pitch.PDF", extract.MediaTypePDF},
		{"deck.docx", extract.MediaTypeDocx},
		{"legacy.doc", extract.MediaTypeMsWord},
		{"notes.txt", extract.MediaTypePlainText},
		{"mystery.bin", extract.MediaTypePlainText},
		{"no-extension", extract.MediaTypePlainText},
	}
	for _, tt := range tests {
		if got := ContentTypeForObject(tt.object); got != tt.want {
			t.Errorf("ContentTypeForObject(%q) = %q, want %q", tt.object, got, tt.want)
		}
	}
}

func TestCalculateFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := calculateFileHash(path)
	if err != nil {
		t.Fatalf("calculateFileHash: %v", err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("calculateFileHash = %s, want %s", got, want)
	}

	if _, err := calculateFileHash(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func TestExtractSingleImagePassesThrough(t *testing.T) {
	content := []byte("not-actually-decoded-here")

	files, err := Extract(content, "photo.png")
	if err != nil {
		t.Fatalf("extract single image: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Filename != "photo.png" {
		t.Fatalf("expected filename photo.png, got %s", files[0].Filename)
	}
	if !bytes.Equal(files[0].Content, content) {
		t.Fatal("expected content to pass through unchanged")
	}
}

func TestExtractRejectsUnsupportedType(t *testing.T) {
	_, err := Extract([]byte("%PDF-1.4"), "doc.pdf")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestExtractUnknownExtensionIsNotRejected(t *testing.T) {
	files, err := Extract([]byte("mystery"), "file.xyzzy")
	if err != nil {
		t.Fatalf("unknown extension should pass through, got %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
}

func TestExtractZipFiltersEntries(t *testing.T) {
	content := buildZip(t, map[string]string{
		"a.jpg":               "jpg-bytes",
		"nested/b.PNG":        "png-bytes",
		"c.gif":               "gif-bytes",
		"notes.txt":           "text",
		"__MACOSX/._a.jpg":    "resource fork",
		"photos/":             "",
		"archive-readme.md":   "readme",
		"__MACOSX/nested/.DS": "junk",
	})

	files, err := Extract(content, "batch.zip")
	if err != nil {
		t.Fatalf("extract zip: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 image entries, got %d", len(files))
	}

	// Archive order is preserved.
	wantOrder := []string{"a.jpg", "nested/b.PNG", "c.gif"}
	for i, want := range wantOrder {
		if files[i].Filename != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, files[i].Filename)
		}
	}
	if string(files[1].Content) != "png-bytes" {
		t.Fatalf("expected decompressed entry bytes, got %q", files[1].Content)
	}
}

func TestExtractZipWithNoQualifyingEntries(t *testing.T) {
	content := buildZip(t, map[string]string{
		"readme.txt": "hello",
		"data.bin":   "binary",
	})

	files, err := Extract(content, "empty.zip")
	if err != nil {
		t.Fatalf("expected empty result, not error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected 0 files, got %d", len(files))
	}
}

func TestExtractCorruptZip(t *testing.T) {
	_, err := Extract([]byte("definitely not a zip"), "broken.zip")
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestBuildZipRoundTrip(t *testing.T) {
	data, err := BuildZip([]Entry{
		{Name: "one.png", Content: []byte("first")},
		{Name: "two.png", Content: []byte("second")},
	})
	if err != nil {
		t.Fatalf("build zip: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read built zip: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(reader.File))
	}
	if reader.File[0].Name != "one.png" || reader.File[1].Name != "two.png" {
		t.Fatalf("unexpected entry order: %s, %s", reader.File[0].Name, reader.File[1].Name)
	}
}

// buildZip writes entries in a fixed, deterministic order so order assertions
// hold: map iteration is randomized, so sort by a known sequence.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	order := []string{
		"a.jpg", "nested/b.PNG", "c.gif", "notes.txt",
		"__MACOSX/._a.jpg", "photos/", "archive-readme.md", "__MACOSX/nested/.DS",
		"readme.txt", "data.bin",
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range order {
		content, ok := entries[name]
		if !ok {
			continue
		}
		if name == "photos/" {
			if _, err := writer.Create(name); err != nil {
				t.Fatalf("create dir entry: %v", err)
			}
			continue
		}
		f, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return buf.Bytes()
}

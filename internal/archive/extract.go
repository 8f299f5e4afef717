package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/dunamismax/brandflow/internal/domain"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrCorrupt             = errors.New("archive cannot be opened")
)

// macOS resource-fork folder injected by Finder's "Compress" action.
const macMetadataMarker = "__MACOSX"

var allowedMIMETypes = map[string]bool{
	"application/zip": true,
	"image/gif":       true,
	"image/jpeg":      true,
	"image/png":       true,
}

var allowedEntryExtensions = map[string]bool{
	".jpg": true,
	".gif": true,
	".png": true,
}

// Extract turns raw input bytes into the files to brand. A zip yields one
// ExtractedFile per qualifying image entry in archive order; anything else is
// passed through unchanged as a single file. A zip with no qualifying entries
// yields an empty slice, not an error.
func Extract(content []byte, filename string) ([]domain.ExtractedFile, error) {
	if mimeType := mimeTypeFor(filename); mimeType != "" && !allowedMIMETypes[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, mimeType)
	}

	if strings.EqualFold(path.Ext(filename), ".zip") {
		return extractZip(content)
	}

	return []domain.ExtractedFile{{Filename: filename, Content: content}}, nil
}

func extractZip(content []byte) ([]domain.ExtractedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	files := make([]domain.ExtractedFile, 0, len(reader.File))
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if strings.Contains(entry.Name, macMetadataMarker) {
			continue
		}
		if !allowedEntryExtensions[strings.ToLower(path.Ext(entry.Name))] {
			continue
		}

		data, err := readEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", ErrCorrupt, entry.Name, err)
		}
		files = append(files, domain.ExtractedFile{Filename: entry.Name, Content: data})
	}

	return files, nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// mimeTypeFor resolves the declared MIME type from the filename extension
// alone. An unknown extension resolves to "", which is not an error: the file
// is treated as a single image and fails later at decode if it is not one.
func mimeTypeFor(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return ""
	}

	typ := mime.TypeByExtension(ext)
	if typ == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(typ)
	if err != nil {
		return ""
	}
	return mediaType
}

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Entry is one named file to place in a built archive.
type Entry struct {
	Name    string
	Content []byte
}

// BuildZip assembles a zip archive from the given entries, preserving order.
func BuildZip(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	for _, entry := range entries {
		f, err := writer.Create(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", entry.Name, err)
		}
		if _, err := f.Write(entry.Content); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", entry.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

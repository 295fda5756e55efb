package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidArchive is returned for data that is not a readable zip archive.
var ErrInvalidArchive = errors.New("archive: invalid zip")

// Entry is a named archive member.
type Entry struct {
	Name string
	Data []byte
}

// Unzip returns the file members of a zip archive in directory order.
func Unzip(data []byte) ([]Entry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	entries := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		content, err := readFile(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Data: content})
	}

	return entries, nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}

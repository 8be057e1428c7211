package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout prefixes stored audio filenames (second resolution).
const TimestampLayout = "20060102_150405"

// AudioStore writes uploaded recordings into a single directory. Files are
// never removed.
type AudioStore struct {
	dir string
	now func() time.Time
}

// NewAudioStore returns a store rooted at dir.
func NewAudioStore(dir string) *AudioStore {
	return &AudioStore{dir: dir, now: time.Now}
}

// Dir returns the upload directory.
func (s *AudioStore) Dir() string {
	return s.dir
}

// EnsureDir creates the upload directory if it does not exist.
func (s *AudioStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return nil
}

// FileName builds the stored name for an upload: "<YYYYMMDD_HHMMSS>_<original>".
// Two uploads of the same filename within one second map to the same name;
// the later one overwrites the earlier.
func (s *AudioStore) FileName(original string) string {
	return s.now().Format(TimestampLayout) + "_" + filepath.Base(original)
}

// Save writes the uploaded file and returns the stored path.
func (s *AudioStore) Save(file *multipart.FileHeader) (string, error) {
	if file == nil || file.Filename == "" {
		return "", errors.New("no audio file")
	}

	dst := filepath.Join(s.dir, s.FileName(file.Filename))

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	if err := writeFile(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return dst, nil
}

/* helper */
func writeFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

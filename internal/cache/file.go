package cache

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// FileStore keeps one JSON file per entry, so cached API responses survive
// between CLI runs.
type FileStore struct {
	dir       string
	retention time.Duration
	now       func() time.Time
}

type fileEntry struct {
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
	Value    []byte    `json:"value"`
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, retention time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir, retention: retention, now: time.Now}, nil
}

// Dir returns the directory holding the entries.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	operation, _, _ := strings.Cut(key, "|")
	return filepath.Join(s.dir, sanitize(operation)+"-"+hex.EncodeToString(sum[:8])+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, err := readEntry(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry.Key != key {
		return nil, false, nil
	}
	if s.retention > 0 && s.now().After(entry.StoredAt.Add(s.retention)) {
		_ = os.Remove(s.path(key))
		return nil, false, nil
	}
	return entry.Value, true, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	data, err := json.Marshal(fileEntry{Key: key, StoredAt: s.now(), Value: value})
	if err != nil {
		return err
	}
	// Write-then-rename so readers never see a partial file.
	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	files, err := s.files()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, file := range files {
		entry, err := readEntry(file)
		if err != nil {
			continue
		}
		if strings.HasPrefix(entry.Key, prefix) {
			if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func (s *FileStore) Len(_ context.Context) (int, error) {
	files, err := s.files()
	return len(files), err
}

// Bundle writes a tar.gz archive of all entries, for seeding the cache of an
// offline build.
func (s *FileStore) Bundle(w io.Writer) error {
	files, err := s.files()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("cache is empty: run `sola entities --cache file` first")
	}

	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)
	for _, file := range files {
		if err := addToArchive(tw, file); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

func addToArchive(tw *tar.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

func (s *FileStore) files() ([]string, error) {
	return filepath.Glob(filepath.Join(s.dir, "*.json"))
}

func readEntry(path string) (fileEntry, error) {
	var entry fileEntry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, fmt.Errorf("corrupt cache entry %s: %w", filepath.Base(path), err)
	}
	return entry, nil
}

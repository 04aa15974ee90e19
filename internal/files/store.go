package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidID is returned for ids that were not issued by a Store.
	ErrInvalidID = errors.New("invalid download id")
	// ErrNotFound is returned when a download has expired or never existed.
	ErrNotFound = errors.New("download not found")
)

// Store keeps generated outputs under a single directory. Files are named
// "<uuid><ext>" so nothing derived from an upload reaches the disk.
type Store struct {
	dir        string
	ttl        time.Duration
	extensions map[string]bool
	logger     *slog.Logger
	now        func() time.Time
}

// NewStore creates the downloads directory if needed. Only files with one of
// the given extensions (".csv", ".xlsx") can be saved or opened.
func NewStore(dir string, ttl time.Duration, extensions []string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory: %w", err)
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Store{
		dir:        dir,
		ttl:        ttl,
		extensions: exts,
		logger:     logger.With(slog.String("component", "download_store")),
		now:        time.Now,
	}, nil
}

// Dir returns the downloads directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save streams write into a new file with extension ext and returns its id.
// The file only becomes visible under its final name once write succeeded.
func (s *Store) Save(ext string, write func(io.Writer) error) (string, error) {
	ext = strings.ToLower(ext)
	if !s.extensions[ext] {
		return "", fmt.Errorf("%w: extension %q", ErrInvalidID, ext)
	}

	tmp, err := os.CreateTemp(s.dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	id := uuid.New().String() + ext
	if err := os.Rename(tmpName, filepath.Join(s.dir, id)); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	s.logger.Debug("Download stored", slog.String("download_id", id))
	return id, nil
}

// Open returns the stored file for id. Callers must close it.
func (s *Store) Open(id string) (*os.File, os.FileInfo, error) {
	if err := s.checkID(id); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open download: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat download: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(info.ModTime()) > s.ttl {
		f.Close()
		return nil, nil, ErrNotFound
	}
	return f, info, nil
}

// Remove deletes the download id. Removing a missing download is not an error.
func (s *Store) Remove(id string) error {
	if err := s.checkID(id); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove download: %w", err)
	}
	s.logger.Debug("Download removed", slog.String("download_id", id))
	return nil
}

// AttachmentName is the file name offered to users for id.
func AttachmentName(id string) string {
	return "transformed_" + id
}

func (s *Store) checkID(id string) error {
	ext := strings.ToLower(filepath.Ext(id))
	if !s.extensions[ext] || ext != filepath.Ext(id) {
		return ErrInvalidID
	}
	base := strings.TrimSuffix(id, ext)
	parsed, err := uuid.Parse(base)
	if err != nil || parsed.String() != base {
		return ErrInvalidID
	}
	return nil
}

// Cleanup removes stored files and abandoned partial writes older than the TTL.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list downloads: %w", err)
	}

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() {
			continue
		}
		if s.checkID(e.Name()) != nil && !strings.HasPrefix(e.Name(), ".partial-") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to remove expired download",
				slog.String("file", e.Name()),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("Expired downloads removed", slog.Int("count", removed))
	}
	return removed, nil
}

// RunJanitor calls Cleanup every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Download cleanup failed", slog.String("error", err.Error()))
			}
		}
	}
}
